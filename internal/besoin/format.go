package besoin

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatTotal renders a total for the form field: two decimals, dot separator.
func FormatTotal(v float64) string {
	return strconv.FormatFloat(RoundCents(v), 'f', 2, 64)
}

// FormatCurrency renders an amount for tables and detail pages using French
// conventions.
func FormatCurrency(v float64) string {
	p := message.NewPrinter(language.French)
	return p.Sprint(number.Decimal(RoundCents(v), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

var submittedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a submission timestamp as dd/mm/yyyy hh:mm, or returns
// the raw value when it is not a recognised layout.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range submittedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if layout == "2006-01-02" {
				return t.Format("02/01/2006")
			}
			return t.Format("02/01/2006 15:04")
		}
	}
	return raw
}
