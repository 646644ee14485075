package besoin

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinDescriptionLen is the minimum trimmed description length, in characters.
const MinDescriptionLen = 10

// Form field names, shared by FieldErrors and the HTML forms.
const (
	FieldRubrique    = "rubrique"
	FieldQuantite    = "quantite"
	FieldMontant     = "montant"
	FieldDescription = "description"
)

// Draft is the raw user input of a request form.
type Draft struct {
	Rubrique    string
	Quantite    string
	Montant     string
	Description string
}

// Payload is the body of POST /besoins and PUT /besoins/{id}.
type Payload struct {
	RubriqueID  string  `json:"id_rubrique"`
	Quantite    string  `json:"quantite"`
	Montant     string  `json:"montant"`
	Total       float64 `json:"total"`
	Description string  `json:"description"`
}

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

// OK reports whether no field failed.
func (fe FieldErrors) OK() bool { return len(fe) == 0 }

// Total is the derived amount of the draft.
func (d Draft) Total() float64 {
	return ComputeTotal(d.Quantite, d.Montant)
}

// Validate applies the submission rules.
func (d Draft) Validate() FieldErrors {
	errs := d.validateAmounts()
	if strings.TrimSpace(d.Rubrique) == "" {
		errs[FieldRubrique] = "Rubrique requise"
	}
	return errs
}

// ValidateEdit applies the rules for an owner edit, where the category is
// carried over from the stored record.
func (d Draft) ValidateEdit() FieldErrors {
	return d.validateAmounts()
}

func (d Draft) validateAmounts() FieldErrors {
	errs := FieldErrors{}
	if msg := checkPositive(d.Quantite, "Quantité requise", "Quantité doit être un nombre positif"); msg != "" {
		errs[FieldQuantite] = msg
	}
	if msg := checkPositive(d.Montant, "Montant requis", "Montant doit être un nombre positif"); msg != "" {
		errs[FieldMontant] = msg
	}
	desc := strings.TrimSpace(d.Description)
	switch {
	case desc == "":
		errs[FieldDescription] = "Description du besoin requise"
	case utf8.RuneCountInString(desc) < MinDescriptionLen:
		errs[FieldDescription] = "Description doit contenir au moins 10 caractères"
	}
	return errs
}

func checkPositive(raw, required, invalid string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return required
	}
	v, ok := parseFinite(raw)
	if !ok || v <= 0 {
		return invalid
	}
	return ""
}

// Payload builds the request body with a freshly computed total.
func (d Draft) Payload() Payload {
	return Payload{
		RubriqueID:  strings.TrimSpace(d.Rubrique),
		Quantite:    normalizeDecimal(d.Quantite),
		Montant:     normalizeDecimal(d.Montant),
		Total:       d.Total(),
		Description: d.Description,
	}
}

func normalizeDecimal(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
}

// DraftFrom pre-fills an edit form from a stored request.
func DraftFrom(b Besoin) Draft {
	return Draft{
		Rubrique:    string(b.RubriqueID),
		Quantite:    b.Quantite.String(),
		Montant:     b.Montant.String(),
		Description: b.Description,
	}
}

// ParseNumber parses a decimal, returning 0 for empty or invalid input.
// A comma decimal separator is accepted.
func ParseNumber(s string) float64 {
	v, ok := parseFinite(s)
	if !ok {
		return 0
	}
	return v
}

func parseFinite(s string) (float64, bool) {
	s = normalizeDecimal(s)
	if s == "" || strings.IndexFunc(s, notDecimal) >= 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// notDecimal rejects what ParseFloat accepts beyond plain decimal notation:
// hex mantissas, digit underscores, "inf" and "nan".
func notDecimal(r rune) bool {
	return !strings.ContainsRune("0123456789.+-eE", r)
}

// ComputeTotal returns quantity × amount rounded to cents.
func ComputeTotal(quantite, montant string) float64 {
	return RoundCents(ParseNumber(quantite) * ParseNumber(montant))
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
