package besoin

import "sort"

// Action is a per-row operation offered in the list views.
type Action string

const (
	ActionValidate Action = "valider"
	ActionReject   Action = "rejeter"
	ActionDetails  Action = "details"
)

// ParseAction accepts the two status transitions.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionValidate, ActionReject:
		return Action(s), true
	}
	return "", false
}

// Label is the button caption.
func (a Action) Label() string {
	switch a {
	case ActionValidate:
		return "Valider"
	case ActionReject:
		return "Rejeter"
	case ActionDetails:
		return "Détails"
	}
	return string(a)
}

// Target is the status an action moves a request to.
func (a Action) Target() Status {
	switch a {
	case ActionValidate:
		return StatusValidated
	case ActionReject:
		return StatusRejected
	}
	return ""
}

// IsTransition reports whether a changes the status.
func (a Action) IsTransition() bool { return a.Target() != "" }

// AvailableActions lists the reviewer actions for a request in status s.
// Details is always last.
func AvailableActions(s Status) []Action {
	switch s {
	case StatusPending:
		return []Action{ActionValidate, ActionReject, ActionDetails}
	case StatusValidated:
		return []Action{ActionReject, ActionDetails}
	case StatusRejected:
		return []Action{ActionValidate, ActionDetails}
	}
	return []Action{ActionDetails}
}

// Allows reports whether a is offered for status s.
func Allows(s Status, a Action) bool {
	for _, x := range AvailableActions(s) {
		if x == a {
			return true
		}
	}
	return false
}

// Reverses reports whether applying a to a request in status s overturns a
// previous decision.
func Reverses(a Action, s Status) bool {
	return (a == ActionValidate && s == StatusRejected) ||
		(a == ActionReject && s == StatusValidated)
}

// ConfirmationMessage is the question asked before a status change.
func ConfirmationMessage(a Action, s Status) string {
	switch {
	case a == ActionValidate && s == StatusRejected:
		return "Êtes-vous sûr de vouloir valider cette demande qui était rejetée ?"
	case a == ActionReject && s == StatusValidated:
		return "Êtes-vous sûr de vouloir rejeter cette demande qui était validée ?"
	case a == ActionValidate:
		return "Êtes-vous sûr de vouloir valider cette demande ?"
	case a == ActionReject:
		return "Êtes-vous sûr de vouloir rejeter cette demande ?"
	}
	return "Êtes-vous sûr de vouloir " + string(a) + " cette demande ?"
}

// Counts aggregates a list by status. Other holds unknown statuses so that
// the fields always add up to the list length.
type Counts struct {
	Pending   int
	Validated int
	Rejected  int
	Other     int
}

// Total is the number of requests counted.
func (c Counts) Total() int { return c.Pending + c.Validated + c.Rejected + c.Other }

// Tally counts list by status.
func Tally(list []Besoin) Counts {
	var c Counts
	for _, b := range list {
		switch b.Status {
		case StatusPending:
			c.Pending++
		case StatusValidated:
			c.Validated++
		case StatusRejected:
			c.Rejected++
		default:
			c.Other++
		}
	}
	return c
}

// SortByID orders list by ascending id in place.
func SortByID(list []Besoin) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
