package besoin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Status is the review state of a request. Wire values are French.
type Status string

const (
	StatusPending   Status = "en attente"
	StatusValidated Status = "valide"
	StatusRejected  Status = "rejete"
)

// Class is a stable token for styling.
func (s Status) Class() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusValidated:
		return "validated"
	case StatusRejected:
		return "rejected"
	}
	return "other"
}

// Rubrique is a request category; reference data owned by the remote API.
type Rubrique struct {
	ID   Ref    `json:"id"`
	Name string `json:"nom_rubrique"`
}

// Besoin is a submitted request as returned by the remote API.
type Besoin struct {
	ID           int64  `json:"id"`
	RubriqueID   Ref    `json:"id_rubrique,omitempty"`
	RubriqueName string `json:"nom_rubrique,omitempty"`
	Quantite     Number `json:"quantite"`
	Montant      Number `json:"montant"`
	Total        Number `json:"total"`
	Description  string `json:"description"`
	Status       Status `json:"statut"`
	SubmittedAt  string `json:"date_soumission,omitempty"`
	OwnerNom     string `json:"nom_utilisateur,omitempty"`
	OwnerPrenom  string `json:"prenom,omitempty"`
}

// UnmarshalJSON accepts the id as a JSON number or a numeric string.
func (b *Besoin) UnmarshalJSON(data []byte) error {
	type plain Besoin
	aux := struct {
		*plain
		ID Ref `json:"id"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.ID = 0
	if id := strings.TrimSpace(string(aux.ID)); id != "" {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("besoin: invalid id %q", id)
		}
		b.ID = n
	}
	return nil
}

// Requester is the owner's display name.
func (b Besoin) Requester() string {
	return strings.TrimSpace(b.OwnerNom + " " + b.OwnerPrenom)
}

// Number is a float that decodes from a JSON number or a numeric string,
// since SQL decimals are commonly serialised as strings.
type Number float64

// Float returns n as float64.
func (n Number) Float() float64 { return float64(n) }

// String renders n without trailing zeros.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("besoin: invalid number %q", str)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Ref is an identifier that may travel as a JSON string or number.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*r = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*r = Ref(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errors.New("besoin: reference must be a string or a number")
	}
	*r = Ref(num.String())
	return nil
}
