package besoin

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTotal(t *testing.T) {
	cases := []struct {
		q, m string
		want float64
	}{
		{"3", "10.5", 31.5},
		{"0.1", "0.2", 0.02},
		{"2", "19.999", 40},
		{"0", "12", 0},
		{"5", "0", 0},
		{"", "12", 0},
		{"abc", "12", 0},
		{"3", "10,5", 31.5},
		{" 4 ", " 2.25 ", 9},
		{"0x1p4", "2", 0},
		{"3", "0X1P-2", 0},
		{"1_000", "2", 0},
		{"Inf", "2", 0},
		{"1e2", "2", 200},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ComputeTotal(tc.q, tc.m), "ComputeTotal(%q, %q)", tc.q, tc.m)
	}
}

func TestComputeTotalMatchesRoundedProduct(t *testing.T) {
	for q := 1; q <= 40; q++ {
		for _, m := range []float64{0.01, 0.33, 1.5, 7.25, 99.99, 1234.567} {
			got := ComputeTotal(strconv.Itoa(q), strconv.FormatFloat(m, 'f', -1, 64))
			want := math.Round(float64(q)*m*100) / 100
			require.InDelta(t, want, got, 1e-9, "q=%d m=%v", q, m)
			require.Equal(t, FormatTotal(want), FormatTotal(got))
		}
	}
}

func TestFormatTotal(t *testing.T) {
	require.Equal(t, "31.50", FormatTotal(31.5))
	require.Equal(t, "0.00", FormatTotal(0))
	require.Equal(t, "0.02", FormatTotal(0.1*0.2))
}

func TestValidate(t *testing.T) {
	valid := Draft{Rubrique: "IT", Quantite: "3", Montant: "10.5", Description: "Need new laptop"}
	require.True(t, valid.Validate().OK())

	cases := []struct {
		name  string
		draft Draft
		field string
		msg   string
	}{
		{"missing rubrique", Draft{Quantite: "1", Montant: "1", Description: "0123456789"}, FieldRubrique, "Rubrique requise"},
		{"missing quantite", Draft{Rubrique: "1", Montant: "1", Description: "0123456789"}, FieldQuantite, "Quantité requise"},
		{"zero quantite", Draft{Rubrique: "1", Quantite: "0", Montant: "1", Description: "0123456789"}, FieldQuantite, "Quantité doit être un nombre positif"},
		{"text quantite", Draft{Rubrique: "1", Quantite: "deux", Montant: "1", Description: "0123456789"}, FieldQuantite, "Quantité doit être un nombre positif"},
		{"hex quantite", Draft{Rubrique: "1", Quantite: "0x1p4", Montant: "1", Description: "0123456789"}, FieldQuantite, "Quantité doit être un nombre positif"},
		{"negative montant", Draft{Rubrique: "1", Quantite: "1", Montant: "-4", Description: "0123456789"}, FieldMontant, "Montant doit être un nombre positif"},
		{"missing montant", Draft{Rubrique: "1", Quantite: "1", Montant: "  ", Description: "0123456789"}, FieldMontant, "Montant requis"},
		{"blank description", Draft{Rubrique: "1", Quantite: "1", Montant: "1", Description: "   "}, FieldDescription, "Description du besoin requise"},
		{"short description", Draft{Rubrique: "1", Quantite: "1", Montant: "1", Description: "  court   "}, FieldDescription, "Description doit contenir au moins 10 caractères"},
		{"nine runes", Draft{Rubrique: "1", Quantite: "1", Montant: "1", Description: "ééééééééé"}, FieldDescription, "Description doit contenir au moins 10 caractères"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.draft.Validate()
			require.Len(t, errs, 1, "errors: %v", errs)
			require.Equal(t, tc.msg, errs[tc.field])
		})
	}

	require.Len(t, Draft{}.Validate(), 4)
}

func TestValidateEditIgnoresRubrique(t *testing.T) {
	d := Draft{Quantite: "2", Montant: "3", Description: "Cartouches d'encre"}
	require.True(t, d.ValidateEdit().OK())
	require.False(t, d.Validate().OK())
}

func TestPayloadExample(t *testing.T) {
	d := Draft{Rubrique: "IT", Quantite: "3", Montant: "10.5", Description: "Need new laptop"}
	require.Equal(t, "31.50", FormatTotal(d.Total()))

	body, err := json.Marshal(d.Payload())
	require.NoError(t, err)
	require.JSONEq(t, `{"id_rubrique":"IT","quantite":"3","montant":"10.5","total":31.5,"description":"Need new laptop"}`, string(body))
}

func TestDraftFrom(t *testing.T) {
	d := DraftFrom(Besoin{RubriqueID: "2", Quantite: 4, Montant: 2.5, Description: "Ramettes de papier"})
	require.Equal(t, Draft{Rubrique: "2", Quantite: "4", Montant: "2.5", Description: "Ramettes de papier"}, d)
	require.Equal(t, 10.0, d.Total())
}
