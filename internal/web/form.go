package web

import (
	"net/http"
	"strings"

	"esp.org/internal/audit"
	"esp.org/internal/besoin"
)

const (
	msgSubmitted     = "Demande soumise avec succès !"
	msgSubmitFailed  = "Erreur lors de la soumission. Veuillez réessayer."
	msgSubmitBusy    = "Une soumission est déjà en cours."
	msgFormExpired   = "Le formulaire a expiré. Veuillez soumettre à nouveau."
	msgRubriquesDown = "Impossible de charger les rubriques."
)

type formPage struct {
	shell
	Rubriques []besoin.Rubrique
	Draft     besoin.Draft
	Errors    besoin.FieldErrors
	Total     string
	Nonce     string
}

func (a *API) showForm(w http.ResponseWriter, r *http.Request) {
	page := a.newFormPage(r, besoin.Draft{})
	if r.URL.Query().Get("ok") == "1" {
		page.Success = msgSubmitted
	}
	a.render(w, r, http.StatusOK, pageForm, page)
}

func (a *API) newFormPage(r *http.Request, d besoin.Draft) formPage {
	sess, _ := sessionFrom(r)
	page := formPage{
		shell:  a.shell(r, pathForm, "Exprimer un besoin"),
		Draft:  d,
		Errors: besoin.FieldErrors{},
		Total:  besoin.FormatTotal(d.Total()),
		Nonce:  a.guard.Issue(sess.ID),
	}
	rubriques, err := a.svc.Rubriques(r.Context())
	if err != nil {
		logFailure(r, "rubriques_failed", err, nil)
		page.Alert = msgRubriquesDown
		return page
	}
	page.Rubriques = rubriques
	return page
}

func draftFromForm(r *http.Request) besoin.Draft {
	return besoin.Draft{
		Rubrique:    strings.TrimSpace(r.PostFormValue(besoin.FieldRubrique)),
		Quantite:    r.PostFormValue(besoin.FieldQuantite),
		Montant:     r.PostFormValue(besoin.FieldMontant),
		Description: r.PostFormValue(besoin.FieldDescription),
	}
}

// submitForm validates the draft and, when it is clean, creates the request
// once. Success redirects so that a reload does not resubmit.
func (a *API) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	draft := draftFromForm(r)
	nonce := r.PostFormValue("nonce")

	if fe := draft.Validate(); !fe.OK() {
		page := a.newFormPage(r, draft)
		page.Errors = fe
		a.render(w, r, http.StatusUnprocessableEntity, pageForm, page)
		return
	}

	sess, _ := sessionFrom(r)
	done, state := a.guard.Begin(sess.ID, nonce)
	switch state {
	case nonceUsed:
		http.Redirect(w, r, pathForm+"?ok=1", http.StatusSeeOther)
		return
	case nonceBusy:
		page := a.newFormPage(r, draft)
		page.Alert = msgSubmitBusy
		a.render(w, r, http.StatusConflict, pageForm, page)
		return
	case nonceUnknown:
		page := a.newFormPage(r, draft)
		page.Alert = msgFormExpired
		a.render(w, r, http.StatusConflict, pageForm, page)
		return
	}

	payload := draft.Payload()
	created, err := a.svc.Create(r.Context(), payload)
	done(err == nil)
	if err != nil {
		logFailure(r, "submit_failed", err, map[string]any{"rubrique": payload.RubriqueID})
		page := a.newFormPage(r, draft)
		page.Alert = msgSubmitFailed
		a.render(w, r, upstreamStatus(err), pageForm, page)
		return
	}

	a.audit(r.Context(), audit.EventCreate, map[string]any{
		"id":       created.ID,
		"rubrique": payload.RubriqueID,
		"total":    payload.Total,
	})
	http.Redirect(w, r, pathForm+"?ok=1", http.StatusSeeOther)
}

// previewTotal recomputes the total while the user types.
func (a *API) previewTotal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	total := besoin.ComputeTotal(q.Get(besoin.FieldQuantite), q.Get(besoin.FieldMontant))
	writeJSON(w, http.StatusOK, map[string]any{
		"total": besoin.FormatTotal(total),
	})
}

func upstreamStatus(err error) int {
	if besoin.IsTransport(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
