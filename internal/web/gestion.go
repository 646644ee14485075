package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"esp.org/internal/audit"
	"esp.org/internal/besoin"
)

const msgTransitionFailed = "Erreur lors de la mise à jour du statut !"

type confirmPage struct {
	shell
	Besoin   besoin.Besoin
	Action   besoin.Action
	Question string
	Reverses bool
}

func (a *API) listReview(w http.ResponseWriter, r *http.Request) {
	a.renderReview(w, r, http.StatusOK, "")
}

// renderReview rebuilds the reviewer page from a fresh read. alert, when
// set, reports a failed action; the list itself keeps the action links so
// the reviewer can retry.
func (a *API) renderReview(w http.ResponseWriter, r *http.Request, status int, alert string) {
	page := listPage{shell: a.shell(r, pathReview, "Gestion des besoins")}
	page.Alert = alert
	list, err := a.svc.ListAll(r.Context())
	if err != nil {
		logFailure(r, "list_all_failed", err, nil)
		if page.Alert == "" {
			page.Alert = msgListFailed
			status = upstreamStatus(err)
		}
		a.render(w, r, status, pageReview, page)
		return
	}
	page.Besoins = list
	page.Counts = besoin.Tally(list)
	a.render(w, r, status, pageReview, page)
}

func (a *API) findReview(w http.ResponseWriter, r *http.Request) (besoin.Besoin, bool) {
	id, ok := besoin.ParseID(mux.Vars(r)["id"])
	if !ok {
		a.notFound(w, r)
		return besoin.Besoin{}, false
	}
	list, err := a.svc.ListAll(r.Context())
	if err != nil {
		logFailure(r, "list_all_failed", err, map[string]any{"id": id})
		a.render(w, r, upstreamStatus(err), pageError, errorPage{
			shell:   a.shell(r, pathReview, "Gestion des besoins"),
			Message: msgListFailed,
		})
		return besoin.Besoin{}, false
	}
	for _, b := range list {
		if b.ID == id {
			return b, true
		}
	}
	a.render(w, r, http.StatusNotFound, pageError, errorPage{
		shell:   a.shell(r, pathReview, "Gestion des besoins"),
		Message: msgNotFound,
	})
	return besoin.Besoin{}, false
}

func (a *API) showReview(w http.ResponseWriter, r *http.Request) {
	b, ok := a.findReview(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, pageDetail, detailPage{
		shell:    a.shell(r, pathReview, "Détails de la demande"),
		Besoin:   b,
		Back:     pathReview,
		Reviewer: true,
	})
}

// confirmTransition asks before a status change. Actions not offered for
// the current status send the reviewer back to the list.
func (a *API) confirmTransition(w http.ResponseWriter, r *http.Request) {
	action, ok := besoin.ParseAction(mux.Vars(r)["action"])
	if !ok {
		a.notFound(w, r)
		return
	}
	b, ok := a.findReview(w, r)
	if !ok {
		return
	}
	if !besoin.Allows(b.Status, action) {
		http.Redirect(w, r, pathReview, http.StatusSeeOther)
		return
	}
	a.render(w, r, http.StatusOK, pageConfirm, a.newConfirmPage(r, b, action))
}

func (a *API) newConfirmPage(r *http.Request, b besoin.Besoin, action besoin.Action) confirmPage {
	return confirmPage{
		shell:    a.shell(r, pathReview, "Confirmation"),
		Besoin:   b,
		Action:   action,
		Question: besoin.ConfirmationMessage(action, b.Status),
		Reverses: besoin.Reverses(action, b.Status),
	}
}

// applyTransition performs the confirmed change, then the list is rebuilt
// from a fresh read whether the call succeeded or not.
func (a *API) applyTransition(w http.ResponseWriter, r *http.Request) {
	action, ok := besoin.ParseAction(mux.Vars(r)["action"])
	if !ok {
		a.notFound(w, r)
		return
	}
	id, ok := besoin.ParseID(mux.Vars(r)["id"])
	if !ok {
		a.notFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	prior := besoin.Status(r.PostFormValue("statut"))

	if _, err := besoin.Transition(r.Context(), a.svc, id, action); err != nil {
		logFailure(r, "transition_failed", err, map[string]any{"id": id, "action": string(action)})
		a.renderReview(w, r, upstreamStatus(err), msgTransitionFailed)
		return
	}

	event := audit.EventApprove
	if action == besoin.ActionReject {
		event = audit.EventReject
	}
	a.audit(r.Context(), event, map[string]any{
		"id":       id,
		"from":     string(prior),
		"to":       string(action.Target()),
		"reversal": besoin.Reverses(action, prior),
	})
	http.Redirect(w, r, pathReview, http.StatusSeeOther)
}
