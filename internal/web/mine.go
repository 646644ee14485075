package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"esp.org/internal/audit"
	"esp.org/internal/besoin"
)

const (
	msgListFailed   = "Erreur lors du chargement des besoins."
	msgUpdateFailed = "Erreur lors de la modification. Veuillez réessayer."
	msgDeleteFailed = "Erreur lors de la suppression. Veuillez réessayer."
	msgUpdated      = "Besoin modifié avec succès."
	msgDeleted      = "Besoin supprimé avec succès."
	msgNotPending   = "Cette demande a déjà été traitée ; la modifier ne change pas la décision enregistrée."
	msgNotFound     = "Ce besoin est introuvable."
)

type listPage struct {
	shell
	Besoins []besoin.Besoin
	Counts  besoin.Counts
}

type detailPage struct {
	shell
	Besoin   besoin.Besoin
	Back     string
	Reviewer bool
}

type editPage struct {
	shell
	Besoin besoin.Besoin
	Draft  besoin.Draft
	Errors besoin.FieldErrors
	Total  string
	Notice string
}

type deletePage struct {
	shell
	Besoin besoin.Besoin
}

func (a *API) listMine(w http.ResponseWriter, r *http.Request) {
	page := listPage{shell: a.shell(r, pathMine, "Mes Besoins")}
	switch r.URL.Query().Get("ok") {
	case "modifie":
		page.Success = msgUpdated
	case "supprime":
		page.Success = msgDeleted
	}
	list, err := a.svc.ListMine(r.Context())
	if err != nil {
		logFailure(r, "list_mine_failed", err, nil)
		page.Alert = msgListFailed
		a.render(w, r, upstreamStatus(err), pageMine, page)
		return
	}
	besoin.SortByID(list)
	page.Besoins = list
	a.render(w, r, http.StatusOK, pageMine, page)
}

// findMine refetches the owner's list and picks id out of it; the API has no
// single-record read.
func (a *API) findMine(w http.ResponseWriter, r *http.Request) (besoin.Besoin, bool) {
	id, ok := besoin.ParseID(mux.Vars(r)["id"])
	if !ok {
		a.notFound(w, r)
		return besoin.Besoin{}, false
	}
	list, err := a.svc.ListMine(r.Context())
	if err != nil {
		logFailure(r, "list_mine_failed", err, map[string]any{"id": id})
		a.render(w, r, upstreamStatus(err), pageError, errorPage{
			shell:   a.shell(r, pathMine, "Mes Besoins"),
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
		shell:   a.shell(r, pathMine, "Mes Besoins"),
		Message: msgNotFound,
	})
	return besoin.Besoin{}, false
}

func (a *API) showMine(w http.ResponseWriter, r *http.Request) {
	b, ok := a.findMine(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, pageDetail, detailPage{
		shell:  a.shell(r, pathMine, "Détails de la demande"),
		Besoin: b,
		Back:   pathMine,
	})
}

func (a *API) newEditPage(r *http.Request, b besoin.Besoin, d besoin.Draft) editPage {
	page := editPage{
		shell:  a.shell(r, pathMine, "Modifier le besoin"),
		Besoin: b,
		Draft:  d,
		Errors: besoin.FieldErrors{},
		Total:  besoin.FormatTotal(d.Total()),
	}
	if b.Status != besoin.StatusPending {
		page.Notice = msgNotPending
	}
	return page
}

func (a *API) editMine(w http.ResponseWriter, r *http.Request) {
	b, ok := a.findMine(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, pageEdit, a.newEditPage(r, b, besoin.DraftFrom(b)))
}

// updateMine replaces the request with the edited fields. The category is
// not editable and is carried over from the stored record.
func (a *API) updateMine(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	b, ok := a.findMine(w, r)
	if !ok {
		return
	}
	draft := draftFromForm(r)
	draft.Rubrique = string(b.RubriqueID)

	if fe := draft.ValidateEdit(); !fe.OK() {
		page := a.newEditPage(r, b, draft)
		page.Errors = fe
		a.render(w, r, http.StatusUnprocessableEntity, pageEdit, page)
		return
	}
	payload := draft.Payload()
	if _, err := a.svc.Update(r.Context(), b.ID, payload); err != nil {
		logFailure(r, "update_failed", err, map[string]any{"id": b.ID})
		page := a.newEditPage(r, b, draft)
		page.Alert = msgUpdateFailed
		a.render(w, r, upstreamStatus(err), pageEdit, page)
		return
	}
	a.audit(r.Context(), audit.EventUpdate, map[string]any{
		"id":     b.ID,
		"total":  payload.Total,
		"statut": string(b.Status),
	})
	http.Redirect(w, r, pathMine+"?ok=modifie", http.StatusSeeOther)
}

func (a *API) confirmDelete(w http.ResponseWriter, r *http.Request) {
	b, ok := a.findMine(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, pageDelete, deletePage{
		shell:  a.shell(r, pathMine, "Confirmer la suppression"),
		Besoin: b,
	})
}

func (a *API) deleteMine(w http.ResponseWriter, r *http.Request) {
	id, ok := besoin.ParseID(mux.Vars(r)["id"])
	if !ok {
		a.notFound(w, r)
		return
	}
	if err := a.svc.Delete(r.Context(), id); err != nil {
		logFailure(r, "delete_failed", err, map[string]any{"id": id})
		status := upstreamStatus(err)
		if errors.Is(err, besoin.ErrNotFound) {
			status = http.StatusNotFound
		}
		page := deletePage{
			shell:  a.shell(r, pathMine, "Confirmer la suppression"),
			Besoin: besoin.Besoin{ID: id},
		}
		page.Alert = msgDeleteFailed
		a.render(w, r, status, pageDelete, page)
		return
	}
	a.audit(r.Context(), audit.EventDelete, map[string]any{"id": id})
	http.Redirect(w, r, pathMine+"?ok=supprime", http.StatusSeeOther)
}
