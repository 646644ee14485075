package web

import (
	"context"
	"net/http"

	"esp.org/internal/audit"
	"esp.org/internal/obs"
	"esp.org/internal/session"
)

const (
	pathForm   = "/besoins/nouveau"
	pathMine   = "/mes-besoins"
	pathReview = "/gestion"
	pathLogout = "/deconnexion"
)

type navItem struct {
	Label  string
	Href   string
	Active bool
}

// shell is the data every page layout needs.
type shell struct {
	Title   string
	Nav     []navItem
	User    session.User
	Success string
	Alert   string
}

// navigation lists the menu for role. The review entry is only offered to
// chefs; the remote API is what actually enforces access.
func navigation(role session.Role, active string) []navItem {
	items := []navItem{
		{Label: "Exprimer un besoin", Href: pathForm},
		{Label: "Mes Besoins", Href: pathMine},
	}
	if role == session.RoleChef {
		items = append(items, navItem{Label: "Gestion des besoins", Href: pathReview})
	}
	items = append(items, navItem{Label: "Déconnexion", Href: pathLogout})
	for i := range items {
		items[i].Active = items[i].Href == active
	}
	return items
}

func (a *API) shell(r *http.Request, active, title string) shell {
	sess, _ := sessionFrom(r)
	return shell{
		Title: title,
		Nav:   navigation(sess.Role(), active),
		User:  sess.User,
	}
}

func sessionFrom(r *http.Request) (session.Session, bool) {
	return session.FromContext(r.Context())
}

// requireChef sends non-chefs back to the form.
func (a *API) requireChef(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFrom(r)
		if !ok || sess.Role() != session.RoleChef {
			http.Redirect(w, r, pathForm, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	audit.Record(ctx, event, fields)
}

// logFailure records a failed upstream call with the request context.
func logFailure(r *http.Request, msg string, err error, fields map[string]any) {
	entry := map[string]any{
		"request_id": RequestIDFromContext(r),
		"path":       r.URL.Path,
		"error":      err,
	}
	for k, v := range fields {
		entry[k] = v
	}
	obs.Log(obs.LevelError, msg, entry)
}
