package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"esp.org/internal/besoin"
	"esp.org/internal/obs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	pageForm    = "form"
	pageMine    = "mine"
	pageDetail  = "detail"
	pageEdit    = "edit"
	pageDelete  = "delete"
	pageReview  = "gestion"
	pageConfirm = "confirm"
	pageError   = "error"
)

var pageNames = []string{pageForm, pageMine, pageDetail, pageEdit, pageDelete, pageReview, pageConfirm, pageError}

var funcs = template.FuncMap{
	"currency": func(n besoin.Number) string { return besoin.FormatCurrency(n.Float()) },
	"decimal":  func(n besoin.Number) string { return n.String() },
	"date":     besoin.FormatDate,
	"actions":  besoin.AvailableActions,
}

type pages struct {
	byName map[string]*template.Template
}

func parsePages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

// render executes page into a buffer so that a template error never leaves a
// half-written response.
func (a *API) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := a.pages.byName[page]
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "unknown page")
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		obs.Log(obs.LevelError, "render_failed", map[string]any{
			"request_id": RequestIDFromContext(r),
			"page":       page,
			"error":      err,
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionFrom(r); !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	a.render(w, r, http.StatusNotFound, pageError, errorPage{
		shell:   a.shell(r, "", "Page introuvable"),
		Message: "La page demandée n'existe pas.",
	})
}

type errorPage struct {
	shell
	Message string
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}
