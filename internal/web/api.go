// Package web serves the server-rendered front-end: the navigation shell,
// the request form and the owner and reviewer lists.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"esp.org/internal/audit"
	"esp.org/internal/besoin"
	"esp.org/internal/obs"
	"esp.org/internal/session"
)

const maxFormBytes = 64 << 10

// ReadyProbe checks that the remote API answers. An empty URL is always
// ready.
type ReadyProbe struct {
	URL    string
	Client *http.Client
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.URL == "" {
		return nil
	}
	client := rp.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rp.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.New("upstream answered " + resp.Status)
	}
	return nil
}

// Options wires the front-end.
type Options struct {
	Service    besoin.Service
	Sessions   *session.Store
	Ready      ReadyProbe
	Version    string
	RateBurst  int
	RatePerSec float64
}

// API is the HTTP layer.
type API struct {
	router     *mux.Router
	svc        besoin.Service
	sessions   *session.Store
	pages      *pages
	guard      *submitGuard
	ready      ReadyProbe
	version    string
	rateBurst  int
	ratePerSec float64
}

func New(opts Options) (*API, error) {
	if opts.Service == nil {
		return nil, errors.New("web: service is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("web: session store is required")
	}
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	a := &API{
		router:     mux.NewRouter(),
		svc:        opts.Service,
		sessions:   opts.Sessions,
		pages:      p,
		guard:      newSubmitGuard(time.Hour),
		ready:      opts.Ready,
		version:    opts.Version,
		rateBurst:  opts.RateBurst,
		ratePerSec: opts.RatePerSec,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 40
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 20
	}
	a.routes()
	return a, nil
}

func (a *API) routes() {
	r := a.router

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.Ready).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(staticHandler()).Methods(http.MethodGet)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, pathForm, http.StatusFound)
	}).Methods(http.MethodGet)

	r.HandleFunc(pathForm, a.showForm).Methods(http.MethodGet)
	r.HandleFunc(pathForm, a.submitForm).Methods(http.MethodPost)
	r.HandleFunc("/besoins/total", a.previewTotal).Methods(http.MethodGet)

	r.HandleFunc(pathMine, a.listMine).Methods(http.MethodGet)
	r.HandleFunc(pathMine+"/{id:[0-9]+}", a.showMine).Methods(http.MethodGet)
	r.HandleFunc(pathMine+"/{id:[0-9]+}/modifier", a.editMine).Methods(http.MethodGet)
	r.HandleFunc(pathMine+"/{id:[0-9]+}/modifier", a.updateMine).Methods(http.MethodPost)
	r.HandleFunc(pathMine+"/{id:[0-9]+}/supprimer", a.confirmDelete).Methods(http.MethodGet)
	r.HandleFunc(pathMine+"/{id:[0-9]+}/supprimer", a.deleteMine).Methods(http.MethodPost)

	chef := r.PathPrefix(pathReview).Subrouter()
	chef.Use(a.requireChef)
	chef.HandleFunc("", a.listReview).Methods(http.MethodGet)
	chef.HandleFunc("/{id:[0-9]+}", a.showReview).Methods(http.MethodGet)
	chef.HandleFunc("/{id:[0-9]+}/{action}", a.confirmTransition).Methods(http.MethodGet)
	chef.HandleFunc("/{id:[0-9]+}/{action}", a.applyTransition).Methods(http.MethodPost)

	r.HandleFunc(pathLogout, a.logout).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(a.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the root handler with the middleware chain applied.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.sessions.Middleware(h)
	h = obs.Instrument(h)
	h = MaxBodyBytes(h, maxFormBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}

// PublicPaths bypass the session middleware.
var PublicPaths = []string{"/healthz", "/readyz", "/metrics"}

// PublicPrefixes bypass the session middleware.
var PublicPrefixes = []string{"/static/"}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "esp-web",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := a.ready.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.audit(r.Context(), audit.EventLogout, nil)
	a.sessions.Logout(w, r)
}
