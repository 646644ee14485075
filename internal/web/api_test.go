package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"esp.org/internal/besoin"
	"esp.org/internal/session"
)

const testLoginURL = "http://login.test/"

type fakeService struct {
	mu sync.Mutex

	rubriques []besoin.Rubrique
	mine      []besoin.Besoin
	all       []besoin.Besoin

	listErr       error
	createErr     error
	updateErr     error
	deleteErr     error
	transitionErr error

	createCalls int
	created     []besoin.Payload
	updated     map[int64]besoin.Payload
	deleted     []int64
	transitions []string
}

func newFakeService() *fakeService {
	return &fakeService{
		rubriques: []besoin.Rubrique{{ID: "1", Name: "Matériel informatique"}, {ID: "2", Name: "Formation"}},
		updated:   make(map[int64]besoin.Payload),
	}
}

func (f *fakeService) Rubriques(context.Context) ([]besoin.Rubrique, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]besoin.Rubrique(nil), f.rubriques...), nil
}

func (f *fakeService) Create(_ context.Context, p besoin.Payload) (besoin.Besoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return besoin.Besoin{}, f.createErr
	}
	f.created = append(f.created, p)
	return besoin.Besoin{ID: int64(len(f.created)), Status: besoin.StatusPending}, nil
}

func (f *fakeService) ListMine(context.Context) ([]besoin.Besoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]besoin.Besoin(nil), f.mine...), nil
}

func (f *fakeService) ListAll(context.Context) ([]besoin.Besoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]besoin.Besoin(nil), f.all...), nil
}

func (f *fakeService) setStatus(op string, id int64, st besoin.Status) (besoin.Besoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, op)
	if f.transitionErr != nil {
		return besoin.Besoin{}, f.transitionErr
	}
	for i := range f.all {
		if f.all[i].ID == id {
			f.all[i].Status = st
			return f.all[i], nil
		}
	}
	return besoin.Besoin{}, besoin.ErrNotFound
}

func (f *fakeService) Approve(_ context.Context, id int64) (besoin.Besoin, error) {
	return f.setStatus("approve", id, besoin.StatusValidated)
}

func (f *fakeService) Reject(_ context.Context, id int64) (besoin.Besoin, error) {
	return f.setStatus("reject", id, besoin.StatusRejected)
}

func (f *fakeService) Update(_ context.Context, id int64, p besoin.Payload) (besoin.Besoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return besoin.Besoin{}, f.updateErr
	}
	f.updated[id] = p
	return besoin.Besoin{ID: id}, nil
}

func (f *fakeService) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type harness struct {
	t       *testing.T
	handler http.Handler
	store   *session.Store
	cookie  *http.Cookie
}

func newHarness(t *testing.T, svc besoin.Service, role session.Role) *harness {
	t.Helper()
	codec, err := session.NewCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	store := session.NewStore(codec, session.Options{
		LoginURL:       testLoginURL,
		PublicPaths:    PublicPaths,
		PublicPrefixes: PublicPrefixes,
	})
	api, err := New(Options{
		Service:    svc,
		Sessions:   store,
		Version:    "test",
		RateBurst:  1000,
		RatePerSec: 1000,
	})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}

	h := &harness{t: t, handler: api.Handler(), store: store}
	if role != "" {
		rec := httptest.NewRecorder()
		sess := session.New("token-"+string(role), session.User{ID: "u1", Nom: "Diallo", Prenom: "Awa", Role: role})
		if err := store.Save(rec, sess); err != nil {
			t.Fatalf("save session: %v", err)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected one cookie, got %d", len(cookies))
		}
		h.cookie = cookies[0]
	}
	return h
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return h.serve(req)
}

func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.serve(req)
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	req.RemoteAddr = "192.0.2.10:5555"
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

var nonceRE = regexp.MustCompile(`name="nonce" value="([^"]+)"`)

func nonceFrom(t *testing.T, body string) string {
	t.Helper()
	m := nonceRE.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no nonce in page")
	}
	return m[1]
}

func expectRedirect(t *testing.T, rr *httptest.ResponseRecorder, code int, location string) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func TestMissingSessionRedirectsToLogin(t *testing.T) {
	h := newHarness(t, newFakeService(), "")
	expectRedirect(t, h.get("/mes-besoins"), http.StatusFound, testLoginURL)
}

func TestHandoffStoresSessionAndCleansURL(t *testing.T) {
	h := newHarness(t, newFakeService(), "")
	q := url.Values{
		"token": {"abc"},
		"user":  {`{"id":3,"nom":"Ba","role":"chef"}`},
		"tab":   {"x"},
	}
	rr := h.get("/gestion?" + q.Encode())
	expectRedirect(t, rr, http.StatusSeeOther, "/gestion?tab=x")

	var found bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie")
	}
}

func TestRootRedirectsToForm(t *testing.T) {
	h := newHarness(t, newFakeService(), session.RoleEmployee)
	expectRedirect(t, h.get("/"), http.StatusFound, "/besoins/nouveau")
}

func TestHealthzIsPublic(t *testing.T) {
	h := newHarness(t, newFakeService(), "")
	rr := h.get("/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
	if rr := h.get("/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rr.Code)
	}
}

func TestStaticAssetsArePublic(t *testing.T) {
	h := newHarness(t, newFakeService(), "")
	rr := h.get("/static/app.js")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestNavigationDependsOnRole(t *testing.T) {
	tests := []struct {
		role   session.Role
		review bool
	}{
		{role: session.RoleEmployee, review: false},
		{role: session.RoleChef, review: true},
	}
	for _, tt := range tests {
		h := newHarness(t, newFakeService(), tt.role)
		body := h.get("/besoins/nouveau").Body.String()
		for _, item := range []string{"Exprimer un besoin", "Mes Besoins", "Déconnexion"} {
			if !strings.Contains(body, item) {
				t.Fatalf("%s: menu lacks %q", tt.role, item)
			}
		}
		if got := strings.Contains(body, "Gestion des besoins"); got != tt.review {
			t.Fatalf("%s: review entry shown=%v", tt.role, got)
		}
		if !strings.Contains(body, "Awa Diallo") {
			t.Fatalf("%s: user name missing", tt.role)
		}
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newHarness(t, newFakeService(), session.RoleEmployee)
	rr := h.get("/deconnexion")
	expectRedirect(t, rr, http.StatusFound, testLoginURL)
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected cookie removal, got %+v", cookies)
	}
}

func TestUnknownPage(t *testing.T) {
	h := newHarness(t, newFakeService(), session.RoleEmployee)
	rr := h.get("/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestReadyProbe(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer up.Close()
	if err := (ReadyProbe{URL: up.URL}).Check(context.Background()); err != nil {
		t.Fatalf("reachable upstream should be ready: %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	if err := (ReadyProbe{URL: down.URL}).Check(context.Background()); err == nil {
		t.Fatal("expected not ready on 5xx")
	}
}
