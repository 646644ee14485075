package session

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	// DefaultCookieName is used when Options.CookieName is empty.
	DefaultCookieName = "esp_session"

	handoffTokenParam = "token"
	handoffUserParam  = "user"
)

// Options configures a Store.
type Options struct {
	CookieName string
	LoginURL   string
	Secure     bool
	// PublicPaths and PublicPrefixes bypass the session requirement.
	PublicPaths    []string
	PublicPrefixes []string
	// OnHandoff is called after a session was created from query parameters.
	OnHandoff func(ctx context.Context, s Session)
}

// Store persists sessions in a signed cookie and guards every page.
type Store struct {
	codec          *Codec
	cookieName     string
	loginURL       string
	secure         bool
	publicPaths    map[string]struct{}
	publicPrefixes []string
	onHandoff      func(ctx context.Context, s Session)
}

// NewStore builds a Store around codec.
func NewStore(codec *Codec, opts Options) *Store {
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	paths := make(map[string]struct{}, len(opts.PublicPaths))
	for _, p := range opts.PublicPaths {
		paths[p] = struct{}{}
	}
	return &Store{
		codec:          codec,
		cookieName:     name,
		loginURL:       opts.LoginURL,
		secure:         opts.Secure,
		publicPaths:    paths,
		publicPrefixes: opts.PublicPrefixes,
		onHandoff:      opts.OnHandoff,
	}
}

// Middleware consumes a login hand-off, loads the cookie session, and
// redirects to the login origin when none exists.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		q := r.URL.Query()
		token := strings.TrimSpace(q.Get(handoffTokenParam))
		rawUser := q.Get(handoffUserParam)
		if token != "" && rawUser != "" {
			sess := New(token, DecodeUser(rawUser))
			if err := s.Save(w, sess); err != nil {
				http.Error(w, "session error", http.StatusInternalServerError)
				return
			}
			if s.onHandoff != nil {
				s.onHandoff(ContextWithSession(r.Context(), sess), sess)
			}
			q.Del(handoffTokenParam)
			q.Del(handoffUserParam)
			http.Redirect(w, r, cleanTarget(r.URL, q), http.StatusSeeOther)
			return
		}

		sess, ok := s.Load(r)
		if !ok {
			http.Redirect(w, r, s.loginURL, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}

// Load reads and verifies the session cookie.
func (s *Store) Load(r *http.Request) (Session, bool) {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return Session{}, false
	}
	sess, err := s.codec.Decode(c.Value)
	if err != nil {
		return Session{}, false
	}
	return sess, true
}

// Save writes sess into the cookie, replacing any previous session.
func (s *Store) Save(w http.ResponseWriter, sess Session) error {
	value, err := s.codec.Encode(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout clears the cookie and sends the browser to the login origin.
func (s *Store) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.loginURL, http.StatusFound)
}

func (s *Store) isPublic(path string) bool {
	if _, ok := s.publicPaths[path]; ok {
		return true
	}
	for _, prefix := range s.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// cleanTarget rebuilds the hand-off target as a same-origin path. Leading
// slashes and backslashes are collapsed so that "//host/x" cannot turn into
// a protocol-relative redirect.
func cleanTarget(u *url.URL, q url.Values) string {
	target := path.Clean("/" + strings.TrimLeft(u.Path, `/\`))
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	return target
}
