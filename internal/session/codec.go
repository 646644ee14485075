// Package session holds the bearer token and user identity handed over by the
// login application, persisted in a signed cookie for the browser session.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "esp-web"

var (
	// ErrInvalidSession indicates a cookie that failed verification.
	ErrInvalidSession = errors.New("session: invalid")
	errMissingSecret  = errors.New("session: secret is not configured")
)

// Session is the per-browser state: an opaque bearer token for the remote
// API plus the decoded user.
type Session struct {
	ID       string
	Token    string
	User     User
	IssuedAt time.Time
}

// New mints a session with a fresh identifier.
func New(token string, user User) Session {
	return Session{
		ID:       uuid.NewString(),
		Token:    strings.TrimSpace(token),
		User:     user,
		IssuedAt: time.Now().UTC(),
	}
}

// Role returns the user role, defaulting to RoleEmployee.
func (s Session) Role() Role {
	if s.User.Role == "" {
		return RoleEmployee
	}
	return s.User.Role
}

type claims struct {
	Token string `json:"tok"`
	User  User   `json:"usr"`
	jwt.RegisteredClaims
}

// Codec signs and verifies sessions as HS256 JWTs.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec returns a codec keyed with secret.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errMissingSecret
	}
	return &Codec{secret: secret, issuer: defaultIssuer}, nil
}

// Encode signs s.
func (c *Codec) Encode(s Session) (string, error) {
	if strings.TrimSpace(s.Token) == "" {
		return "", errors.New("session: token is required")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.IssuedAt.IsZero() {
		s.IssuedAt = time.Now().UTC()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Token: s.Token,
		User:  s.User,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   c.issuer,
			ID:       s.ID,
			IssuedAt: jwt.NewNumericDate(s.IssuedAt),
		},
	})
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns the session it carries.
func (c *Codec) Decode(raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrInvalidSession
	}
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(c.issuer))
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || cl.Token == "" || cl.ID == "" {
		return Session{}, ErrInvalidSession
	}
	s := Session{ID: cl.ID, Token: cl.Token, User: cl.User}
	if cl.IssuedAt != nil {
		s.IssuedAt = cl.IssuedAt.Time
	}
	if s.User.Role == "" {
		s.User.Role = RoleEmployee
	}
	return s, nil
}
