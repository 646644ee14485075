package besoin

import "errors"

var (
	// ErrTransport covers every failed call to the remote API: non-2xx
	// answers and network failures alike.
	ErrTransport    = errors.New("besoin: remote call failed")
	ErrNotFound     = errors.New("besoin: not found")
	ErrUnauthorized = errors.New("besoin: unauthorized")
	ErrInvalidDraft = errors.New("besoin: invalid draft")
	ErrNoSession    = errors.New("besoin: no session")
)

// IsTransport reports whether err came from the remote API layer.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
