package web

import (
	"sync"
	"time"

	"esp.org/internal/ids"
)

type nonceState int

const (
	nonceFresh nonceState = iota
	nonceUsed
	nonceUnknown
	nonceBusy
)

const (
	// maxNoncesPerSession bounds the live nonces one session can hold; the
	// oldest is dropped when a new one is issued past the limit.
	maxNoncesPerSession = 32
	sweepInterval       = time.Minute
)

type nonceEntry struct {
	session string
	used    bool
	expires time.Time
}

// submitGuard hands out one-time form nonces and holds a per-session
// in-flight lock, so that repeated submits of one form create at most one
// request.
type submitGuard struct {
	mu        sync.Mutex
	ttl       time.Duration
	nonces    map[string]*nonceEntry
	bySession map[string][]string
	inflight  map[string]struct{}
	now       func() time.Time
	lastSweep time.Time
}

func newSubmitGuard(ttl time.Duration) *submitGuard {
	return &submitGuard{
		ttl:       ttl,
		nonces:    make(map[string]*nonceEntry),
		bySession: make(map[string][]string),
		inflight:  make(map[string]struct{}),
		now:       time.Now,
	}
}

// Issue returns a fresh nonce bound to sessionID.
func (g *submitGuard) Issue(sessionID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if now.Sub(g.lastSweep) > sweepInterval {
		g.sweep(now)
		g.lastSweep = now
	}
	n := ids.New()
	g.nonces[n] = &nonceEntry{session: sessionID, expires: now.Add(g.ttl)}
	live := append(g.bySession[sessionID], n)
	if len(live) > maxNoncesPerSession {
		for _, old := range live[:len(live)-maxNoncesPerSession] {
			delete(g.nonces, old)
		}
		live = append([]string(nil), live[len(live)-maxNoncesPerSession:]...)
	}
	g.bySession[sessionID] = live
	return n
}

// sweep drops expired nonces. Callers hold g.mu.
func (g *submitGuard) sweep(now time.Time) {
	for sid, live := range g.bySession {
		kept := live[:0]
		for _, n := range live {
			e, ok := g.nonces[n]
			if !ok {
				continue
			}
			if now.After(e.expires) {
				delete(g.nonces, n)
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			delete(g.bySession, sid)
			continue
		}
		g.bySession[sid] = kept
	}
}

// Begin claims the session's submit slot for nonce. When the returned state
// is nonceFresh the caller must call done exactly once; ok marks the nonce
// as spent.
func (g *submitGuard) Begin(sessionID, nonce string) (done func(ok bool), state nonceState) {
	if !ids.Valid(nonce) {
		return nil, nonceUnknown
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[sessionID]; busy {
		return nil, nonceBusy
	}
	e, found := g.nonces[nonce]
	if !found || e.session != sessionID || g.now().After(e.expires) {
		return nil, nonceUnknown
	}
	if e.used {
		return nil, nonceUsed
	}
	g.inflight[sessionID] = struct{}{}
	var once sync.Once
	return func(ok bool) {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.inflight, sessionID)
			if ok {
				e.used = true
			}
		})
	}, nonceFresh
}
