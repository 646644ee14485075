// Package besoin models expense/need requests, the rules the front-end
// applies to them, and the contract of the remote API that stores them.
package besoin

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"esp.org/internal/session"
)

// Service is the remote API as seen by the front-end. Every call reads the
// caller's bearer token from the context; authorization is the
// implementation's business.
type Service interface {
	Rubriques(ctx context.Context) ([]Rubrique, error)
	Create(ctx context.Context, p Payload) (Besoin, error)
	ListMine(ctx context.Context) ([]Besoin, error)
	ListAll(ctx context.Context) ([]Besoin, error)
	Approve(ctx context.Context, id int64) (Besoin, error)
	Reject(ctx context.Context, id int64) (Besoin, error)
	Update(ctx context.Context, id int64, p Payload) (Besoin, error)
	Delete(ctx context.Context, id int64) error
}

// Transition calls Approve or Reject according to a.
func Transition(ctx context.Context, svc Service, id int64, a Action) (Besoin, error) {
	switch a {
	case ActionValidate:
		return svc.Approve(ctx, id)
	case ActionReject:
		return svc.Reject(ctx, id)
	}
	return Besoin{}, ErrInvalidDraft
}

// DefaultRubriques seeds the in-memory backend.
var DefaultRubriques = []Rubrique{
	{ID: "1", Name: "Matériel informatique"},
	{ID: "2", Name: "Fournitures de bureau"},
	{ID: "3", Name: "Formation"},
	{ID: "4", Name: "Déplacement"},
}

type record struct {
	Besoin
	owner string
}

// InMemory implements Service in process. It enforces what the remote API
// enforces: ownership for edits and the chef role for review.
type InMemory struct {
	mu        sync.RWMutex
	seq       int64
	items     map[int64]*record
	rubriques []Rubrique
	now       func() time.Time
}

// NewInMemory creates an empty store with the given categories, or
// DefaultRubriques when none are passed.
func NewInMemory(rubriques ...Rubrique) *InMemory {
	if len(rubriques) == 0 {
		rubriques = DefaultRubriques
	}
	rs := make([]Rubrique, len(rubriques))
	copy(rs, rubriques)
	return &InMemory{
		items:     make(map[int64]*record),
		rubriques: rs,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemory) Rubriques(ctx context.Context) ([]Rubrique, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rubrique, len(s.rubriques))
	copy(out, s.rubriques)
	return out, nil
}

func (s *InMemory) Create(ctx context.Context, p Payload) (Besoin, error) {
	sess, err := caller(ctx)
	if err != nil {
		return Besoin{}, err
	}
	d := Draft{Rubrique: p.RubriqueID, Quantite: p.Quantite, Montant: p.Montant, Description: p.Description}
	if !d.Validate().OK() {
		return Besoin{}, ErrInvalidDraft
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	b := Besoin{
		ID:           s.seq,
		RubriqueID:   Ref(p.RubriqueID),
		RubriqueName: s.rubriqueName(p.RubriqueID),
		Quantite:     Number(ParseNumber(p.Quantite)),
		Montant:      Number(ParseNumber(p.Montant)),
		Total:        Number(p.Total),
		Description:  p.Description,
		Status:       StatusPending,
		SubmittedAt:  s.now().Format(time.RFC3339),
		OwnerNom:     sess.User.Nom,
		OwnerPrenom:  sess.User.Prenom,
	}
	s.items[b.ID] = &record{Besoin: b, owner: sess.Token}
	return b, nil
}

func (s *InMemory) ListMine(ctx context.Context) ([]Besoin, error) {
	sess, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.list(func(r *record) bool { return r.owner == sess.Token }), nil
}

func (s *InMemory) ListAll(ctx context.Context) ([]Besoin, error) {
	sess, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.User.IsChef() {
		return nil, ErrUnauthorized
	}
	return s.list(func(*record) bool { return true }), nil
}

func (s *InMemory) Approve(ctx context.Context, id int64) (Besoin, error) {
	return s.setStatus(ctx, id, StatusValidated)
}

func (s *InMemory) Reject(ctx context.Context, id int64) (Besoin, error) {
	return s.setStatus(ctx, id, StatusRejected)
}

func (s *InMemory) Update(ctx context.Context, id int64, p Payload) (Besoin, error) {
	sess, err := caller(ctx)
	if err != nil {
		return Besoin{}, err
	}
	d := Draft{Quantite: p.Quantite, Montant: p.Montant, Description: p.Description}
	if !d.ValidateEdit().OK() {
		return Besoin{}, ErrInvalidDraft
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return Besoin{}, ErrNotFound
	}
	if r.owner != sess.Token {
		return Besoin{}, ErrUnauthorized
	}
	if p.RubriqueID != "" {
		r.RubriqueID = Ref(p.RubriqueID)
		r.RubriqueName = s.rubriqueName(p.RubriqueID)
	}
	r.Quantite = Number(ParseNumber(p.Quantite))
	r.Montant = Number(ParseNumber(p.Montant))
	r.Total = Number(p.Total)
	r.Description = p.Description
	return r.Besoin, nil
}

func (s *InMemory) Delete(ctx context.Context, id int64) error {
	sess, err := caller(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if r.owner != sess.Token {
		return ErrUnauthorized
	}
	delete(s.items, id)
	return nil
}

func (s *InMemory) setStatus(ctx context.Context, id int64, st Status) (Besoin, error) {
	sess, err := caller(ctx)
	if err != nil {
		return Besoin{}, err
	}
	if !sess.User.IsChef() {
		return Besoin{}, ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return Besoin{}, ErrNotFound
	}
	r.Status = st
	return r.Besoin, nil
}

// list returns matching records in insertion order.
func (s *InMemory) list(keep func(*record) bool) []Besoin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Besoin, 0, len(s.items))
	for _, r := range s.items {
		if keep(r) {
			out = append(out, r.Besoin)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// rubriqueName must be called with s.mu held.
func (s *InMemory) rubriqueName(id string) string {
	for _, r := range s.rubriques {
		if string(r.ID) == id {
			return r.Name
		}
	}
	return id
}

func caller(ctx context.Context) (session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok || sess.Token == "" {
		return session.Session{}, ErrNoSession
	}
	return sess, nil
}

// ParseID parses a path identifier.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
