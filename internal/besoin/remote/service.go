package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"esp.org/internal/besoin"
)

// Service adapts Client to besoin.Service.
type Service struct {
	client *Client
}

var _ besoin.Service = (*Service)(nil)

func NewService(client *Client) *Service { return &Service{client: client} }

type rubriquesEnvelope struct {
	Rubriques []besoin.Rubrique `json:"rubriques"`
}

type besoinsEnvelope struct {
	Besoins []besoin.Besoin `json:"besoins"`
}

// record accepts either a bare besoin or {"besoin": {...}}. Mutation
// answers are informational, so an unrecognised shape decodes to a zero
// record instead of failing a call the API already accepted.
type record struct {
	besoin.Besoin
}

func (r *record) UnmarshalJSON(data []byte) error {
	var env struct {
		Besoin *besoin.Besoin `json:"besoin"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Besoin != nil {
		r.Besoin = *env.Besoin
		return nil
	}
	var b besoin.Besoin
	if err := json.Unmarshal(data, &b); err != nil {
		return nil
	}
	r.Besoin = b
	return nil
}

func (s *Service) Rubriques(ctx context.Context) ([]besoin.Rubrique, error) {
	var env rubriquesEnvelope
	if err := s.client.do(ctx, "rubriques", http.MethodGet, "/rubriques", nil, &env); err != nil {
		return nil, err
	}
	return env.Rubriques, nil
}

func (s *Service) Create(ctx context.Context, p besoin.Payload) (besoin.Besoin, error) {
	var out record
	if err := s.client.do(ctx, "create", http.MethodPost, "/besoins", p, &out); err != nil {
		return besoin.Besoin{}, err
	}
	return out.Besoin, nil
}

func (s *Service) ListMine(ctx context.Context) ([]besoin.Besoin, error) {
	var env besoinsEnvelope
	if err := s.client.do(ctx, "list_mine", http.MethodGet, "/mes-besoins", nil, &env); err != nil {
		return nil, err
	}
	return env.Besoins, nil
}

func (s *Service) ListAll(ctx context.Context) ([]besoin.Besoin, error) {
	var env besoinsEnvelope
	if err := s.client.do(ctx, "list_all", http.MethodGet, "/besoins", nil, &env); err != nil {
		return nil, err
	}
	return env.Besoins, nil
}

func (s *Service) Approve(ctx context.Context, id int64) (besoin.Besoin, error) {
	var out record
	if err := s.client.do(ctx, "approve", http.MethodPut, itemPath(id)+"/valider", struct{}{}, &out); err != nil {
		return besoin.Besoin{}, err
	}
	return out.Besoin, nil
}

func (s *Service) Reject(ctx context.Context, id int64) (besoin.Besoin, error) {
	var out record
	if err := s.client.do(ctx, "reject", http.MethodPut, itemPath(id)+"/rejeter", struct{}{}, &out); err != nil {
		return besoin.Besoin{}, err
	}
	return out.Besoin, nil
}

func (s *Service) Update(ctx context.Context, id int64, p besoin.Payload) (besoin.Besoin, error) {
	var out record
	if err := s.client.do(ctx, "update", http.MethodPut, itemPath(id), p, &out); err != nil {
		return besoin.Besoin{}, err
	}
	return out.Besoin, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, "delete", http.MethodDelete, itemPath(id), nil, nil)
}

func itemPath(id int64) string {
	return "/besoins/" + strconv.FormatInt(id, 10)
}
