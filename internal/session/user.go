package session

import (
	"encoding/json"
	"strings"
)

// Role gates navigation affordances only; the remote API enforces access.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleChef     Role = "chef"
)

// User is the identity payload handed over by the login application.
type User struct {
	ID     string `json:"id,omitempty"`
	Nom    string `json:"nom,omitempty"`
	Prenom string `json:"prenom,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
}

// DisplayName joins first and last name, falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.Prenom) + " " + strings.TrimSpace(u.Nom))
	if name == "" {
		return u.Email
	}
	return name
}

// IsChef reports whether the user reviews requests.
func (u User) IsChef() bool { return u.Role == RoleChef }

// DecodeUser parses the JSON user payload. It never fails: a malformed
// payload, or one without a role, yields RoleEmployee.
func DecodeUser(raw string) User {
	var wire struct {
		ID     json.RawMessage `json:"id"`
		Nom    string          `json:"nom"`
		Prenom string          `json:"prenom"`
		Email  string          `json:"email"`
		Role   string          `json:"role"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return User{Role: RoleEmployee}
	}
	u := User{
		ID:     rawID(wire.ID),
		Nom:    wire.Nom,
		Prenom: wire.Prenom,
		Email:  wire.Email,
		Role:   normalizeRole(wire.Role),
	}
	return u
}

func normalizeRole(r string) Role {
	r = strings.TrimSpace(strings.ToLower(r))
	if r == "" {
		return RoleEmployee
	}
	return Role(r)
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
