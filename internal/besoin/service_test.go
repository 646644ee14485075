package besoin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"esp.org/internal/session"
)

func ctxFor(token string, role session.Role) context.Context {
	return session.ContextWithSession(context.Background(), session.Session{
		ID:    "s-" + token,
		Token: token,
		User:  session.User{Nom: "Diallo", Prenom: token, Role: role},
	})
}

func validPayload() Payload {
	return Draft{Rubrique: "1", Quantite: "2", Montant: "150", Description: "Écran 27 pouces"}.Payload()
}

func TestInMemoryLifecycle(t *testing.T) {
	svc := NewInMemory()
	alice := ctxFor("alice", session.RoleEmployee)
	bob := ctxFor("bob", session.RoleEmployee)
	chef := ctxFor("chef", session.RoleChef)

	created, err := svc.Create(alice, validPayload())
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, "Matériel informatique", created.RubriqueName)
	require.Equal(t, 300.0, created.Total.Float())
	require.NotEmpty(t, created.SubmittedAt)

	_, err = svc.Create(bob, validPayload())
	require.NoError(t, err)

	mine, err := svc.ListMine(alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, created.ID, mine[0].ID)

	_, err = svc.ListAll(alice)
	require.ErrorIs(t, err, ErrUnauthorized)
	all, err := svc.ListAll(chef)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.Approve(alice, created.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	rejected, err := svc.Reject(chef, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)

	approved, err := svc.Approve(chef, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, approved.Status)
	require.Equal(t, []Action{ActionReject, ActionDetails}, AvailableActions(approved.Status))

	_, err = svc.Update(bob, created.ID, validPayload())
	require.ErrorIs(t, err, ErrUnauthorized)

	edit := DraftFrom(approved)
	edit.Quantite = "3"
	updated, err := svc.Update(alice, created.ID, edit.Payload())
	require.NoError(t, err)
	require.Equal(t, 450.0, updated.Total.Float())
	require.Equal(t, Ref("1"), updated.RubriqueID)

	require.ErrorIs(t, svc.Delete(bob, created.ID), ErrUnauthorized)
	require.NoError(t, svc.Delete(alice, created.ID))
	require.ErrorIs(t, svc.Delete(alice, created.ID), ErrNotFound)

	mine, err = svc.ListMine(alice)
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestInMemoryRejectsInvalidPayloadAndMissingSession(t *testing.T) {
	svc := NewInMemory()
	p := validPayload()
	p.Description = "court"
	_, err := svc.Create(ctxFor("a", session.RoleEmployee), p)
	require.ErrorIs(t, err, ErrInvalidDraft)

	_, err = svc.ListMine(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestTransition(t *testing.T) {
	svc := NewInMemory()
	created, err := svc.Create(ctxFor("a", session.RoleEmployee), validPayload())
	require.NoError(t, err)

	chef := ctxFor("chef", session.RoleChef)
	got, err := Transition(chef, svc, created.ID, ActionValidate)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, got.Status)

	_, err = Transition(chef, svc, created.ID, ActionDetails)
	require.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("7")
	require.True(t, ok)
	require.Equal(t, int64(7), id)
	for _, raw := range []string{"", "0", "-3", "x7"} {
		_, ok := ParseID(raw)
		require.False(t, ok, raw)
	}
}
