package services

import (
	"context"
	"testing"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/lib/logger"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUsers_CRUD(t *testing.T) {
	store := newStore(t)
	users := NewUsers(logger.Discard(), store)
	ctx := context.Background()
	admin := addUser(t, store, entity.RoleAdmin)

	created, err := users.CreateUser(ctx, admin, UserInput{
		Email:    "  Vereador@Ubaporanga.com.br ",
		Name:     "João",
		Password: "senha-forte",
		Role:     entity.RoleCouncilor,
	})
	require.NoError(t, err)
	assert.Equal(t, "vereador@ubaporanga.com.br", created.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword(created.PassHash, []byte("senha-forte")))

	_, err = users.CreateUser(ctx, admin, UserInput{Email: created.Email, Name: "Outro", Password: "x", Role: entity.RoleCouncilor})
	assert.ErrorIs(t, err, ErrConflict)

	list, err := users.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	updated, err := users.UpdateUser(ctx, admin, created.ID, UserInput{
		Email: created.Email, Name: "João Silva", Password: "nova-senha", Role: entity.RoleCouncilor,
	})
	require.NoError(t, err)
	assert.Equal(t, "João Silva", updated.Name)

	stored, err := store.UserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PassHash, []byte("nova-senha")))

	// No password keeps the current hash.
	_, err = users.UpdateUser(ctx, admin, created.ID, UserInput{Email: created.Email, Name: "João", Role: entity.RoleCouncilor})
	require.NoError(t, err)
	stored, err = store.UserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PassHash, []byte("nova-senha")))

	require.NoError(t, users.DeleteUser(ctx, admin, created.ID))
	assert.ErrorIs(t, users.DeleteUser(ctx, admin, created.ID), ErrNotFound)
}

func TestUsers_Validation(t *testing.T) {
	store := newStore(t)
	users := NewUsers(logger.Discard(), store)
	ctx := context.Background()
	admin := addUser(t, store, entity.RoleAdmin)
	councilor := addUser(t, store, entity.RoleCouncilor)

	tests := []struct {
		name string
		in   UserInput
	}{
		{"missing name", UserInput{Email: gofakeit.Email(), Password: "x", Role: entity.RoleAdmin}},
		{"bad email", UserInput{Email: "not-an-email", Name: "A", Password: "x", Role: entity.RoleAdmin}},
		{"bad role", UserInput{Email: gofakeit.Email(), Name: "A", Password: "x", Role: "MAYOR"}},
		{"missing password", UserInput{Email: gofakeit.Email(), Name: "A", Role: entity.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.CreateUser(ctx, admin, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := users.ListUsers(ctx, councilor)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = users.UpdateUser(ctx, admin, "missing", UserInput{Email: gofakeit.Email(), Name: "A", Role: entity.RoleAdmin})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_DeleteRefusals(t *testing.T) {
	s := newSuite(t)
	users := NewUsers(logger.Discard(), s.store)
	ctx := context.Background()
	bill := s.addBill(t, entity.BillStatusActive, nil, nil)

	s.publisher.EXPECT().PublishVote(bill.ID, gomock.Any())
	_, err := s.voting.CastVote(ctx, s.councilor, bill.ID, entity.VoteYes)
	require.NoError(t, err)

	err = users.DeleteUser(ctx, s.admin, s.admin.UserID)
	assert.ErrorIs(t, err, ErrConflict)

	other := addUser(t, s.store, entity.RoleAdmin)
	err = users.DeleteUser(ctx, other, s.admin.UserID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "user has bills or votes", Reason(err))

	err = users.DeleteUser(ctx, s.admin, s.councilor.UserID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUsers_SeedIsIdempotent(t *testing.T) {
	store := newStore(t)
	users := NewUsers(logger.Discard(), store)
	ctx := context.Background()

	seed := []UserInput{
		{Email: "admin@ubaporanga.com.br", Name: "Administrador", Password: "Camara2025", Role: entity.RoleAdmin},
		{Email: "usuario@ubaporanga.com.br", Name: "Usuário Teste", Password: "usertest", Role: entity.RoleCouncilor},
		{Email: "sem-senha@ubaporanga.com.br", Name: "Sem Senha", Role: entity.RoleCouncilor},
	}
	require.NoError(t, users.Seed(ctx, seed...))
	require.NoError(t, users.Seed(ctx, seed...))

	all, err := store.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
