package services

import (
	"context"
	"testing"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/export"
	"github.com/14kear/council-voting/internal/lib/logger"
	"github.com/14kear/council-voting/internal/repo/storage"
	"github.com/14kear/council-voting/internal/services/mocks"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

type suite struct {
	store     *storage.Storage
	voting    *Voting
	publisher *mocks.MockPublisher
	admin     entity.Principal
	councilor entity.Principal
}

func newStore(t *testing.T) *storage.Storage {
	t.Helper()

	store, err := storage.New(storage.DriverSQLite, storage.MemoryDSN, nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newSuite(t *testing.T) *suite {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := newStore(t)
	publisher := mocks.NewMockPublisher(ctrl)

	voting := NewVoting(logger.Discard(), store, store, publisher,
		export.NewRenderer("Câmara de Vereadores de Ubaporanga", time.UTC), prometheus.NewRegistry())
	voting.now = func() time.Time { return fixedNow }

	return &suite{
		store:     store,
		voting:    voting,
		publisher: publisher,
		admin:     addUser(t, store, entity.RoleAdmin),
		councilor: addUser(t, store, entity.RoleCouncilor),
	}
}

func addUser(t *testing.T, store *storage.Storage, role entity.Role) entity.Principal {
	t.Helper()

	user := entity.User{
		Email:    gofakeit.Email(),
		Name:     gofakeit.Name(),
		PassHash: []byte("not-a-real-hash"),
		Role:     role,
	}
	require.NoError(t, store.SaveUser(context.Background(), &user))
	return user.Principal()
}

func (s *suite) addBill(t *testing.T, status entity.BillStatus, start, end *time.Time) entity.Bill {
	t.Helper()

	bill := entity.Bill{
		Title:       "PL " + gofakeit.Numerify("###/2025"),
		Description: "Dispõe sobre " + gofakeit.Word(),
		Status:      status,
		VotingStart: start,
		VotingEnd:   end,
		AuthorID:    s.admin.UserID,
	}
	require.NoError(t, s.store.SaveBill(context.Background(), &bill))
	return bill
}

func ptr(t time.Time) *time.Time {
	return &t
}
