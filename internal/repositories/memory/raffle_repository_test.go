package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRaffleRepositoryAssignsSequentialSeq(t *testing.T) {
	repo := NewRaffleRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		raffle := &models.Raffle{Creator: "0xa", Status: models.RaffleStatusPending}
		require.NoError(t, repo.Create(ctx, raffle))
		require.Equal(t, int64(i+1), raffle.Seq)
		require.False(t, raffle.ID.IsZero())
	}

	all, err := repo.FindAll(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, int64(1), all[0].Seq)
	require.Equal(t, int64(3), all[2].Seq)
}

func TestRaffleRepositoryClonesOnRead(t *testing.T) {
	repo := NewRaffleRepository()
	ctx := context.Background()

	raffle := &models.Raffle{
		Creator: "0xa",
		Status:  models.RaffleStatusOpen,
		Entries: []models.TicketPurchase{{Buyer: "0xb", Count: 1}},
	}
	require.NoError(t, repo.Create(ctx, raffle))

	got, err := repo.FindByID(ctx, raffle.ID)
	require.NoError(t, err)
	got.Entries[0].Buyer = "0xmutated"
	got.Status = models.RaffleStatusSettled

	again, err := repo.FindByID(ctx, raffle.ID)
	require.NoError(t, err)
	require.Equal(t, "0xb", again.Entries[0].Buyer)
	require.Equal(t, models.RaffleStatusOpen, again.Status)
}

func TestRaffleRepositoryFindExpiredOpen(t *testing.T) {
	repo := NewRaffleRepository()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	expired := &models.Raffle{Status: models.RaffleStatusOpen, EndTime: now.Add(-time.Minute)}
	running := &models.Raffle{Status: models.RaffleStatusOpen, EndTime: now.Add(time.Hour)}
	settled := &models.Raffle{Status: models.RaffleStatusSettled, EndTime: now.Add(-time.Hour)}
	for _, r := range []*models.Raffle{expired, running, settled} {
		require.NoError(t, repo.Create(ctx, r))
	}

	due, err := repo.FindExpiredOpen(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, expired.ID, due[0].ID)
}

func TestRaffleRepositoryPagination(t *testing.T) {
	repo := NewRaffleRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Raffle{Status: models.RaffleStatusOpen}))
	}

	page2, err := repo.FindAll(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.Equal(t, int64(3), page2[0].Seq)

	page3, err := repo.FindAll(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
}

func TestRaffleRepositoryNotFound(t *testing.T) {
	repo := NewRaffleRepository()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, repositories.ErrNotFound)

	err = repo.Update(ctx, &models.Raffle{ID: primitive.NewObjectID()})
	require.ErrorIs(t, err, repositories.ErrNotFound)
}
