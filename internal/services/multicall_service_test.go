package services

import (
	"context"
	"testing"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAggregatePreservesInputOrder(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)
	f.buy(t, raffle, "0xalice", 3)

	svc := NewMulticallService(f.raffleRepo, 4)
	calls := []MulticallCall{
		{RaffleID: raffle.ID.Hex(), Method: MulticallTotalTickets},
		{RaffleID: primitive.NewObjectID().Hex(), Method: MulticallStatus}, // unknown raffle
		{RaffleID: raffle.ID.Hex(), Method: MulticallStatus},
		{RaffleID: raffle.ID.Hex(), Method: "balanceOf"}, // unknown method
		{RaffleID: "not-an-id", Method: MulticallStatus},
		{RaffleID: raffle.ID.Hex(), Method: MulticallWinner},
	}
	results, err := svc.Aggregate(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, len(calls))

	require.True(t, results[0].OK)
	require.Equal(t, int64(3), results[0].Data)

	require.False(t, results[1].OK)
	require.NotEmpty(t, results[1].Error)

	require.True(t, results[2].OK)
	require.Equal(t, models.RaffleStatusOpen, results[2].Data)

	require.False(t, results[3].OK)
	require.Contains(t, results[3].Error, "unknown method")

	require.False(t, results[4].OK)
	require.Equal(t, "invalid raffle id", results[4].Error)

	require.True(t, results[5].OK)
	require.Equal(t, "", results[5].Data)
}

func TestAggregateConfigView(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	svc := NewMulticallService(f.raffleRepo, 4)
	results, err := svc.Aggregate(context.Background(), []MulticallCall{
		{RaffleID: raffle.ID.Hex(), Method: MulticallConfig},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].OK)

	view, ok := results[0].Data.(RaffleConfigView)
	require.True(t, ok)
	require.Equal(t, testCreator, view.Creator)
	require.Equal(t, testTicketPrice, view.TicketPrice)
	require.Equal(t, raffle.EndTime.Unix(), view.EndTime)
}

func TestAggregateEmptyBatch(t *testing.T) {
	f := newFixture(t)
	svc := NewMulticallService(f.raffleRepo, 4)
	results, err := svc.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestAggregateLargeBatch(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	// More calls than pool workers exercises queueing without reordering.
	svc := NewMulticallService(f.raffleRepo, 2)
	calls := make([]MulticallCall, 50)
	for i := range calls {
		calls[i] = MulticallCall{RaffleID: raffle.ID.Hex(), Method: MulticallStatus}
	}
	results, err := svc.Aggregate(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, 50)
	for _, result := range results {
		require.True(t, result.OK)
		require.Equal(t, models.RaffleStatusOpen, result.Data)
	}
}
