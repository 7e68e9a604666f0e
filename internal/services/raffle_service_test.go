package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories/memory"
	"github.com/Heesho/raffle-fun-backend/pkg/assetregistry"
	"github.com/Heesho/raffle-fun-backend/pkg/ledger"
	"github.com/Heesho/raffle-fun-backend/pkg/randomness"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testToken        = "0xusdc"
	testFeeRecipient = "0xfee"
	testCreator      = "0xcreator"
	testPrizeNFT     = "0xnft"
	testTicketPrice  = int64(10)
	testEntryFee     = int64(15)
)

type fixture struct {
	now        time.Time
	raffleRepo *memory.RaffleRepository
	eventRepo  *memory.RaffleEventRepository
	policyRepo *memory.PolicyRepository
	bank       *ledger.MockLedger
	assets     *assetregistry.MockRegistry
	raffles    *RaffleServiceImpl
	factory    *FactoryServiceImpl
}

func newFixture(t *testing.T, seeds ...uint64) *fixture {
	t.Helper()
	f := &fixture{
		now:        time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		raffleRepo: memory.NewRaffleRepository(),
		eventRepo:  memory.NewRaffleEventRepository(),
		policyRepo: memory.NewPolicyRepository(),
		bank:       ledger.NewMockLedger(),
		assets:     assetregistry.NewMockRegistry(),
	}
	var src randomness.Source = randomness.NewCryptoSource()
	if len(seeds) > 0 {
		src = randomness.NewFixedSource(seeds...)
	}
	f.raffles = NewRaffleService(f.raffleRepo, f.eventRepo, f.bank, f.assets, src)
	f.raffles.now = func() time.Time { return f.now }
	f.factory = NewFactoryService(f.raffleRepo, f.policyRepo, f.eventRepo, f.assets)
	f.factory.now = func() time.Time { return f.now }

	err := f.policyRepo.Put(context.Background(), &models.Policy{
		Token:        testToken,
		FeeRecipient: testFeeRecipient,
		MinDuration:  3600,
		EntryFee:     testEntryFee,
		TicketPrice:  testTicketPrice,
	})
	require.NoError(t, err)
	return f
}

// openRaffle mints a prize to the creator and deploys a one-hour raffle.
func (f *fixture) openRaffle(t *testing.T, tokenID int64) *models.Raffle {
	t.Helper()
	f.assets.MintAsset(testPrizeNFT, tokenID, testCreator)
	raffle, err := f.factory.CreateRaffle(context.Background(), testCreator, testPrizeNFT, tokenID, 3600)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusOpen, raffle.Status)
	return raffle
}

func (f *fixture) buy(t *testing.T, raffle *models.Raffle, buyer string, count int64) {
	t.Helper()
	f.bank.Mint(buyer, count*testTicketPrice)
	_, err := f.raffles.BuyTickets(context.Background(), raffle.ID, buyer, count)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, account string) int64 {
	t.Helper()
	bal, err := f.bank.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return bal
}

func (f *fixture) eventTypes(t *testing.T, raffleID primitive.ObjectID) []models.RaffleEventType {
	t.Helper()
	events, err := f.eventRepo.FindByRaffleID(context.Background(), raffleID, 1, 100)
	require.NoError(t, err)
	types := make([]models.RaffleEventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestBuyTicketsAssignsContiguousIntervals(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	f.buy(t, raffle, "0xalice", 3)
	f.buy(t, raffle, "0xbob", 2)
	f.buy(t, raffle, "0xalice", 1)

	got, err := f.raffles.GetRaffle(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6), got.TotalTickets)
	require.Len(t, got.Entries, 3)

	// Entry intervals partition [0, TotalTickets) in purchase order.
	var next int64
	for _, entry := range got.Entries {
		require.Equal(t, next, entry.Offset)
		next += entry.Count
	}
	require.Equal(t, got.TotalTickets, next)

	// Funds sit in the raffle's escrow account until settlement.
	require.Equal(t, int64(60), f.balance(t, escrowAccount(raffle.ID)))

	alice, err := f.raffles.TicketsOf(context.Background(), raffle.ID, "0xAlice")
	require.NoError(t, err)
	require.Equal(t, int64(4), alice)
}

func TestBuyTicketsAfterCloseRejected(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	f.now = f.now.Add(2 * time.Hour)
	f.bank.Mint("0xalice", 100)
	_, err := f.raffles.BuyTickets(context.Background(), raffle.ID, "0xalice", 1)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestBuyTicketsInsufficientFundsLeavesNoEntry(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	_, err := f.raffles.BuyTickets(context.Background(), raffle.ID, "0xpoor", 5)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	got, err := f.raffles.GetRaffle(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Empty(t, got.Entries)
	require.Zero(t, got.TotalTickets)
}

func TestBuyTicketsRejectsNonPositiveCount(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	_, err := f.raffles.BuyTickets(context.Background(), raffle.ID, "0xalice", 0)
	require.Error(t, err)
	_, err = f.raffles.BuyTickets(context.Background(), raffle.ID, "0xalice", -3)
	require.Error(t, err)
}

func TestDrawBeforeEndRejected(t *testing.T) {
	f := newFixture(t, 1)
	raffle := f.openRaffle(t, 1)
	f.buy(t, raffle, "0xalice", 1)

	_, err := f.raffles.Draw(context.Background(), raffle.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestDrawSelectsWinnerAndSettles(t *testing.T) {
	// Five tickets, seed 7: winning index 7 % 5 = 2, inside alice's
	// [0, 3) interval.
	f := newFixture(t, 7)
	raffle := f.openRaffle(t, 1)
	f.buy(t, raffle, "0xalice", 3)
	f.buy(t, raffle, "0xbob", 2)

	f.now = f.now.Add(2 * time.Hour)
	settled, err := f.raffles.Draw(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusSettled, settled.Status)
	require.Equal(t, "0xalice", settled.Winner)
	require.False(t, settled.DrawnAt.IsZero())

	// Collected 50: fee 15 to the platform, 35 proceeds to the creator,
	// prize to the winner, escrow drained.
	require.Equal(t, testEntryFee, f.balance(t, testFeeRecipient))
	require.Equal(t, int64(35), f.balance(t, testCreator))
	require.Zero(t, f.balance(t, escrowAccount(raffle.ID)))

	owner, err := f.assets.OwnerOf(context.Background(), testPrizeNFT, 1)
	require.NoError(t, err)
	require.Equal(t, "0xalice", owner)

	types := f.eventTypes(t, raffle.ID)
	require.Contains(t, types, models.EventWinnerSelected)
	require.Contains(t, types, models.EventSettled)
}

func TestDrawSeedEdges(t *testing.T) {
	t.Run("index zero wins first ticket", func(t *testing.T) {
		f := newFixture(t, 0)
		raffle := f.openRaffle(t, 1)
		f.buy(t, raffle, "0xalice", 2)
		f.buy(t, raffle, "0xbob", 3)

		f.now = f.now.Add(2 * time.Hour)
		settled, err := f.raffles.Draw(context.Background(), raffle.ID)
		require.NoError(t, err)
		require.Equal(t, "0xalice", settled.Winner)
	})

	t.Run("last index wins last ticket", func(t *testing.T) {
		f := newFixture(t, 4)
		raffle := f.openRaffle(t, 1)
		f.buy(t, raffle, "0xalice", 2)
		f.buy(t, raffle, "0xbob", 3)

		f.now = f.now.Add(2 * time.Hour)
		settled, err := f.raffles.Draw(context.Background(), raffle.ID)
		require.NoError(t, err)
		require.Equal(t, "0xbob", settled.Winner)
	})
}

func TestSecondDrawRejected(t *testing.T) {
	f := newFixture(t, 3)
	raffle := f.openRaffle(t, 1)
	f.buy(t, raffle, "0xalice", 4)

	f.now = f.now.Add(2 * time.Hour)
	_, err := f.raffles.Draw(context.Background(), raffle.ID)
	require.NoError(t, err)

	feePaid := f.balance(t, testFeeRecipient)
	creatorPaid := f.balance(t, testCreator)

	_, err = f.raffles.Draw(context.Background(), raffle.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)

	// The rejected draw moved no funds.
	require.Equal(t, feePaid, f.balance(t, testFeeRecipient))
	require.Equal(t, creatorPaid, f.balance(t, testCreator))
}

func TestDrawWithoutEntrantsRefundsPrize(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	f.now = f.now.Add(2 * time.Hour)
	settled, err := f.raffles.Draw(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusSettled, settled.Status)
	require.Empty(t, settled.Winner)

	owner, err := f.assets.OwnerOf(context.Background(), testPrizeNFT, 1)
	require.NoError(t, err)
	require.Equal(t, testCreator, owner)

	// No fee is charged when nothing was collected.
	require.Zero(t, f.balance(t, testFeeRecipient))

	types := f.eventTypes(t, raffle.ID)
	require.Contains(t, types, models.EventRefundedNoEntrants)
	require.NotContains(t, types, models.EventWinnerSelected)
}

func TestSettlementFeeCappedAtCollected(t *testing.T) {
	// One ticket at 10 against a flat fee of 15: the fee takes all
	// collected funds and the creator receives nothing.
	f := newFixture(t, 0)
	raffle := f.openRaffle(t, 1)
	f.buy(t, raffle, "0xalice", 1)

	f.now = f.now.Add(2 * time.Hour)
	settled, err := f.raffles.Draw(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusSettled, settled.Status)

	require.Equal(t, int64(10), f.balance(t, testFeeRecipient))
	require.Zero(t, f.balance(t, testCreator))
	require.Zero(t, f.balance(t, escrowAccount(raffle.ID)))
}

// failingLedger fails every outbound transfer to the configured account,
// simulating an adapter outage mid-settlement.
type failingLedger struct {
	*ledger.MockLedger
	failTo string
}

func (l *failingLedger) Transfer(ctx context.Context, from, to string, amount int64) error {
	if l.failTo != "" && to == l.failTo {
		return errors.New("rpc unavailable")
	}
	return l.MockLedger.Transfer(ctx, from, to, amount)
}

func TestSettlementRetryPreservesWinnerAndNeverDoublePays(t *testing.T) {
	f := newFixture(t, 7)
	flaky := &failingLedger{MockLedger: f.bank, failTo: testCreator}
	f.raffles.ledger = flaky

	raffle := f.openRaffle(t, 1)
	f.buy(t, raffle, "0xalice", 3)
	f.buy(t, raffle, "0xbob", 2)

	// The fee leg succeeds, the proceeds leg fails: the raffle stays in
	// DRAWING with the winner recorded.
	f.now = f.now.Add(2 * time.Hour)
	_, err := f.raffles.Draw(context.Background(), raffle.ID)
	require.Error(t, err)

	stuck, err := f.raffles.GetRaffle(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusDrawing, stuck.Status)
	require.Equal(t, "0xalice", stuck.Winner)
	require.True(t, stuck.FeePaid)
	require.False(t, stuck.ProceedsPaid)
	require.Equal(t, testEntryFee, f.balance(t, testFeeRecipient))

	// Retrying against the still-broken adapter changes nothing.
	_, err = f.raffles.RetrySettlement(context.Background(), raffle.ID)
	require.Error(t, err)
	require.Equal(t, testEntryFee, f.balance(t, testFeeRecipient))

	// Once the adapter recovers the retry completes with the same winner
	// and without paying the fee leg a second time.
	flaky.failTo = ""
	settled, err := f.raffles.RetrySettlement(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusSettled, settled.Status)
	require.Equal(t, "0xalice", settled.Winner)

	require.Equal(t, testEntryFee, f.balance(t, testFeeRecipient))
	require.Equal(t, int64(35), f.balance(t, testCreator))
	require.Zero(t, f.balance(t, escrowAccount(raffle.ID)))

	owner, err := f.assets.OwnerOf(context.Background(), testPrizeNFT, 1)
	require.NoError(t, err)
	require.Equal(t, "0xalice", owner)
}

func TestRetrySettlementRequiresPendingSettlement(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)

	_, err := f.raffles.RetrySettlement(context.Background(), raffle.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCancelPendingRaffleReturnsPrize(t *testing.T) {
	f := newFixture(t)

	// A PENDING raffle with the prize already in escrow, as left behind
	// when opening failed after the escrow transfer.
	raffle := &models.Raffle{
		Creator:       testCreator,
		PrizeContract: testPrizeNFT,
		PrizeTokenID:  9,
		Token:         testToken,
		TicketPrice:   testTicketPrice,
		EntryFee:      testEntryFee,
		FeeRecipient:  testFeeRecipient,
		Status:        models.RaffleStatusPending,
		Entries:       []models.TicketPurchase{},
	}
	require.NoError(t, f.raffleRepo.Create(context.Background(), raffle))
	f.assets.MintAsset(testPrizeNFT, 9, escrowAccount(raffle.ID))

	_, err := f.raffles.Cancel(context.Background(), raffle.ID, "0xstranger")
	require.ErrorIs(t, err, models.ErrUnauthorized)

	cancelled, err := f.raffles.Cancel(context.Background(), raffle.ID, testCreator)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusCancelled, cancelled.Status)

	owner, err := f.assets.OwnerOf(context.Background(), testPrizeNFT, 9)
	require.NoError(t, err)
	require.Equal(t, testCreator, owner)
}

// unavailableRegistry fails every ownership lookup, simulating a registry
// adapter outage.
type unavailableRegistry struct {
	*assetregistry.MockRegistry
}

func (r *unavailableRegistry) OwnerOf(context.Context, string, int64) (string, error) {
	return "", errors.New("rpc unavailable")
}

func TestCancelRegistryOutageLeavesRafflePending(t *testing.T) {
	f := newFixture(t)

	raffle := &models.Raffle{
		Creator:       testCreator,
		PrizeContract: testPrizeNFT,
		PrizeTokenID:  11,
		Token:         testToken,
		TicketPrice:   testTicketPrice,
		EntryFee:      testEntryFee,
		FeeRecipient:  testFeeRecipient,
		Status:        models.RaffleStatusPending,
		Entries:       []models.TicketPurchase{},
	}
	require.NoError(t, f.raffleRepo.Create(context.Background(), raffle))
	f.assets.MintAsset(testPrizeNFT, 11, escrowAccount(raffle.ID))

	// While the registry is down the cancel fails and the raffle stays
	// PENDING, so nothing terminal happens with the prize still escrowed.
	f.raffles.assets = &unavailableRegistry{MockRegistry: f.assets}
	_, err := f.raffles.Cancel(context.Background(), raffle.ID, testCreator)
	require.Error(t, err)

	stuck, err := f.raffles.GetRaffle(context.Background(), raffle.ID)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusPending, stuck.Status)

	owner, err := f.assets.OwnerOf(context.Background(), testPrizeNFT, 11)
	require.NoError(t, err)
	require.Equal(t, escrowAccount(raffle.ID), owner)

	// Once the registry recovers the same cancel succeeds and returns
	// the prize.
	f.raffles.assets = f.assets
	cancelled, err := f.raffles.Cancel(context.Background(), raffle.ID, testCreator)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusCancelled, cancelled.Status)

	owner, err = f.assets.OwnerOf(context.Background(), testPrizeNFT, 11)
	require.NoError(t, err)
	require.Equal(t, testCreator, owner)
}

func TestCancelWithPrizeStillHeldByCreator(t *testing.T) {
	f := newFixture(t)

	// Escrow never completed: the creator still owns the prize, so the
	// cancel needs no transfer at all.
	raffle := &models.Raffle{
		Creator:       testCreator,
		PrizeContract: testPrizeNFT,
		PrizeTokenID:  12,
		Token:         testToken,
		TicketPrice:   testTicketPrice,
		EntryFee:      testEntryFee,
		FeeRecipient:  testFeeRecipient,
		Status:        models.RaffleStatusPending,
		Entries:       []models.TicketPurchase{},
	}
	require.NoError(t, f.raffleRepo.Create(context.Background(), raffle))
	f.assets.MintAsset(testPrizeNFT, 12, testCreator)

	cancelled, err := f.raffles.Cancel(context.Background(), raffle.ID, testCreator)
	require.NoError(t, err)
	require.Equal(t, models.RaffleStatusCancelled, cancelled.Status)

	owner, err := f.assets.OwnerOf(context.Background(), testPrizeNFT, 12)
	require.NoError(t, err)
	require.Equal(t, testCreator, owner)
}

func TestCancelOpenRaffleRejected(t *testing.T) {
	f := newFixture(t)
	raffle := f.openRaffle(t, 1)
	f.buy(t, raffle, "0xalice", 1)

	_, err := f.raffles.Cancel(context.Background(), raffle.ID, testCreator)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestFindWinningEntry(t *testing.T) {
	entries := []models.TicketPurchase{
		{Buyer: "a", Offset: 0, Count: 3},
		{Buyer: "b", Offset: 3, Count: 1},
		{Buyer: "c", Offset: 4, Count: 5},
	}
	cases := map[int64]string{0: "a", 2: "a", 3: "b", 4: "c", 8: "c"}
	for index, want := range cases {
		require.Equal(t, want, findWinningEntry(entries, index).Buyer)
	}
}
