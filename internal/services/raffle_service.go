package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/Heesho/raffle-fun-backend/internal/utils"
	"github.com/Heesho/raffle-fun-backend/pkg/assetregistry"
	"github.com/Heesho/raffle-fun-backend/pkg/ledger"
	"github.com/Heesho/raffle-fun-backend/pkg/randomness"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RaffleServiceImpl implements RaffleService
var _ RaffleService = (*RaffleServiceImpl)(nil)

// escrowAccount returns the ledger/registry identity holding a raffle's
// escrowed funds and prize. Derived from the raffle ID so every instance
// gets its own account.
func escrowAccount(id primitive.ObjectID) string {
	return "raffle:" + id.Hex()
}

// RaffleServiceImpl owns the per-raffle state machine: ticket sales, fund
// custody, draw, and settlement. Mutating operations on the same raffle
// serialize on a per-instance lock so two concurrent draws can never both
// observe OPEN.
type RaffleServiceImpl struct {
	raffleRepo repositories.RaffleRepository
	eventRepo  repositories.RaffleEventRepository
	ledger     ledger.Ledger
	assets     assetregistry.Registry
	random     randomness.Source
	locks      sync.Map // raffle id hex -> *sync.Mutex
	now        func() time.Time
}

// NewRaffleService creates a new RaffleServiceImpl
func NewRaffleService(
	raffleRepo repositories.RaffleRepository,
	eventRepo repositories.RaffleEventRepository,
	tokenLedger ledger.Ledger,
	assets assetregistry.Registry,
	random randomness.Source,
) *RaffleServiceImpl {
	return &RaffleServiceImpl{
		raffleRepo: raffleRepo,
		eventRepo:  eventRepo,
		ledger:     tokenLedger,
		assets:     assets,
		random:     random,
		now:        time.Now,
	}
}

func (s *RaffleServiceImpl) lock(id primitive.ObjectID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id.Hex(), &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// BuyTickets sells count tickets to buyer on an open raffle.
func (s *RaffleServiceImpl) BuyTickets(ctx context.Context, raffleID primitive.ObjectID, buyer string, count int64) (*models.Raffle, error) {
	if count <= 0 {
		return nil, fmt.Errorf("ticket count must be positive, got %d", count)
	}
	buyer = utils.NormalizeAddress(buyer)

	mu := s.lock(raffleID)
	mu.Lock()
	defer mu.Unlock()

	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status != models.RaffleStatusOpen {
		return nil, fmt.Errorf("%w: raffle is %s", models.ErrInvalidState, raffle.Status)
	}
	if !s.now().Before(raffle.EndTime) {
		return nil, fmt.Errorf("%w: ticket sales have closed", models.ErrInvalidState)
	}

	// Ledger failures surface unchanged; no raffle state has moved yet.
	cost := count * raffle.TicketPrice
	if err := s.ledger.TransferFrom(ctx, buyer, escrowAccount(raffle.ID), cost); err != nil {
		return nil, err
	}

	raffle.Entries = append(raffle.Entries, models.TicketPurchase{
		Buyer:       buyer,
		Count:       count,
		Offset:      raffle.TotalTickets,
		PurchasedAt: s.now(),
	})
	raffle.TotalTickets += count
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to record entry: %w", err)
	}

	recordEvent(ctx, s.eventRepo, &models.RaffleEvent{
		RaffleID:     raffle.ID,
		Type:         models.EventEntryRecorded,
		Buyer:        buyer,
		Count:        count,
		TotalTickets: raffle.TotalTickets,
	})
	slog.Info("entry recorded", "raffleId", raffle.ID.Hex(), "buyer", buyer, "count", count, "totalTickets", raffle.TotalTickets)
	return raffle, nil
}

// Draw closes an expired raffle. With zero entrants the prize goes straight
// back to the creator and the raffle settles; otherwise a winner is picked
// from the ticket population and settlement runs in the same call. A second
// Draw on the same raffle observes the advanced status and fails with
// ErrInvalidState, which is what guards against double payout.
func (s *RaffleServiceImpl) Draw(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error) {
	mu := s.lock(raffleID)
	mu.Lock()
	defer mu.Unlock()

	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status != models.RaffleStatusOpen {
		return nil, fmt.Errorf("%w: raffle is %s", models.ErrInvalidState, raffle.Status)
	}
	now := s.now()
	if now.Before(raffle.EndTime) {
		return nil, fmt.Errorf("%w: raffle has not ended yet", models.ErrInvalidState)
	}

	if raffle.TotalTickets == 0 {
		return s.refundNoEntrants(ctx, raffle, now)
	}

	// Seed failures leave the raffle OPEN, so the draw can simply be retried.
	seed, err := s.random.NextSeed(ctx, raffle.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to obtain draw seed: %w", err)
	}
	winningIndex := int64(seed % uint64(raffle.TotalTickets))
	entry := findWinningEntry(raffle.Entries, winningIndex)

	raffle.Status = models.RaffleStatusDrawing
	raffle.Winner = entry.Buyer
	raffle.DrawnAt = now
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to record winner: %w", err)
	}

	recordEvent(ctx, s.eventRepo, &models.RaffleEvent{
		RaffleID:     raffle.ID,
		Type:         models.EventWinnerSelected,
		Winner:       raffle.Winner,
		TotalTickets: raffle.TotalTickets,
		Message:      fmt.Sprintf("seed=%d winningIndex=%d", seed, winningIndex),
	})
	slog.Info("winner selected", "raffleId", raffle.ID.Hex(), "winningIndex", winningIndex, "winner", raffle.Winner)

	// The winner is durable from here on. A settlement failure leaves the
	// raffle in DRAWING for RetrySettlement; the draw is never repeated.
	if err := s.settle(ctx, raffle); err != nil {
		recordEvent(ctx, s.eventRepo, &models.RaffleEvent{
			RaffleID: raffle.ID,
			Type:     models.EventSettlementFailed,
			Winner:   raffle.Winner,
			Message:  err.Error(),
		})
		slog.Error("settlement failed, raffle left in DRAWING", "raffleId", raffle.ID.Hex(), "error", err)
		return raffle, err
	}
	return raffle, nil
}

// RetrySettlement re-runs the settlement transfers of a raffle stuck in
// DRAWING. Legs that already succeeded are skipped via the persisted
// progress markers.
func (s *RaffleServiceImpl) RetrySettlement(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error) {
	mu := s.lock(raffleID)
	mu.Lock()
	defer mu.Unlock()

	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status != models.RaffleStatusDrawing || raffle.Winner == "" {
		return nil, fmt.Errorf("%w: no pending settlement for raffle in %s", models.ErrInvalidState, raffle.Status)
	}

	if err := s.settle(ctx, raffle); err != nil {
		recordEvent(ctx, s.eventRepo, &models.RaffleEvent{
			RaffleID: raffle.ID,
			Type:     models.EventSettlementFailed,
			Winner:   raffle.Winner,
			Message:  err.Error(),
		})
		return raffle, err
	}
	return raffle, nil
}

// Cancel aborts a raffle that never opened. Once any ticket has been sold
// the raffle is OPEN or beyond, so cancellation is impossible by
// construction and buyers are protected.
func (s *RaffleServiceImpl) Cancel(ctx context.Context, raffleID primitive.ObjectID, caller string) (*models.Raffle, error) {
	caller = utils.NormalizeAddress(caller)

	mu := s.lock(raffleID)
	mu.Lock()
	defer mu.Unlock()

	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if caller != raffle.Creator {
		return nil, fmt.Errorf("%w: only the creator may cancel", models.ErrUnauthorized)
	}
	if raffle.Status != models.RaffleStatusPending {
		return nil, fmt.Errorf("%w: cancel is only allowed before the raffle opens", models.ErrInvalidState)
	}

	// Return the prize unless the creator already holds it. A PENDING
	// raffle may exist without a completed escrow transfer. A registry
	// failure aborts the cancel: the raffle stays PENDING so the call can
	// be retried once the adapter recovers, instead of terminating with
	// the prize stranded in escrow.
	owner, err := s.assets.OwnerOf(ctx, raffle.PrizeContract, raffle.PrizeTokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify prize custody: %w", err)
	}
	if owner != raffle.Creator {
		if err := s.assets.Transfer(ctx, raffle.PrizeContract, escrowAccount(raffle.ID), raffle.Creator, raffle.PrizeTokenID); err != nil {
			return nil, err
		}
	}

	raffle.Status = models.RaffleStatusCancelled
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to record cancellation: %w", err)
	}
	recordEvent(ctx, s.eventRepo, &models.RaffleEvent{RaffleID: raffle.ID, Type: models.EventRaffleCancelled})
	slog.Info("raffle cancelled", "raffleId", raffle.ID.Hex(), "creator", raffle.Creator)
	return raffle, nil
}

// GetRaffle retrieves a raffle by ID.
func (s *RaffleServiceImpl) GetRaffle(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error) {
	return s.raffleRepo.FindByID(ctx, raffleID)
}

// GetEntries returns a raffle's purchase records in purchase order.
func (s *RaffleServiceImpl) GetEntries(ctx context.Context, raffleID primitive.ObjectID) ([]models.TicketPurchase, error) {
	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	return raffle.Entries, nil
}

// GetEvents returns a raffle's recorded lifecycle events.
func (s *RaffleServiceImpl) GetEvents(ctx context.Context, raffleID primitive.ObjectID, page, limit int) ([]*models.RaffleEvent, error) {
	return s.eventRepo.FindByRaffleID(ctx, raffleID, page, limit)
}

// TicketsOf returns the number of tickets buyer holds in a raffle.
func (s *RaffleServiceImpl) TicketsOf(ctx context.Context, raffleID primitive.ObjectID, buyer string) (int64, error) {
	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return 0, err
	}
	buyer = utils.NormalizeAddress(buyer)
	var total int64
	for _, entry := range raffle.Entries {
		if entry.Buyer == buyer {
			total += entry.Count
		}
	}
	return total, nil
}

// refundNoEntrants settles a raffle that sold zero tickets: the prize goes
// back to the creator and the raffle skips DRAWING entirely.
func (s *RaffleServiceImpl) refundNoEntrants(ctx context.Context, raffle *models.Raffle, now time.Time) (*models.Raffle, error) {
	if err := s.assets.Transfer(ctx, raffle.PrizeContract, escrowAccount(raffle.ID), raffle.Creator, raffle.PrizeTokenID); err != nil {
		return nil, err
	}
	raffle.Status = models.RaffleStatusSettled
	raffle.DrawnAt = now
	raffle.PrizePaid = true
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}
	recordEvent(ctx, s.eventRepo, &models.RaffleEvent{RaffleID: raffle.ID, Type: models.EventRefundedNoEntrants})
	slog.Info("refunded, no entrants", "raffleId", raffle.ID.Hex(), "creator", raffle.Creator)
	return raffle, nil
}

// settle disburses the escrowed funds and prize: the flat platform fee
// (capped at collected funds) to the fee recipient, the remainder to the
// creator, the prize to the winner. Each leg is marked durable after it
// succeeds so a retry never pays twice; the first failing leg aborts and
// leaves the raffle in DRAWING.
func (s *RaffleServiceImpl) settle(ctx context.Context, raffle *models.Raffle) error {
	esc := escrowAccount(raffle.ID)
	collected := raffle.Collected()
	fee := raffle.EntryFee
	if fee > collected {
		fee = collected
	}

	if !raffle.FeePaid {
		if fee > 0 {
			if err := s.ledger.Transfer(ctx, esc, raffle.FeeRecipient, fee); err != nil {
				return fmt.Errorf("fee transfer: %w", err)
			}
		}
		raffle.FeePaid = true
		if err := s.raffleRepo.Update(ctx, raffle); err != nil {
			return fmt.Errorf("failed to record fee payment: %w", err)
		}
	}

	if !raffle.ProceedsPaid {
		if proceeds := collected - fee; proceeds > 0 {
			if err := s.ledger.Transfer(ctx, esc, raffle.Creator, proceeds); err != nil {
				return fmt.Errorf("proceeds transfer: %w", err)
			}
		}
		raffle.ProceedsPaid = true
		if err := s.raffleRepo.Update(ctx, raffle); err != nil {
			return fmt.Errorf("failed to record proceeds payment: %w", err)
		}
	}

	if !raffle.PrizePaid {
		if err := s.assets.Transfer(ctx, raffle.PrizeContract, esc, raffle.Winner, raffle.PrizeTokenID); err != nil {
			return fmt.Errorf("prize transfer: %w", err)
		}
		raffle.PrizePaid = true
		if err := s.raffleRepo.Update(ctx, raffle); err != nil {
			return fmt.Errorf("failed to record prize payment: %w", err)
		}
	}

	raffle.Status = models.RaffleStatusSettled
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return fmt.Errorf("failed to mark raffle settled: %w", err)
	}
	recordEvent(ctx, s.eventRepo, &models.RaffleEvent{
		RaffleID: raffle.ID,
		Type:     models.EventSettled,
		Winner:   raffle.Winner,
	})
	slog.Info("raffle settled", "raffleId", raffle.ID.Hex(), "winner", raffle.Winner, "collected", collected, "fee", fee)
	return nil
}

// findWinningEntry locates the purchase record whose [Offset, Offset+Count)
// interval contains index. The intervals are disjoint and exhaustive, so
// exactly one record matches.
func findWinningEntry(entries []models.TicketPurchase, index int64) *models.TicketPurchase {
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Offset+entries[i].Count > index
	})
	return &entries[i]
}

// recordEvent appends a lifecycle event, logging instead of failing the
// surrounding operation when the write does not succeed.
func recordEvent(ctx context.Context, repo repositories.RaffleEventRepository, event *models.RaffleEvent) {
	if err := repo.Create(ctx, event); err != nil {
		slog.Error("failed to record raffle event", "raffleId", event.RaffleID.Hex(), "type", event.Type, "error", err)
	}
}
