package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/Heesho/raffle-fun-backend/internal/utils"
	"github.com/Heesho/raffle-fun-backend/pkg/assetregistry"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure FactoryServiceImpl implements FactoryService
var _ FactoryService = (*FactoryServiceImpl)(nil)

// FactoryServiceImpl deploys and indexes raffle instances and owns the
// global creation policy. Raffles never depend on the factory after
// creation; the registry holds lookups only.
type FactoryServiceImpl struct {
	raffleRepo repositories.RaffleRepository
	policyRepo repositories.PolicyRepository
	eventRepo  repositories.RaffleEventRepository
	assets     assetregistry.Registry
	now        func() time.Time
}

// NewFactoryService creates a new FactoryServiceImpl
func NewFactoryService(
	raffleRepo repositories.RaffleRepository,
	policyRepo repositories.PolicyRepository,
	eventRepo repositories.RaffleEventRepository,
	assets assetregistry.Registry,
) *FactoryServiceImpl {
	return &FactoryServiceImpl{
		raffleRepo: raffleRepo,
		policyRepo: policyRepo,
		eventRepo:  eventRepo,
		assets:     assets,
		now:        time.Now,
	}
}

// CreateRaffle validates the request against the current policy snapshot,
// escrows the prize, and opens the raffle. If the escrow transfer fails
// the instance is removed again, so no orphaned registration survives.
func (s *FactoryServiceImpl) CreateRaffle(ctx context.Context, creator, prizeContract string, prizeTokenID, durationSeconds int64) (*models.Raffle, error) {
	creator = utils.NormalizeAddress(creator)
	prizeContract = utils.NormalizeAddress(prizeContract)

	policy, err := s.policyRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("factory policy not available: %w", err)
	}
	if durationSeconds < policy.MinDuration {
		return nil, fmt.Errorf("%w: duration %ds below minimum %ds", models.ErrPolicyViolation, durationSeconds, policy.MinDuration)
	}

	owner, err := s.assets.OwnerOf(ctx, prizeContract, prizeTokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify prize ownership: %w", err)
	}
	if owner != creator {
		return nil, fmt.Errorf("%w: prize %s/%d belongs to %s", assetregistry.ErrNotOwner, prizeContract, prizeTokenID, owner)
	}

	now := s.now()
	raffle := &models.Raffle{
		Creator:       creator,
		PrizeContract: prizeContract,
		PrizeTokenID:  prizeTokenID,
		Token:         policy.Token,
		TicketPrice:   policy.TicketPrice,
		EntryFee:      policy.EntryFee,
		FeeRecipient:  policy.FeeRecipient,
		StartTime:     now,
		EndTime:       now.Add(time.Duration(durationSeconds) * time.Second),
		Status:        models.RaffleStatusPending,
		Entries:       []models.TicketPurchase{},
	}
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to store raffle: %w", err)
	}

	if err := s.assets.Transfer(ctx, prizeContract, creator, escrowAccount(raffle.ID), prizeTokenID); err != nil {
		if delErr := s.raffleRepo.Delete(ctx, raffle.ID); delErr != nil {
			slog.Error("failed to remove raffle after escrow failure", "raffleId", raffle.ID.Hex(), "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrEscrowFailed, err)
	}

	raffle.Status = models.RaffleStatusOpen
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		// The prize is escrowed but the raffle stayed PENDING; the
		// creator can recover it through Cancel.
		slog.Error("failed to open raffle after escrow", "raffleId", raffle.ID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to open raffle: %w", err)
	}

	recordEvent(ctx, s.eventRepo, &models.RaffleEvent{RaffleID: raffle.ID, Type: models.EventRaffleCreated})
	slog.Info("raffle created", "raffleId", raffle.ID.Hex(), "creator", creator, "prize", fmt.Sprintf("%s/%d", prizeContract, prizeTokenID), "endTime", raffle.EndTime)
	return raffle, nil
}

// UpdatePolicy replaces the policy snapshot used by future creations.
// Raffles already deployed captured their own config and are untouched.
func (s *FactoryServiceImpl) UpdatePolicy(ctx context.Context, caller, role string, policy *models.Policy) (*models.Policy, error) {
	if role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: policy updates require the admin role", models.ErrUnauthorized)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	policy.Token = utils.NormalizeAddress(policy.Token)
	policy.FeeRecipient = utils.NormalizeAddress(policy.FeeRecipient)
	policy.UpdatedBy = caller
	if err := s.policyRepo.Put(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to store policy: %w", err)
	}
	slog.Info("factory policy updated", "updatedBy", caller, "minDuration", policy.MinDuration, "entryFee", policy.EntryFee, "ticketPrice", policy.TicketPrice)
	return policy, nil
}

// GetPolicy returns the current factory policy.
func (s *FactoryServiceImpl) GetPolicy(ctx context.Context) (*models.Policy, error) {
	return s.policyRepo.Get(ctx)
}

// EnsureDefaultPolicy stores seed if no policy exists yet. An existing
// policy is never overwritten on restart.
func (s *FactoryServiceImpl) EnsureDefaultPolicy(ctx context.Context, seed *models.Policy) error {
	_, err := s.policyRepo.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up policy: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return err
	}
	seed.Token = utils.NormalizeAddress(seed.Token)
	seed.FeeRecipient = utils.NormalizeAddress(seed.FeeRecipient)
	seed.UpdatedBy = "bootstrap"
	return s.policyRepo.Put(ctx, seed)
}

// ListRaffles returns raffles in creation order, narrowed by the filter.
func (s *FactoryServiceImpl) ListRaffles(ctx context.Context, filter models.RaffleFilter, page, limit int) ([]*models.Raffle, error) {
	if filter.Status != "" && !models.ValidRaffleStatus(filter.Status) {
		return nil, fmt.Errorf("unknown raffle status %q", filter.Status)
	}
	switch {
	case filter.Creator != "" && filter.Status != "":
		return s.raffleRepo.FindByCreatorAndStatus(ctx, utils.NormalizeAddress(filter.Creator), filter.Status, page, limit)
	case filter.Creator != "":
		return s.raffleRepo.FindByCreator(ctx, utils.NormalizeAddress(filter.Creator), page, limit)
	case filter.Status != "":
		return s.raffleRepo.FindByStatus(ctx, filter.Status, page, limit)
	default:
		return s.raffleRepo.FindAll(ctx, page, limit)
	}
}

// CountRaffles returns the number of raffles ever registered.
func (s *FactoryServiceImpl) CountRaffles(ctx context.Context) (int64, error) {
	return s.raffleRepo.Count(ctx)
}
