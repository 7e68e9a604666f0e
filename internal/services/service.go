package services

import (
	"context"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleService defines the interface for per-raffle lifecycle operations
type RaffleService interface {
	// BuyTickets sells count tickets to buyer on an open raffle. Not
	// idempotent: every accepted call adds tickets.
	BuyTickets(ctx context.Context, raffleID primitive.ObjectID, buyer string, count int64) (*models.Raffle, error)

	// Draw closes an expired raffle: with entrants it selects a winner and
	// settles, without entrants it refunds the prize to the creator.
	Draw(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error)

	// RetrySettlement re-runs the settlement transfers of a raffle stuck
	// in DRAWING after a failed settlement. The stored winner is reused,
	// never recomputed.
	RetrySettlement(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error)

	// Cancel aborts a raffle that never opened, returning the prize to
	// the creator. Creator only.
	Cancel(ctx context.Context, raffleID primitive.ObjectID, caller string) (*models.Raffle, error)

	GetRaffle(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error)
	GetEntries(ctx context.Context, raffleID primitive.ObjectID) ([]models.TicketPurchase, error)
	GetEvents(ctx context.Context, raffleID primitive.ObjectID, page, limit int) ([]*models.RaffleEvent, error)

	// TicketsOf returns the number of tickets buyer holds in a raffle,
	// letting callers disambiguate an ambiguous BuyTickets failure.
	TicketsOf(ctx context.Context, raffleID primitive.ObjectID, buyer string) (int64, error)
}

// FactoryService defines the interface for raffle deployment and discovery
type FactoryService interface {
	// CreateRaffle validates against the current policy, escrows the
	// prize, and registers a new raffle. On escrow failure nothing is
	// registered.
	CreateRaffle(ctx context.Context, creator, prizeContract string, prizeTokenID, durationSeconds int64) (*models.Raffle, error)

	// UpdatePolicy replaces the factory policy for future creations.
	// Admin role only; existing raffles keep their captured config.
	UpdatePolicy(ctx context.Context, caller, role string, policy *models.Policy) (*models.Policy, error)

	GetPolicy(ctx context.Context) (*models.Policy, error)

	// EnsureDefaultPolicy seeds the policy store on first start. It never
	// overwrites an existing policy.
	EnsureDefaultPolicy(ctx context.Context, seed *models.Policy) error

	// ListRaffles returns raffles in creation order, optionally narrowed
	// by creator and/or status.
	ListRaffles(ctx context.Context, filter models.RaffleFilter, page, limit int) ([]*models.Raffle, error)

	CountRaffles(ctx context.Context) (int64, error)
}

// MulticallService defines the interface for batched read aggregation
type MulticallService interface {
	// Aggregate executes independent reads and returns per-call results
	// in input order. One failing call never fails the batch.
	Aggregate(ctx context.Context, calls []MulticallCall) ([]MulticallResult, error)
}

// MulticallCall names one read against one raffle
type MulticallCall struct {
	RaffleID string `json:"raffleId" binding:"required"`
	Method   string `json:"method" binding:"required"`
}

// MulticallResult carries one call's outcome
type MulticallResult struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// AuthService defines the interface for operator authentication
type AuthService interface {
	// Login verifies credentials and returns a signed JWT.
	Login(ctx context.Context, req *models.LoginRequest) (string, error)

	// EnsureDefaultAdmin creates the bootstrap admin account from
	// configuration if no account with that email exists yet.
	EnsureDefaultAdmin(ctx context.Context) error
}
