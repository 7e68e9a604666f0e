package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by every repository implementation when a lookup
// matches nothing, so services never depend on a storage driver's own
// not-found error.
var ErrNotFound = errors.New("not found")

// RaffleRepository defines the interface for raffle persistence. Mutating
// operations must be durable before they return: a raffle operation only
// reports success to its caller once the new state is stored.
type RaffleRepository interface {
	// Create stores a new raffle, assigning its ID and creation-order Seq.
	Create(ctx context.Context, raffle *models.Raffle) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	Update(ctx context.Context, raffle *models.Raffle) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// FindAll returns raffles in creation order (Seq ascending).
	FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error)
	FindByCreator(ctx context.Context, creator string, page, limit int) ([]*models.Raffle, error)
	FindByStatus(ctx context.Context, status models.RaffleStatus, page, limit int) ([]*models.Raffle, error)
	FindByCreatorAndStatus(ctx context.Context, creator string, status models.RaffleStatus, page, limit int) ([]*models.Raffle, error)
	// FindExpiredOpen returns OPEN raffles whose end time is at or before now.
	FindExpiredOpen(ctx context.Context, now time.Time) ([]*models.Raffle, error)
	Count(ctx context.Context) (int64, error)
}

// PolicyRepository stores the single factory policy document.
type PolicyRepository interface {
	Get(ctx context.Context) (*models.Policy, error)
	Put(ctx context.Context, policy *models.Policy) error
}

// RaffleEventRepository stores observable raffle lifecycle events.
type RaffleEventRepository interface {
	Create(ctx context.Context, event *models.RaffleEvent) error
	FindByRaffleID(ctx context.Context, raffleID primitive.ObjectID, page, limit int) ([]*models.RaffleEvent, error)
}

// AdminUserRepository defines the interface for operator account data.
type AdminUserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}
