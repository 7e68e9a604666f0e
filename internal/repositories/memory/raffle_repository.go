// Package memory provides in-memory repository implementations used by
// tests and by mock mode, where the service runs without a MongoDB
// deployment. All implementations are safe for concurrent use.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleRepository implements repositories.RaffleRepository in memory
type RaffleRepository struct {
	mu      sync.Mutex
	raffles map[primitive.ObjectID]*models.Raffle
	order   []primitive.ObjectID
	nextSeq int64
}

// NewRaffleRepository creates an empty in-memory raffle repository
func NewRaffleRepository() *RaffleRepository {
	return &RaffleRepository{
		raffles: make(map[primitive.ObjectID]*models.Raffle),
	}
}

// Create stores a new raffle, assigning its ID and Seq
func (r *RaffleRepository) Create(_ context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	raffle.Seq = r.nextSeq
	raffle.ID = primitive.NewObjectID()
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	clone := *raffle
	r.raffles[raffle.ID] = &clone
	r.order = append(r.order, raffle.ID)
	return nil
}

// FindByID finds a raffle by ID
func (r *RaffleRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *raffle
	clone.Entries = append([]models.TicketPurchase(nil), raffle.Entries...)
	return &clone, nil
}

// Update replaces a stored raffle
func (r *RaffleRepository) Update(_ context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.raffles[raffle.ID]; !ok {
		return repositories.ErrNotFound
	}
	raffle.UpdatedAt = time.Now()
	clone := *raffle
	clone.Entries = append([]models.TicketPurchase(nil), raffle.Entries...)
	r.raffles[raffle.ID] = &clone
	return nil
}

// Delete removes a raffle
func (r *RaffleRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.raffles, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// FindAll returns raffles in creation order
func (r *RaffleRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error) {
	return r.filter(func(*models.Raffle) bool { return true }, page, limit), nil
}

// FindByCreator returns a creator's raffles in creation order
func (r *RaffleRepository) FindByCreator(_ context.Context, creator string, page, limit int) ([]*models.Raffle, error) {
	return r.filter(func(raffle *models.Raffle) bool { return raffle.Creator == creator }, page, limit), nil
}

// FindByStatus returns raffles with the given status in creation order
func (r *RaffleRepository) FindByStatus(_ context.Context, status models.RaffleStatus, page, limit int) ([]*models.Raffle, error) {
	return r.filter(func(raffle *models.Raffle) bool { return raffle.Status == status }, page, limit), nil
}

// FindByCreatorAndStatus returns a creator's raffles with the given status,
// in creation order
func (r *RaffleRepository) FindByCreatorAndStatus(_ context.Context, creator string, status models.RaffleStatus, page, limit int) ([]*models.Raffle, error) {
	return r.filter(func(raffle *models.Raffle) bool {
		return raffle.Creator == creator && raffle.Status == status
	}, page, limit), nil
}

// FindExpiredOpen returns OPEN raffles whose end time has passed
func (r *RaffleRepository) FindExpiredOpen(_ context.Context, now time.Time) ([]*models.Raffle, error) {
	return r.filter(func(raffle *models.Raffle) bool {
		return raffle.Status == models.RaffleStatusOpen && !raffle.EndTime.After(now)
	}, 0, 0), nil
}

// Count returns the number of stored raffles
func (r *RaffleRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.raffles)), nil
}

func (r *RaffleRepository) filter(keep func(*models.Raffle) bool, page, limit int) []*models.Raffle {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*models.Raffle{}
	for _, id := range r.order {
		raffle, ok := r.raffles[id]
		if !ok || !keep(raffle) {
			continue
		}
		clone := *raffle
		clone.Entries = append([]models.TicketPurchase(nil), raffle.Entries...)
		matched = append(matched, &clone)
	}
	if limit <= 0 {
		return matched
	}
	start := 0
	if page > 1 {
		start = (page - 1) * limit
	}
	if start >= len(matched) {
		return []*models.Raffle{}
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end]
}
