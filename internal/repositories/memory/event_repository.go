package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleEventRepository implements repositories.RaffleEventRepository in memory
type RaffleEventRepository struct {
	mu     sync.Mutex
	events []*models.RaffleEvent
}

// NewRaffleEventRepository creates an empty in-memory event repository
func NewRaffleEventRepository() *RaffleEventRepository {
	return &RaffleEventRepository{}
}

// Create appends a raffle event
func (r *RaffleEventRepository) Create(_ context.Context, event *models.RaffleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

// FindByRaffleID returns a raffle's events, oldest first
func (r *RaffleEventRepository) FindByRaffleID(_ context.Context, raffleID primitive.ObjectID, page, limit int) ([]*models.RaffleEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*models.RaffleEvent{}
	for _, event := range r.events {
		if event.RaffleID == raffleID {
			clone := *event
			matched = append(matched, &clone)
		}
	}
	if limit <= 0 {
		return matched, nil
	}
	start := 0
	if page > 1 {
		start = (page - 1) * limit
	}
	if start >= len(matched) {
		return []*models.RaffleEvent{}, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}
