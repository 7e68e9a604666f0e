package mongodb

import (
	"context"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RaffleEventRepository implements the repositories.RaffleEventRepository interface
type RaffleEventRepository struct {
	collection *mongo.Collection
}

// NewRaffleEventRepository creates a new RaffleEventRepository
func NewRaffleEventRepository(db *mongo.Database) repositories.RaffleEventRepository {
	return &RaffleEventRepository{
		collection: db.Collection("raffle_events"),
	}
}

// Create appends a raffle event
func (r *RaffleEventRepository) Create(ctx context.Context, event *models.RaffleEvent) error {
	event.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return err
	}
	event.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByRaffleID returns a raffle's events, oldest first
func (r *RaffleEventRepository) FindByRaffleID(ctx context.Context, raffleID primitive.ObjectID, page, limit int) ([]*models.RaffleEvent, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
		if page > 1 {
			opts.SetSkip(int64((page - 1) * limit))
		}
	}
	cursor, err := r.collection.Find(ctx, bson.M{"raffleId": raffleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.RaffleEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.RaffleEvent{}
	}
	return events, nil
}
