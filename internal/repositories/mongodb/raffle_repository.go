package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RaffleRepository implements the repositories.RaffleRepository interface
type RaffleRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database) repositories.RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection("raffles"),
		counters:   db.Collection("counters"),
	}
}

// nextSeq atomically allocates the next creation-order index.
func (r *RaffleRepository) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": "raffles"},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// Create creates a new raffle, assigning its ID and Seq
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}
	raffle.Seq = seq
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, raffle)
	if err != nil {
		return err
	}
	raffle.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a raffle by ID
func (r *RaffleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raffle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &raffle, nil
}

// Update replaces a raffle document
func (r *RaffleRepository) Update(ctx context.Context, raffle *models.Raffle) error {
	raffle.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": raffle.ID}, raffle)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete deletes a raffle by ID
func (r *RaffleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindAll finds all raffles in creation order
func (r *RaffleRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

// FindByCreator finds raffles deployed by a creator, in creation order
func (r *RaffleRepository) FindByCreator(ctx context.Context, creator string, page, limit int) ([]*models.Raffle, error) {
	return r.find(ctx, bson.M{"creator": creator}, page, limit)
}

// FindByStatus finds raffles by status, in creation order
func (r *RaffleRepository) FindByStatus(ctx context.Context, status models.RaffleStatus, page, limit int) ([]*models.Raffle, error) {
	return r.find(ctx, bson.M{"status": status}, page, limit)
}

// FindByCreatorAndStatus finds a creator's raffles with the given status,
// in creation order
func (r *RaffleRepository) FindByCreatorAndStatus(ctx context.Context, creator string, status models.RaffleStatus, page, limit int) ([]*models.Raffle, error) {
	return r.find(ctx, bson.M{"creator": creator, "status": status}, page, limit)
}

// FindExpiredOpen finds OPEN raffles whose end time has passed
func (r *RaffleRepository) FindExpiredOpen(ctx context.Context, now time.Time) ([]*models.Raffle, error) {
	filter := bson.M{
		"status":  models.RaffleStatusOpen,
		"endTime": bson.M{"$lte": now},
	}
	return r.find(ctx, filter, 0, 0)
}

// Count returns the number of raffles ever registered
func (r *RaffleRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *RaffleRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.Raffle, error) {
	opts := options.Find().SetSort(bson.M{"seq": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
		if page > 1 {
			opts.SetSkip(int64((page - 1) * limit))
		}
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raffles []*models.Raffle
	if err := cursor.All(ctx, &raffles); err != nil {
		return nil, err
	}
	if raffles == nil {
		raffles = []*models.Raffle{}
	}
	return raffles, nil
}
