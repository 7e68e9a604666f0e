package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// policyDocID is the fixed _id of the singleton policy document
const policyDocID = "factory-policy"

// PolicyRepository implements the repositories.PolicyRepository interface
type PolicyRepository struct {
	collection *mongo.Collection
}

// NewPolicyRepository creates a new PolicyRepository
func NewPolicyRepository(db *mongo.Database) repositories.PolicyRepository {
	return &PolicyRepository{
		collection: db.Collection("policy"),
	}
}

type policyDoc struct {
	ID     string        `bson:"_id"`
	Policy models.Policy `bson:"policy"`
}

// Get returns the current factory policy
func (r *PolicyRepository) Get(ctx context.Context) (*models.Policy, error) {
	var doc policyDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": policyDocID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &doc.Policy, nil
}

// Put replaces the factory policy
func (r *PolicyRepository) Put(ctx context.Context, policy *models.Policy) error {
	policy.UpdatedAt = time.Now()
	doc := policyDoc{ID: policyDocID, Policy: *policy}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": policyDocID}, doc, opts)
	return err
}
