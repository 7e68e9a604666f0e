package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
)

// PolicyRepository implements repositories.PolicyRepository in memory
type PolicyRepository struct {
	mu     sync.Mutex
	policy *models.Policy
}

// NewPolicyRepository creates an empty in-memory policy repository
func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{}
}

// Get returns the current policy
func (r *PolicyRepository) Get(_ context.Context) (*models.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policy == nil {
		return nil, repositories.ErrNotFound
	}
	clone := *r.policy
	return &clone, nil
}

// Put replaces the current policy
func (r *PolicyRepository) Put(_ context.Context, policy *models.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy.UpdatedAt = time.Now()
	clone := *policy
	r.policy = &clone
	return nil
}
