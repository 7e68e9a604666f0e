package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUserRepository implements repositories.AdminUserRepository in memory
type AdminUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.AdminUser
}

// NewAdminUserRepository creates an empty in-memory admin user repository
func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{users: make(map[string]*models.AdminUser)}
}

// Create creates a new admin user
func (r *AdminUserRepository) Create(_ context.Context, user *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.Email] = &clone
	return nil
}

// FindByEmail finds an admin user by email
func (r *AdminUserRepository) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *user
	return &clone, nil
}
