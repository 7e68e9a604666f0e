package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails. The
// message is the same for a missing account and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Compile-time check to ensure AuthServiceImpl implements AuthService
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthServiceImpl handles operator authentication
type AuthServiceImpl struct {
	adminRepo    repositories.AdminUserRepository
	jwtSecret    string
	jwtExpiresIn time.Duration
	adminEmail   string
	adminPass    string
}

// NewAuthService creates a new AuthServiceImpl
func NewAuthService(adminRepo repositories.AdminUserRepository, jwtSecret string, jwtExpiresIn time.Duration, adminEmail, adminPass string) *AuthServiceImpl {
	return &AuthServiceImpl{
		adminRepo:    adminRepo,
		jwtSecret:    jwtSecret,
		jwtExpiresIn: jwtExpiresIn,
		adminEmail:   adminEmail,
		adminPass:    adminPass,
	}
}

// Login verifies credentials and returns a signed JWT
func (s *AuthServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	user, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(s.jwtExpiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// EnsureDefaultAdmin creates the bootstrap admin account from
// configuration if no account with that email exists yet.
func (s *AuthServiceImpl) EnsureDefaultAdmin(ctx context.Context) error {
	if s.adminEmail == "" || s.adminPass == "" {
		return nil
	}

	_, err := s.adminRepo.FindByEmail(ctx, s.adminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.adminPass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.AdminUser{
		Email:     s.adminEmail,
		Password:  string(hashed),
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return s.adminRepo.Create(ctx, admin)
}
