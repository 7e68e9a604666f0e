package services

import (
	"context"
	"testing"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories/memory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthServiceImpl {
	t.Helper()
	svc := NewAuthService(memory.NewAdminUserRepository(), "test-secret", time.Hour, "admin@example.com", "s3cret")
	require.NoError(t, svc.EnsureDefaultAdmin(context.Background()))
	return svc
}

func TestLoginIssuesAdminToken(t *testing.T) {
	svc := newAuthService(t)

	token, err := svc.Login(context.Background(), &models.LoginRequest{Email: "admin@example.com", Password: "s3cret"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "admin@example.com", claims["email"])
	require.Equal(t, models.RoleAdmin, claims["role"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &models.LoginRequest{Email: "nobody@example.com", Password: "s3cret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureDefaultAdminIdempotent(t *testing.T) {
	svc := newAuthService(t)
	require.NoError(t, svc.EnsureDefaultAdmin(context.Background()))

	// The original password still works after a restart-style re-seed.
	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "admin@example.com", Password: "s3cret"})
	require.NoError(t, err)
}
