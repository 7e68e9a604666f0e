package handlers

import (
	"errors"
	"net/http"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/Heesho/raffle-fun-backend/internal/services"
	"github.com/Heesho/raffle-fun-backend/pkg/assetregistry"
	"github.com/Heesho/raffle-fun-backend/pkg/ledger"
	"github.com/gin-gonic/gin"
)

// respondError maps service-layer errors onto HTTP statuses. The error
// text is passed through so callers see which rule was violated.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrPolicyViolation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, assetregistry.ErrNotOwner):
		status = http.StatusConflict
	case errors.Is(err, models.ErrEscrowFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
