package handlers

import (
	"net/http"

	"github.com/Heesho/raffle-fun-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// maxMulticallBatch bounds a single aggregate request.
const maxMulticallBatch = 200

// MulticallHandler handles batched read HTTP requests
type MulticallHandler struct {
	multicallService services.MulticallService
}

// NewMulticallHandler creates a new MulticallHandler
func NewMulticallHandler(multicallService services.MulticallService) *MulticallHandler {
	return &MulticallHandler{
		multicallService: multicallService,
	}
}

// AggregateRequest is the body for POST /multicall
type AggregateRequest struct {
	Calls []services.MulticallCall `json:"calls" binding:"required"`
}

// Aggregate handles POST /multicall
func (h *MulticallHandler) Aggregate(c *gin.Context) {
	var request AggregateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(request.Calls) > maxMulticallBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many calls in one batch"})
		return
	}
	results, err := h.multicallService.Aggregate(c.Request.Context(), request.Calls)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
