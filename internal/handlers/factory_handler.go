package handlers

import (
	"net/http"
	"strconv"

	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// FactoryHandler handles raffle creation and discovery HTTP requests
type FactoryHandler struct {
	factoryService services.FactoryService
}

// NewFactoryHandler creates a new FactoryHandler
func NewFactoryHandler(factoryService services.FactoryService) *FactoryHandler {
	return &FactoryHandler{
		factoryService: factoryService,
	}
}

// CreateRaffleRequest is the body for POST /raffles
type CreateRaffleRequest struct {
	Creator         string `json:"creator" binding:"required"`
	PrizeContract   string `json:"prizeContract" binding:"required"`
	PrizeTokenID    int64  `json:"prizeTokenId"`
	DurationSeconds int64  `json:"durationSeconds" binding:"required"`
}

// UpdatePolicyRequest is the body for PUT /policy
type UpdatePolicyRequest struct {
	Token        string `json:"token" binding:"required"`
	FeeRecipient string `json:"feeRecipient" binding:"required"`
	MinDuration  int64  `json:"minDuration" binding:"required"`
	EntryFee     int64  `json:"entryFee"`
	TicketPrice  int64  `json:"ticketPrice" binding:"required"`
}

// CreateRaffle handles POST /raffles
func (h *FactoryHandler) CreateRaffle(c *gin.Context) {
	var request CreateRaffleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raffle, err := h.factoryService.CreateRaffle(c.Request.Context(), request.Creator, request.PrizeContract, request.PrizeTokenID, request.DurationSeconds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, raffle)
}

// ListRaffles handles GET /raffles
func (h *FactoryHandler) ListRaffles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := models.RaffleFilter{
		Creator: c.Query("creator"),
		Status:  models.RaffleStatus(c.Query("status")),
	}
	if filter.Status != "" && !models.ValidRaffleStatus(filter.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}
	raffles, err := h.factoryService.ListRaffles(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// CountRaffles handles GET /raffles/count
func (h *FactoryHandler) CountRaffles(c *gin.Context) {
	count, err := h.factoryService.CountRaffles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetPolicy handles GET /policy
func (h *FactoryHandler) GetPolicy(c *gin.Context) {
	policy, err := h.factoryService.GetPolicy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

// UpdatePolicy handles PUT /policy
func (h *FactoryHandler) UpdatePolicy(c *gin.Context) {
	var request UpdatePolicyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := c.GetString("email")
	role := c.GetString("role")
	policy := &models.Policy{
		Token:        request.Token,
		FeeRecipient: request.FeeRecipient,
		MinDuration:  request.MinDuration,
		EntryFee:     request.EntryFee,
		TicketPrice:  request.TicketPrice,
	}
	updated, err := h.factoryService.UpdatePolicy(c.Request.Context(), caller, role, policy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
