package handlers

import (
	"net/http"
	"strconv"

	"github.com/Heesho/raffle-fun-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleHandler handles raffle lifecycle HTTP requests
type RaffleHandler struct {
	raffleService services.RaffleService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffleService services.RaffleService) *RaffleHandler {
	return &RaffleHandler{
		raffleService: raffleService,
	}
}

// BuyTicketsRequest is the body for POST /raffles/:id/tickets
type BuyTicketsRequest struct {
	Buyer string `json:"buyer" binding:"required"`
	Count int64  `json:"count" binding:"required"`
}

// CancelRequest is the body for POST /raffles/:id/cancel
type CancelRequest struct {
	Caller string `json:"caller" binding:"required"`
}

func raffleID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// BuyTickets handles POST /raffles/:id/tickets
func (h *RaffleHandler) BuyTickets(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	var request BuyTicketsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raffle, err := h.raffleService.BuyTickets(c.Request.Context(), id, request.Buyer, request.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// Draw handles POST /raffles/:id/draw
func (h *RaffleHandler) Draw(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	raffle, err := h.raffleService.Draw(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// RetrySettlement handles POST /raffles/:id/settlement/retry
func (h *RaffleHandler) RetrySettlement(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	raffle, err := h.raffleService.RetrySettlement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// Cancel handles POST /raffles/:id/cancel
func (h *RaffleHandler) Cancel(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	var request CancelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raffle, err := h.raffleService.Cancel(c.Request.Context(), id, request.Caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// GetRaffle handles GET /raffles/:id
func (h *RaffleHandler) GetRaffle(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	raffle, err := h.raffleService.GetRaffle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// GetEntries handles GET /raffles/:id/entries
func (h *RaffleHandler) GetEntries(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	entries, err := h.raffleService.GetEntries(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetEvents handles GET /raffles/:id/events
func (h *RaffleHandler) GetEvents(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.raffleService.GetEvents(c.Request.Context(), id, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// TicketsOf handles GET /raffles/:id/tickets/:buyer
func (h *RaffleHandler) TicketsOf(c *gin.Context) {
	id, ok := raffleID(c)
	if !ok {
		return
	}
	count, err := h.raffleService.TicketsOf(c.Request.Context(), id, c.Param("buyer"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buyer": c.Param("buyer"), "tickets": count})
}
