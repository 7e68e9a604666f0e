package routes

import (
	"github.com/Heesho/raffle-fun-backend/internal/config"
	"github.com/Heesho/raffle-fun-backend/internal/handlers"
	"github.com/Heesho/raffle-fun-backend/internal/middleware"
	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// Handlers bundles every handler the router mounts
type Handlers struct {
	Raffle    *handlers.RaffleHandler
	Factory   *handlers.FactoryHandler
	Multicall *handlers.MulticallHandler
	Auth      *handlers.AuthHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h *Handlers, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Add middleware
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))

	// Public routes
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		// Auth routes
		auth := public.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		// Raffle routes. Mutating calls name the acting account in the
		// request body; the chain adapters enforce ownership and funds.
		raffles := public.Group("/raffles")
		{
			raffles.GET("", h.Factory.ListRaffles)
			raffles.GET("/count", h.Factory.CountRaffles)
			raffles.GET("/:id", h.Raffle.GetRaffle)
			raffles.GET("/:id/entries", h.Raffle.GetEntries)
			raffles.GET("/:id/events", h.Raffle.GetEvents)
			raffles.GET("/:id/tickets/:buyer", h.Raffle.TicketsOf)
			raffles.POST("", h.Factory.CreateRaffle)
			raffles.POST("/:id/tickets", h.Raffle.BuyTickets)
			raffles.POST("/:id/draw", h.Raffle.Draw)
			raffles.POST("/:id/settlement/retry", h.Raffle.RetrySettlement)
			raffles.POST("/:id/cancel", h.Raffle.Cancel)
		}

		// Batched reads
		public.POST("/multicall", h.Multicall.Aggregate)

		public.GET("/policy", h.Factory.GetPolicy)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	protected.Use(middleware.RequireRole(models.RoleAdmin))
	{
		protected.PUT("/policy", h.Factory.UpdatePolicy)
	}

	return router
}
