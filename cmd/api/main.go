package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Heesho/raffle-fun-backend/api/routes"
	"github.com/Heesho/raffle-fun-backend/internal/config"
	"github.com/Heesho/raffle-fun-backend/internal/handlers"
	"github.com/Heesho/raffle-fun-backend/internal/models"
	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/Heesho/raffle-fun-backend/internal/repositories/memory"
	mongorepo "github.com/Heesho/raffle-fun-backend/internal/repositories/mongodb"
	"github.com/Heesho/raffle-fun-backend/internal/scheduler"
	"github.com/Heesho/raffle-fun-backend/internal/services"
	"github.com/Heesho/raffle-fun-backend/pkg/assetregistry"
	"github.com/Heesho/raffle-fun-backend/pkg/ledger"
	"github.com/Heesho/raffle-fun-backend/pkg/mongodb"
	"github.com/Heesho/raffle-fun-backend/pkg/randomness"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func main() {
	// .env is optional, real deployments use environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Repositories: MongoDB when a URI is configured, in-memory otherwise
	// (local development and tests).
	var (
		raffleRepo repositories.RaffleRepository
		policyRepo repositories.PolicyRepository
		eventRepo  repositories.RaffleEventRepository
		adminRepo  repositories.AdminUserRepository
	)
	if cfg.MongoDB.URI != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
		if err != nil {
			logger.Error("failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.Error("error disconnecting from MongoDB", "error", err)
			}
		}()
		db := mongoClient.Database(cfg.MongoDB.Database)
		raffleRepo = mongorepo.NewRaffleRepository(db)
		policyRepo = mongorepo.NewPolicyRepository(db)
		eventRepo = mongorepo.NewRaffleEventRepository(db)
		adminRepo = mongorepo.NewAdminUserRepository(db)
	} else {
		logger.Warn("no MongoDB URI configured, using in-memory repositories")
		raffleRepo = memory.NewRaffleRepository()
		policyRepo = memory.NewPolicyRepository()
		eventRepo = memory.NewRaffleEventRepository()
		adminRepo = memory.NewAdminUserRepository()
	}

	// Chain adapters: mock implementations keep balances and ownership in
	// process, the real ones talk to an EVM RPC endpoint.
	var (
		tokenLedger ledger.Ledger
		assets      assetregistry.Registry
	)
	if cfg.Chain.Mock {
		logger.Warn("chain adapters running in mock mode")
		tokenLedger = ledger.NewMockLedger()
		assets = assetregistry.NewMockRegistry()
	} else {
		erc20, err := ledger.NewERC20Client(cfg.Chain.RPCURL, cfg.Chain.TokenAddress, cfg.Chain.PrivateKey, cfg.Chain.ChainID)
		if err != nil {
			logger.Error("failed to create ERC20 client", "error", err)
			os.Exit(1)
		}
		erc721, err := assetregistry.NewERC721Client(cfg.Chain.RPCURL, cfg.Chain.PrivateKey, cfg.Chain.ChainID)
		if err != nil {
			logger.Error("failed to create ERC721 client", "error", err)
			os.Exit(1)
		}
		tokenLedger = erc20
		assets = erc721
	}

	// Services
	raffleService := services.NewRaffleService(raffleRepo, eventRepo, tokenLedger, assets, randomness.NewCryptoSource())
	factoryService := services.NewFactoryService(raffleRepo, policyRepo, eventRepo, assets)
	multicallService := services.NewMulticallService(raffleRepo, 16)
	authService := services.NewAuthService(adminRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second, cfg.Admin.Email, cfg.Admin.Password)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer bootCancel()
	if err := factoryService.EnsureDefaultPolicy(bootCtx, &models.Policy{
		Token:        cfg.Policy.Token,
		FeeRecipient: cfg.Policy.FeeRecipient,
		MinDuration:  cfg.Policy.MinDuration,
		EntryFee:     cfg.Policy.EntryFee,
		TicketPrice:  cfg.Policy.TicketPrice,
	}); err != nil {
		logger.Error("failed to seed factory policy", "error", err)
		os.Exit(1)
	}
	if err := authService.EnsureDefaultAdmin(bootCtx); err != nil {
		logger.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	// Handlers and router
	router := routes.SetupRouter(cfg, &routes.Handlers{
		Raffle:    handlers.NewRaffleHandler(raffleService),
		Factory:   handlers.NewFactoryHandler(factoryService),
		Multicall: handlers.NewMulticallHandler(multicallService),
		Auth:      handlers.NewAuthHandler(authService),
	}, logger)

	// Background sweep of expired raffles
	var sweeper *scheduler.Sweeper
	if cfg.Sweeper.Enabled {
		sweeper, err = scheduler.NewSweeper(raffleRepo, raffleService, time.Duration(cfg.Sweeper.IntervalSeconds)*time.Second, logger)
		if err != nil {
			logger.Error("failed to create sweeper", "error", err)
			os.Exit(1)
		}
		if err := sweeper.Start(); err != nil {
			logger.Error("failed to start sweeper", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	if sweeper != nil {
		if err := sweeper.Stop(); err != nil {
			logger.Error("error stopping sweeper", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exiting")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
