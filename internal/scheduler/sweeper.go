// Package scheduler runs the background sweep that closes expired
// raffles without waiting for an operator to call draw.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/Heesho/raffle-fun-backend/internal/services"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/exp/slog"
)

// Sweeper periodically draws every open raffle whose sale interval has
// ended. Each raffle is handled independently, so one failed draw never
// blocks the rest of the sweep.
type Sweeper struct {
	raffleRepo    repositories.RaffleRepository
	raffleService services.RaffleService
	scheduler     gocron.Scheduler
	interval      time.Duration
	logger        *slog.Logger
}

// NewSweeper creates a new Sweeper
func NewSweeper(raffleRepo repositories.RaffleRepository, raffleService services.RaffleService, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Sweeper{
		raffleRepo:    raffleRepo,
		raffleService: raffleService,
		scheduler:     s,
		interval:      interval,
		logger:        logger,
	}, nil
}

// Start schedules the sweep job and starts the scheduler
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.Sweep),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	s.scheduler.Start()
	s.logger.Info("sweeper started", "interval", s.interval.String())
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

// Sweep draws every expired open raffle once. Draw failures are logged
// and retried on the next pass.
func (s *Sweeper) Sweep() {
	ctx := context.Background()
	expired, err := s.raffleRepo.FindExpiredOpen(ctx, time.Now())
	if err != nil {
		s.logger.Error("sweep query failed", "error", err)
		return
	}
	for _, raffle := range expired {
		if _, err := s.raffleService.Draw(ctx, raffle.ID); err != nil {
			s.logger.Error("sweep draw failed", "raffleId", raffle.ID.Hex(), "error", err)
			continue
		}
		s.logger.Info("sweep drew raffle", "raffleId", raffle.ID.Hex())
	}
}
