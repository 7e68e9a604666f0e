package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/Heesho/raffle-fun-backend/internal/repositories"
	"github.com/panjf2000/ants/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure MulticallServiceImpl implements MulticallService
var _ MulticallService = (*MulticallServiceImpl)(nil)

// Read methods supported by Aggregate
const (
	MulticallStatus       = "status"
	MulticallConfig       = "config"
	MulticallEntries      = "entries"
	MulticallTotalTickets = "totalTickets"
	MulticallWinner       = "winner"
)

// RaffleConfigView is the immutable slice of a raffle returned by the
// "config" read.
type RaffleConfigView struct {
	Creator       string `json:"creator"`
	PrizeContract string `json:"prizeContract"`
	PrizeTokenID  int64  `json:"prizeTokenId"`
	Token         string `json:"token"`
	TicketPrice   int64  `json:"ticketPrice"`
	EntryFee      int64  `json:"entryFee"`
	FeeRecipient  string `json:"feeRecipient"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
}

// MulticallServiceImpl fans independent raffle reads out over a bounded
// worker pool and never mutates state. Failure policy: each call gets its
// own success/failure tag, so one unavailable raffle cannot block
// observation of the rest.
type MulticallServiceImpl struct {
	raffleRepo repositories.RaffleRepository
	poolSize   int
}

// NewMulticallService creates a new MulticallServiceImpl
func NewMulticallService(raffleRepo repositories.RaffleRepository, poolSize int) *MulticallServiceImpl {
	if poolSize <= 0 {
		poolSize = 16
	}
	return &MulticallServiceImpl{raffleRepo: raffleRepo, poolSize: poolSize}
}

// Aggregate executes every read and returns results in input order.
func (s *MulticallServiceImpl) Aggregate(ctx context.Context, calls []MulticallCall) ([]MulticallResult, error) {
	results := make([]MulticallResult, len(calls))
	if len(calls) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.execute(ctx, call)
		}
		if err := pool.Submit(task); err != nil {
			// Pool rejected the task; run it inline rather than drop it.
			task()
		}
	}
	wg.Wait()
	return results, nil
}

func (s *MulticallServiceImpl) execute(ctx context.Context, call MulticallCall) MulticallResult {
	id, err := primitive.ObjectIDFromHex(call.RaffleID)
	if err != nil {
		return MulticallResult{Error: "invalid raffle id"}
	}
	raffle, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return MulticallResult{Error: err.Error()}
	}

	switch call.Method {
	case MulticallStatus:
		return MulticallResult{OK: true, Data: raffle.Status}
	case MulticallConfig:
		return MulticallResult{OK: true, Data: RaffleConfigView{
			Creator:       raffle.Creator,
			PrizeContract: raffle.PrizeContract,
			PrizeTokenID:  raffle.PrizeTokenID,
			Token:         raffle.Token,
			TicketPrice:   raffle.TicketPrice,
			EntryFee:      raffle.EntryFee,
			FeeRecipient:  raffle.FeeRecipient,
			StartTime:     raffle.StartTime.Unix(),
			EndTime:       raffle.EndTime.Unix(),
		}}
	case MulticallEntries:
		return MulticallResult{OK: true, Data: raffle.Entries}
	case MulticallTotalTickets:
		return MulticallResult{OK: true, Data: raffle.TotalTickets}
	case MulticallWinner:
		return MulticallResult{OK: true, Data: raffle.Winner}
	default:
		return MulticallResult{Error: fmt.Sprintf("unknown method %q", call.Method)}
	}
}
