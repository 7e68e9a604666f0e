package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleEventType identifies an observable raffle lifecycle event
type RaffleEventType string

const (
	EventRaffleCreated      RaffleEventType = "RAFFLE_CREATED"
	EventEntryRecorded      RaffleEventType = "ENTRY_RECORDED"
	EventRefundedNoEntrants RaffleEventType = "REFUNDED_NO_ENTRANTS"
	EventWinnerSelected     RaffleEventType = "WINNER_SELECTED"
	EventSettled            RaffleEventType = "SETTLED"
	EventSettlementFailed   RaffleEventType = "SETTLEMENT_FAILED"
	EventRaffleCancelled    RaffleEventType = "RAFFLE_CANCELLED"
)

// RaffleEvent is an append-only record of something observable that
// happened to a raffle. Events are written best-effort: a failed event
// write is logged but never fails the operation that produced it.
type RaffleEvent struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RaffleID     primitive.ObjectID `bson:"raffleId" json:"raffleId"`
	Type         RaffleEventType    `bson:"type" json:"type"`
	Buyer        string             `bson:"buyer,omitempty" json:"buyer,omitempty"`
	Count        int64              `bson:"count,omitempty" json:"count,omitempty"`
	TotalTickets int64              `bson:"totalTickets,omitempty" json:"totalTickets,omitempty"`
	Winner       string             `bson:"winner,omitempty" json:"winner,omitempty"`
	Message      string             `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
