package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleStatus represents the lifecycle status of a raffle
type RaffleStatus string

const (
	RaffleStatusPending   RaffleStatus = "PENDING"
	RaffleStatusOpen      RaffleStatus = "OPEN"
	RaffleStatusDrawing   RaffleStatus = "DRAWING"
	RaffleStatusSettled   RaffleStatus = "SETTLED"
	RaffleStatusCancelled RaffleStatus = "CANCELLED"
)

// ValidRaffleStatus reports whether s is one of the known statuses.
func ValidRaffleStatus(s RaffleStatus) bool {
	switch s {
	case RaffleStatusPending, RaffleStatusOpen, RaffleStatusDrawing, RaffleStatusSettled, RaffleStatusCancelled:
		return true
	}
	return false
}

// TicketPurchase is a single entry record. The interval
// [Offset, Offset+Count) identifies the tickets owned by Buyer,
// and the intervals of a raffle's entries partition [0, TotalTickets).
type TicketPurchase struct {
	Buyer       string    `bson:"buyer" json:"buyer"`
	Count       int64     `bson:"count" json:"count"`
	Offset      int64     `bson:"offset" json:"offset"`
	PurchasedAt time.Time `bson:"purchasedAt" json:"purchasedAt"`
}

// Raffle represents a single raffle instance. The configuration fields
// (creator, prize, token, prices, times, fee recipient) are captured from
// the factory policy at creation and never change afterwards; only the
// state fields below them are mutated by the engine.
type Raffle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Seq           int64              `bson:"seq" json:"seq"` // creation-order index
	Creator       string             `bson:"creator" json:"creator"`
	PrizeContract string             `bson:"prizeContract" json:"prizeContract"`
	PrizeTokenID  int64              `bson:"prizeTokenId" json:"prizeTokenId"`
	Token         string             `bson:"token" json:"token"`
	TicketPrice   int64              `bson:"ticketPrice" json:"ticketPrice"`
	EntryFee      int64              `bson:"entryFee" json:"entryFee"`
	FeeRecipient  string             `bson:"feeRecipient" json:"feeRecipient"`
	StartTime     time.Time          `bson:"startTime" json:"startTime"`
	EndTime       time.Time          `bson:"endTime" json:"endTime"`

	Status       RaffleStatus     `bson:"status" json:"status"`
	Entries      []TicketPurchase `bson:"entries" json:"entries"`
	TotalTickets int64            `bson:"totalTickets" json:"totalTickets"`
	Winner       string           `bson:"winner,omitempty" json:"winner,omitempty"`
	DrawnAt      time.Time        `bson:"drawnAt,omitempty" json:"drawnAt,omitempty"`

	// Settlement progress markers. Each transfer leg is recorded once it
	// has succeeded so a settlement retry never pays the same leg twice.
	FeePaid      bool `bson:"feePaid" json:"feePaid"`
	ProceedsPaid bool `bson:"proceedsPaid" json:"proceedsPaid"`
	PrizePaid    bool `bson:"prizePaid" json:"prizePaid"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Collected returns the total funds escrowed from ticket sales.
func (r *Raffle) Collected() int64 {
	return r.TotalTickets * r.TicketPrice
}

// RaffleFilter narrows ListRaffles results. The zero value matches all
// raffles; Creator and Status may be combined.
type RaffleFilter struct {
	Creator string
	Status  RaffleStatus
}
