package models

import (
	"fmt"
	"time"
)

// Policy is the factory-wide creation policy. A single document holds the
// current policy; every raffle copies the fields it needs at creation time,
// so later policy updates never affect raffles already deployed.
type Policy struct {
	Token        string    `bson:"token" json:"token"`
	FeeRecipient string    `bson:"feeRecipient" json:"feeRecipient"`
	MinDuration  int64     `bson:"minDuration" json:"minDuration"` // seconds, > 0
	EntryFee     int64     `bson:"entryFee" json:"entryFee"`       // flat per-raffle platform fee, >= 0
	TicketPrice  int64     `bson:"ticketPrice" json:"ticketPrice"` // price per ticket, > 0
	UpdatedBy    string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the policy bounds enforced on every update.
func (p *Policy) Validate() error {
	if p.Token == "" {
		return fmt.Errorf("%w: accounting token is required", ErrPolicyViolation)
	}
	if p.FeeRecipient == "" {
		return fmt.Errorf("%w: fee recipient is required", ErrPolicyViolation)
	}
	if p.MinDuration <= 0 {
		return fmt.Errorf("%w: minimum duration must be positive", ErrPolicyViolation)
	}
	if p.EntryFee < 0 {
		return fmt.Errorf("%w: entry fee cannot be negative", ErrPolicyViolation)
	}
	if p.TicketPrice <= 0 {
		return fmt.Errorf("%w: ticket price must be positive", ErrPolicyViolation)
	}
	return nil
}
