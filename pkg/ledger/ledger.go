// Package ledger provides access to the fungible accounting token used for
// ticket payments and payouts. The raffle engine only depends on the Ledger
// interface; the production implementation talks to an ERC20 contract while
// the mock keeps balances in memory.
package ledger

import (
	"context"
	"errors"
)

// ErrInsufficientFunds is reported by the ledger when a transfer cannot be
// covered by the payer's balance or allowance. The engine surfaces it
// unchanged and leaves raffle state untouched.
var ErrInsufficientFunds = errors.New("insufficient balance or allowance")

// Ledger moves accounting-token value between identities. Amounts are
// non-negative integers in the token's smallest unit; no rounding happens
// anywhere in this interface.
type Ledger interface {
	// TransferFrom moves amount from the payer to the recipient using the
	// payer's prior authorization.
	TransferFrom(ctx context.Context, from, to string, amount int64) error

	// Transfer moves amount out of an account custodied by this service
	// (a raffle escrow account) to the recipient.
	Transfer(ctx context.Context, from, to string, amount int64) error

	// BalanceOf returns the current balance of an account.
	BalanceOf(ctx context.Context, account string) (int64, error)
}
