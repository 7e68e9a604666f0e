package models

import "errors"

// Sentinel errors for the raffle engine and factory. Adapter-level errors
// (insufficient funds, not-owner) are defined alongside their adapters and
// surfaced unchanged; these cover everything the engine decides itself.
var (
	// ErrInvalidState means the operation is not valid for the raffle's
	// current status. Callers must re-query the raffle rather than retry.
	ErrInvalidState = errors.New("operation not valid for current raffle status")

	// ErrPolicyViolation means a creation-time parameter was rejected by
	// the factory policy.
	ErrPolicyViolation = errors.New("creation parameters violate factory policy")

	// ErrEscrowFailed means the prize transfer into a new raffle failed.
	// The raffle is never registered in this case.
	ErrEscrowFailed = errors.New("prize escrow transfer failed")

	// ErrUnauthorized means the caller lacks the role the operation requires.
	ErrUnauthorized = errors.New("caller lacks the required role")
)
