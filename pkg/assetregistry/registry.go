// Package assetregistry provides ownership transfers for the unique prize
// assets escrowed by raffles. The engine depends only on the Registry
// interface; the production implementation talks to ERC721 contracts while
// the mock keeps ownership in memory.
package assetregistry

import (
	"context"
	"errors"
)

// ErrNotOwner is reported when a transfer is attempted by an identity that
// does not own the asset, or when the asset has already been transferred
// away. The engine surfaces it unchanged.
var ErrNotOwner = errors.New("sender does not own the asset")

// Registry transfers and inspects unique assets identified by
// (contract, tokenID).
type Registry interface {
	// Transfer moves the asset from its current owner to the recipient.
	Transfer(ctx context.Context, contract, from, to string, tokenID int64) error

	// OwnerOf returns the identity currently owning the asset.
	OwnerOf(ctx context.Context, contract string, tokenID int64) (string, error)
}
