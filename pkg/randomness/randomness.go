// Package randomness supplies the seed consumed by a raffle draw. The
// engine takes a Source so deployments can substitute a verifiable
// randomness oracle or a commit-reveal scheme, and tests can supply
// deterministic seeds.
package randomness

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
)

// Source produces an unsigned seed that must not be predictable, at the
// time entries close, by any party who benefits from the outcome. The
// domain string binds the seed request to a specific draw.
type Source interface {
	NextSeed(ctx context.Context, domain string) (uint64, error)
}

// CryptoSource draws seeds from the operating system's CSPRNG.
type CryptoSource struct{}

// NewCryptoSource returns the default production Source.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// NextSeed reads 8 random bytes and returns them as a uint64.
func (s *CryptoSource) NextSeed(_ context.Context, _ string) (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read random seed: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// FixedSource replays a predetermined seed sequence. Intended for tests
// and local demos where draws must be reproducible.
type FixedSource struct {
	mu    sync.Mutex
	seeds []uint64
	next  int
}

// NewFixedSource returns a Source replaying the given seeds in order.
// Once exhausted it keeps returning the last seed.
func NewFixedSource(seeds ...uint64) *FixedSource {
	return &FixedSource{seeds: seeds}
}

// NextSeed returns the next predetermined seed.
func (s *FixedSource) NextSeed(_ context.Context, _ string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seeds) == 0 {
		return 0, fmt.Errorf("fixed source has no seeds")
	}
	seed := s.seeds[s.next]
	if s.next < len(s.seeds)-1 {
		s.next++
	}
	return seed, nil
}
