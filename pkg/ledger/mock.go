package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLedger is an in-memory Ledger used in mock mode and in tests.
// Accounts are created implicitly with a zero balance.
type MockLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMockLedger creates an empty in-memory ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{balances: make(map[string]int64)}
}

// Mint credits an account, for seeding test and demo balances.
func (m *MockLedger) Mint(account string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[normalize(account)] += amount
}

// TransferFrom moves amount from one account to another.
func (m *MockLedger) TransferFrom(_ context.Context, from, to string, amount int64) error {
	return m.move(from, to, amount)
}

// Transfer moves amount out of a custodied escrow account.
func (m *MockLedger) Transfer(_ context.Context, from, to string, amount int64) error {
	return m.move(from, to, amount)
}

// BalanceOf returns the balance of an account.
func (m *MockLedger) BalanceOf(_ context.Context, account string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[normalize(account)], nil
}

func (m *MockLedger) move(from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %d", amount)
	}
	from, to = normalize(from), normalize(to)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[from] < amount {
		return fmt.Errorf("%w: account %s has %d, needs %d", ErrInsufficientFunds, from, m.balances[from], amount)
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func normalize(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}
