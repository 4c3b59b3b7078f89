package ai

import (
	"fmt"
	"sync"
	"time"
)

// BudgetChecker checks and records token usage against budgets.
type BudgetChecker interface {
	// Check returns true if the user has budget remaining in the current window.
	Check(userID string) (bool, error)
	// Record records token usage for a user.
	Record(userID string, tokens int) error
	// Usage returns current usage and the limit for a user.
	Usage(userID string) (used int64, limit int64, err error)
}

// WindowBudget limits each user to a fixed number of tokens per time window
// (e.g. 200k tokens per 24h). A limit of 0 means unlimited.
type WindowBudget struct {
	mu     sync.Mutex
	limit  int64
	window time.Duration
	now    func() time.Time
	usage  map[string]*windowUsage
}

type windowUsage struct {
	start  time.Time
	tokens int64
}

// NewWindowBudget creates a new windowed budget tracker. now may be nil.
func NewWindowBudget(limit int64, window time.Duration, now func() time.Time) *WindowBudget {
	if now == nil {
		now = time.Now
	}
	return &WindowBudget{
		limit:  limit,
		window: window,
		now:    now,
		usage:  make(map[string]*windowUsage),
	}
}

func (b *WindowBudget) Check(userID string) (bool, error) {
	if b.limit <= 0 {
		return true, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current(userID).tokens < b.limit, nil
}

func (b *WindowBudget) Record(userID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current(userID).tokens += int64(tokens)
	return nil
}

func (b *WindowBudget) Usage(userID string) (int64, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current(userID).tokens, b.limit, nil
}

// current returns the user's usage, starting a new window when the old one has expired.
// Callers must hold b.mu.
func (b *WindowBudget) current(userID string) *windowUsage {
	now := b.now()
	u, ok := b.usage[userID]
	if !ok || (b.window > 0 && now.Sub(u.start) >= b.window) {
		u = &windowUsage{start: now}
		b.usage[userID] = u
	}
	return u
}
