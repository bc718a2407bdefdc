package usage

import (
	"fmt"
	"sync"

	"billx/internal/domain"
)

// Ledger accumulates token counts across every provider call made during one
// request. A fresh ledger is created per request; Record is safe for
// concurrent use so pages may be processed in parallel.
type Ledger struct {
	mu           sync.Mutex
	inputTokens  int
	outputTokens int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record adds one call's token counts to the running totals. Negative counts
// are rejected; they can only come from a buggy estimate.
func (l *Ledger) Record(inputTokens, outputTokens int) error {
	if inputTokens < 0 || outputTokens < 0 {
		return fmt.Errorf("record(%d, %d): %w", inputTokens, outputTokens, domain.ErrNegativeTokenCount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inputTokens += inputTokens
	l.outputTokens += outputTokens
	return nil
}

// Snapshot returns the current totals without mutating state.
func (l *Ledger) Snapshot() domain.TokenUsage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.TokenUsage{
		TotalTokens:  l.inputTokens + l.outputTokens,
		InputTokens:  l.inputTokens,
		OutputTokens: l.outputTokens,
	}
}

// Reset returns all counters to zero. Only needed when a ledger instance is
// reused across requests; the service creates a fresh one per request.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inputTokens = 0
	l.outputTokens = 0
}
