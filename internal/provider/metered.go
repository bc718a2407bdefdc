package provider

import (
	"context"
	"log"

	"billx/internal/port"
	"billx/internal/usage"
)

// Metered wraps a Completer and records the token counts of every successful
// call to a request-scoped ledger before returning. Failed calls record
// nothing and propagate unchanged.
type Metered struct {
	base   port.Completer
	ledger *usage.Ledger
}

// NewMetered wraps base so its usage is recorded in ledger.
func NewMetered(base port.Completer, ledger *usage.Ledger) *Metered {
	return &Metered{base: base, ledger: ledger}
}

func (m *Metered) Complete(ctx context.Context, systemPrompt, userPrompt string) (*port.Completion, error) {
	out, err := m.base.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	if err := m.ledger.Record(out.InputTokens, out.OutputTokens); err != nil {
		// A negative count means the backend or estimate is broken; the
		// completion itself is still usable.
		log.Printf("provider.Metered: dropping usage record: %v", err)
	}
	return out, nil
}
