package port

import "context"

// Completion is the result of a single LLM call. Token counts come from the
// backend's usage report when available, otherwise from a length-based
// estimate.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Completer abstracts a chat/completion-style LLM backend behind one call
// shape: a system instruction plus a user message in, free-form text out.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error)
}
