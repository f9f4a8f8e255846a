package ai

import (
	"context"
	"errors"
)

// errNoText marks a provider reply that carried no text block.
var errNoText = errors.New("provider returned no text content")

// CompletionRequest is what a Provider needs to answer one prompt.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completion is a provider's raw answer.
type Completion struct {
	Content    string
	TokensUsed int
}

// Provider is a single LLM backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
