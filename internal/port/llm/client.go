// Package llm defines the model backend port (interface).
package llm

import (
	"context"

	"github.com/Strob0t/StatForge/internal/domain/conversation"
)

// ChatOptions tunes a single chat completion.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int // 0 = backend default
}

// Client sends a conversation to a language model and returns its text reply.
// Any non-2xx response or transport failure is returned as an error.
type Client interface {
	Chat(ctx context.Context, messages []conversation.Message, opts ChatOptions) (string, error)
	IsAvailable(ctx context.Context) bool
	ModelExists(ctx context.Context) (bool, error)
	Model() string
}
