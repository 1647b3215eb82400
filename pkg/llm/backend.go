package llm

import (
	"context"

	"github.com/seoulstay/concierge/pkg/models"
)

// Options are per-call generation parameters. Zero values fall back to the
// backend's configured defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
	NumCtx      int
}

// Backend is the narrow contract over a generation provider (local Ollama or
// Groq HTTP). Implementations must be safe for concurrent callers.
type Backend interface {
	// Chat runs a blocking chat completion over messages.
	Chat(ctx context.Context, messages []models.Message, opts Options) (string, error)

	// ChatStream runs a streaming completion, invoking emit for each token
	// fragment, and returns the full accumulated text.
	ChatStream(ctx context.Context, messages []models.Message, opts Options, emit func(token string)) (string, error)
}
