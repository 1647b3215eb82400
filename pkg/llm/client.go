// Package llm provides the single-entry generation client: one Call method
// with timeout, bounded retry, a per-prompt LRU cache, and optional
// request-scoped token streaming over an Ollama or Groq backend.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/models"
)

// Client is the process-wide generation entry point. It is safe for
// concurrent callers.
type Client struct {
	backend Backend
	cfg     config.LLMConfig
	cache   *lruCache
}

// NewClient selects the backend from configuration: Groq when enabled,
// otherwise local Ollama.
func NewClient(cfg config.LLMConfig) *Client {
	var backend Backend
	if cfg.UseGroq {
		backend = NewGroqBackend(cfg)
		slog.Info("LLM backend: groq", "model", cfg.GroqModel)
	} else {
		backend = NewOllamaBackend(cfg)
		slog.Info("LLM backend: ollama", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
	}
	return NewClientWithBackend(cfg, backend)
}

// NewClientWithBackend wires an explicit backend; used by tests.
func NewClientWithBackend(cfg config.LLMConfig, backend Backend) *Client {
	var cache *lruCache
	if cfg.CacheEnabled && cfg.CacheSize > 0 {
		cache = newLRUCache(cfg.CacheSize)
	}
	return &Client{backend: backend, cfg: cfg, cache: cache}
}

// Call runs one generation. The outcome is an explicit sum: OK with text,
// Timeout (never retried, never cached), or Failure after retries.
//
// When the context carries a token sink, the cache is bypassed and tokens
// are emitted incrementally; a streaming error falls back to one blocking
// call so the caller still gets an answer.
func (c *Client) Call(ctx context.Context, prompt, system string, opts Options) Outcome {
	messages := buildMessages(prompt, system)

	if sink, streaming := SinkFrom(ctx); streaming {
		out := c.callStream(ctx, messages, opts, sink)
		if out.Kind != OutcomeFailure {
			return out
		}
		slog.Warn("Streaming call failed, falling back to blocking", "error", out.Err)
		// fall through to the blocking path
	}

	key := cacheKey(prompt, system, opts)
	if c.cache != nil {
		if text, hit := c.cache.get(key); hit {
			return ok(text)
		}
	}

	out := c.callBlocking(ctx, messages, opts)
	if out.OK() && c.cache != nil {
		c.cache.put(key, out.Text)
	}
	return out
}

func (c *Client) callStream(ctx context.Context, messages []models.Message, opts Options, sink TokenSink) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	text, err := c.backend.ChatStream(callCtx, messages, opts, func(token string) { sink(token) })
	switch {
	case err == nil:
		return ok(text)
	case errors.Is(err, context.DeadlineExceeded):
		return timeout(err)
	default:
		return failure(err)
	}
}

// callBlocking retries transient failures up to MaxRetries. A timeout is
// returned immediately: retrying against an overloaded local model only
// deepens the overload.
func (c *Client) callBlocking(ctx context.Context, messages []models.Message, opts Options) Outcome {
	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		text, err := c.backend.Chat(callCtx, messages, opts)
		cancel()

		if err == nil {
			return ok(text)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("LLM call timed out", "timeout", c.cfg.Timeout, "attempt", attempt)
			return timeout(err)
		}
		lastErr = err
		slog.Warn("LLM call failed", "attempt", attempt, "error", err)
		if attempt < attempts {
			// brief linear backoff before the retry
			select {
			case <-ctx.Done():
				return failure(ctx.Err())
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
	}
	return failure(lastErr)
}

func buildMessages(prompt, system string) []models.Message {
	messages := make([]models.Message, 0, 2)
	if system != "" {
		messages = append(messages, models.Message{Role: models.RoleSystem, Content: system})
	}
	messages = append(messages, models.Message{Role: models.RoleUser, Content: prompt})
	return messages
}

// CacheLen reports the number of cached responses; zero when disabled.
func (c *Client) CacheLen() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.len()
}
