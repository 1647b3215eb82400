package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/models"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// GroqBackend talks to the Groq OpenAI-compatible chat completion API.
type GroqBackend struct {
	httpClient *http.Client
	apiKey     string
	model      string
}

// NewGroqBackend creates a Groq-hosted backend.
func NewGroqBackend(cfg config.LLMConfig) *GroqBackend {
	return &GroqBackend{
		httpClient: &http.Client{},
		apiKey:     cfg.GroqKey,
		model:      cfg.GroqModel,
	}
}

type groqRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat implements Backend.
func (b *GroqBackend) Chat(ctx context.Context, messages []models.Message, opts Options) (string, error) {
	payload, err := json.Marshal(groqRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal groq request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groqEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("groq returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode groq response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("groq error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// ChatStream implements Backend. Groq is remote and fast; the blocking call
// is issued and the full text delivered as a single emit.
func (b *GroqBackend) ChatStream(ctx context.Context, messages []models.Message, opts Options, emit func(token string)) (string, error) {
	text, err := b.Chat(ctx, messages, opts)
	if err != nil {
		return "", err
	}
	emit(text)
	return text, nil
}
