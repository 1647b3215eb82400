package llm

import (
	"bufio"
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

// OllamaBackend talks to a local Ollama server over its /api/chat endpoint.
type OllamaBackend struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.LLMConfig
}

// NewOllamaBackend creates a backend for the configured Ollama host. The
// http.Client carries no timeout of its own; deadlines come from the caller
// context so streaming calls are not cut off mid-token.
func NewOllamaBackend(cfg config.LLMConfig) *OllamaBackend {
	return &OllamaBackend{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.OllamaURL, "/"),
		cfg:        cfg,
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
	NumThread   int     `json:"num_thread,omitempty"`
	NumGPU      int     `json:"num_gpu"`
	NumBatch    int     `json:"num_batch,omitempty"`
}

type ollamaChatRequest struct {
	Model     string           `json:"model"`
	Messages  []models.Message `json:"messages"`
	Stream    bool             `json:"stream"`
	KeepAlive string           `json:"keep_alive,omitempty"`
	Options   ollamaOptions    `json:"options"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (b *OllamaBackend) buildRequest(messages []models.Message, opts Options, stream bool) ollamaChatRequest {
	numCtx := opts.NumCtx
	if numCtx == 0 {
		numCtx = b.cfg.NumCtx
	}
	return ollamaChatRequest{
		Model:     b.cfg.OllamaModel,
		Messages:  messages,
		Stream:    stream,
		KeepAlive: b.cfg.KeepAlive,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
			NumCtx:      numCtx,
			NumThread:   b.cfg.NumThread,
			NumGPU:      b.cfg.NumGPU,
			NumBatch:    b.cfg.NumBatch,
		},
	}
}

func (b *OllamaBackend) post(ctx context.Context, reqBody ollamaChatRequest) (*http.Response, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// Chat implements Backend.
func (b *OllamaBackend) Chat(ctx context.Context, messages []models.Message, opts Options) (string, error) {
	resp, err := b.post(ctx, b.buildRequest(messages, opts, false))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return out.Message.Content, nil
}

// ChatStream implements Backend. Ollama streams newline-delimited JSON
// chunks; each carries a message fragment until done=true.
func (b *OllamaBackend) ChatStream(ctx context.Context, messages []models.Message, opts Options, emit func(token string)) (string, error) {
	resp, err := b.post(ctx, b.buildRequest(messages, opts, true))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return full.String(), fmt.Errorf("decode ollama stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return full.String(), fmt.Errorf("ollama stream error: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			emit(chunk.Message.Content)
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read ollama stream: %w", err)
	}
	return full.String(), nil
}
