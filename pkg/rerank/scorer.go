// Package rerank rescoring: a cross-encoder scores (query, chunk) pairs and
// the reranker applies absolute and relative quality gates on top.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/seoulstay/concierge/pkg/config"
)

// PairScorer is the narrow contract over the cross-encoder model service.
// Scores are raw (unnormalized) relevance logits; higher is more relevant.
type PairScorer interface {
	ScorePairs(ctx context.Context, pairs [][2]string) ([]float64, error)
}

// HTTPScorer calls an external cross-encoder scoring service.
type HTTPScorer struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPScorer creates a scorer for the configured service.
func NewHTTPScorer(cfg config.RerankConfig) *HTTPScorer {
	return &HTTPScorer{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.ScorerURL, "/"),
	}
}

type scoreRequest struct {
	Pairs [][2]string `json:"pairs"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
	Error  string    `json:"error,omitempty"`
}

// ScorePairs implements PairScorer.
func (s *HTTPScorer) ScorePairs(ctx context.Context, pairs [][2]string) ([]float64, error) {
	payload, err := json.Marshal(scoreRequest{Pairs: pairs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorer request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("scorer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode scorer response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("scorer error: %s", out.Error)
	}
	if len(out.Scores) != len(pairs) {
		return nil, fmt.Errorf("scorer returned %d scores for %d pairs", len(out.Scores), len(pairs))
	}
	return out.Scores, nil
}
