// Package chatlog appends one JSONL record per answered request to a
// per-day file under the configured log directory.
package chatlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/seoulstay/concierge/pkg/models"
)

// Record is one request's audit entry.
type Record struct {
	Timestamp          string                 `json:"timestamp"`
	DurationMS         int64                  `json:"duration_ms"`
	SessionID          string                 `json:"session_id,omitempty"`
	Query              string                 `json:"query"`
	Hotel              string                 `json:"hotel,omitempty"`
	Category           string                 `json:"category,omitempty"`
	EvidencePassed     bool                   `json:"evidence_passed"`
	EvidenceReason     string                 `json:"evidence_reason,omitempty"`
	VerificationPassed bool                   `json:"verification_passed"`
	VerificationIssues []string               `json:"verification_issues,omitempty"`
	TopScore           float64                `json:"top_score"`
	ChunksCount        int                    `json:"chunks_count"`
	FinalAnswer        string                 `json:"final_answer"`
	Grounding          models.GroundingResult `json:"grounding_result"`
	QueryIntents       []string               `json:"query_intents,omitempty"`
	NodeTimingsMS      map[string]int64       `json:"node_timings_ms,omitempty"`
}

// Logger serializes appends to the current day's file. A nil Logger is a
// valid no-op, which keeps tests quiet.
type Logger struct {
	mu  sync.Mutex
	dir string
}

// New creates the log directory if needed and returns a Logger for it.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Logger{dir: dir}, nil
}

// Append writes rec as one JSON line to today's file. Failures are logged
// and swallowed: audit logging must never fail a request.
func (l *Logger) Append(rec Record) {
	if l == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("Failed to marshal chat log record", "error", err)
		return
	}

	path := filepath.Join(l.dir, "chat_"+time.Now().Format("20060102")+".jsonl")

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Error("Failed to open chat log file", "path", path, "error", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		slog.Error("Failed to append chat log record", "path", path, "error", err)
	}
}
