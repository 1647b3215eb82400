// Package pipeline runs a chat request through the fixed nine-node graph:
// rewrite, preprocess, clarification, retrieval, evidence gate, compose,
// verify, policy filter, and audit log. Each node owns the record fields it
// writes; the orchestrator never reorders nodes.
package pipeline

import (
	"time"

	"github.com/seoulstay/concierge/pkg/models"
	"github.com/seoulstay/concierge/pkg/session"
)

// Record is the mutable per-request state threaded through the nodes. It is
// exclusively owned by the in-flight request.
type Record struct {
	// Set by the caller, read-only inside the pipeline.
	Query   string
	Hotel   string
	History []models.Message
	Session *session.Context

	// queryRewrite
	RewrittenQuery string
	LLMFailed      bool

	// preprocess
	Language         string
	DetectedHotel    string
	DetectedCategory string
	NormalizedQuery  string
	IsValidQuery     bool
	RestaurantEntity models.RestaurantEntity
	RedirectMessage  string

	// clarificationCheck
	NeedsClarification    bool
	ClarificationQuestion string
	ClarificationOptions  []string
	ClarificationType     string

	// retrieve
	RetrievedChunks   []models.Chunk
	TopScore          float64
	RerankQuality     string
	ConversationTopic string
	EffectiveCategory string

	// evidenceGate
	EvidencePassed bool
	EvidenceReason string

	// compose
	Answer  string
	Sources []string

	// verify
	VerificationPassed bool
	VerificationIssues []string
	VerifiedAnswer     string
	Grounding          models.GroundingResult
	QueryIntents       []string

	// policyFilter
	PolicyPassed bool
	PolicyReason string
	FinalAnswer  string

	start   time.Time
	timings map[string]time.Duration
}

// newRecord stamps the pipeline start time.
func newRecord(query, hotel string, history []models.Message, sess *session.Context) *Record {
	return &Record{
		Query:   query,
		Hotel:   hotel,
		History: history,
		Session: sess,
		start:   time.Now(),
		timings: make(map[string]time.Duration),
	}
}

// Elapsed returns total wall-clock time since the pipeline started.
func (r *Record) Elapsed() time.Duration { return time.Since(r.start) }

func (r *Record) recordTiming(node string, since time.Time) {
	r.timings[node] = time.Since(since)
}

// lastUserMessages returns up to n most recent user turns, oldest first.
func (r *Record) lastUserMessages(n int) []models.Message {
	var users []models.Message
	for _, m := range r.History {
		if m.Role == models.RoleUser {
			users = append(users, m)
		}
	}
	if len(users) > n {
		users = users[len(users)-n:]
	}
	return users
}
