package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/seoulstay/concierge/pkg/chatlog"
	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/entity"
	"github.com/seoulstay/concierge/pkg/llm"
	"github.com/seoulstay/concierge/pkg/models"
	"github.com/seoulstay/concierge/pkg/rerank"
	"github.com/seoulstay/concierge/pkg/session"
	"github.com/seoulstay/concierge/pkg/vector"
	"github.com/seoulstay/concierge/pkg/verify"
)

// LLM is the generation capability the pipeline consumes.
type LLM interface {
	Call(ctx context.Context, prompt, system string, opts llm.Options) llm.Outcome
}

// Pipeline owns the singletons and runs requests through the node graph.
// It holds no per-request state; concurrent Run calls are independent.
type Pipeline struct {
	cfg      *config.Config
	llm      LLM
	index    vector.Index
	reranker *rerank.Reranker
	entities *entity.Resolver
	verifier *verify.Verifier
	sessions *session.Store
	log      *chatlog.Logger
}

// New wires the pipeline from its collaborators.
func New(cfg *config.Config, client LLM, index vector.Index, reranker *rerank.Reranker,
	verifier *verify.Verifier, sessions *session.Store, logger *chatlog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		llm:      client,
		index:    index,
		reranker: reranker,
		entities: entity.NewResolver(),
		verifier: verifier,
		sessions: sessions,
		log:      logger,
	}
}

// Request is one chat turn.
type Request struct {
	Query     string
	Hotel     string
	SessionID string
	History   []models.Message
}

// Run executes the node graph for one request and returns the completed
// record. Two conditional edges: a fired clarification jumps straight to
// the audit log, and an evidence miss skips compose and verify.
func (p *Pipeline) Run(ctx context.Context, req Request) *Record {
	sess := p.sessions.GetOrCreate(req.SessionID)
	rec := newRecord(req.Query, req.Hotel, req.History, sess)

	p.rewrite(ctx, rec)
	p.preprocess(rec)
	p.clarificationCheck(rec)

	if !rec.NeedsClarification {
		p.retrieve(ctx, rec)
		p.evidenceGate(rec)
		if rec.EvidencePassed {
			p.compose(ctx, rec)
			p.verifyAnswer(rec)
		}
		p.policyFilter(rec)
	}

	p.logRequest(rec)
	p.updateSession(rec)

	slog.Info("Pipeline complete",
		"query", rec.Query,
		"hotel", rec.DetectedHotel,
		"evidence", rec.EvidencePassed,
		"clarification", rec.NeedsClarification,
		"elapsed", rec.Elapsed())
	return rec
}

func (p *Pipeline) logRequest(rec *Record) {
	defer rec.recordTiming("log", time.Now())

	timings := make(map[string]int64, len(rec.timings))
	for node, d := range rec.timings {
		timings[node] = d.Milliseconds()
	}

	p.log.Append(chatlog.Record{
		Timestamp:          time.Now().Format(time.RFC3339),
		DurationMS:         rec.Elapsed().Milliseconds(),
		SessionID:          rec.Session.ID(),
		Query:              rec.Query,
		Hotel:              rec.DetectedHotel,
		Category:           rec.DetectedCategory,
		EvidencePassed:     rec.EvidencePassed,
		EvidenceReason:     rec.EvidenceReason,
		VerificationPassed: rec.VerificationPassed,
		VerificationIssues: rec.VerificationIssues,
		TopScore:           rec.TopScore,
		ChunksCount:        len(rec.RetrievedChunks),
		FinalAnswer:        rec.FinalAnswer,
		Grounding:          rec.Grounding,
		QueryIntents:       rec.QueryIntents,
		NodeTimingsMS:      timings,
	})
}

// updateSession writes topic and chunk state back once, after the pipeline
// finishes. The pipeline read session state once at the start; this is the
// single write.
func (p *Pipeline) updateSession(rec *Record) {
	if rec.Session == nil {
		return
	}
	rec.Session.UpdateTopic(rec.ConversationTopic, rec.DetectedHotel)
	if rec.EvidencePassed && len(rec.RetrievedChunks) > 0 {
		rec.Session.CacheChunks(rec.NormalizedQuery, rec.RetrievedChunks)
	}
}
