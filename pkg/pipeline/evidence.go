package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/seoulstay/concierge/pkg/models"
)

// evidenceGate decides whether retrieval produced enough support to let the
// model speak at all. Poor rerank quality is a hard fail even when raw
// scores look acceptable: min-max normalization hides the all-irrelevant
// case.
func (p *Pipeline) evidenceGate(rec *Record) {
	defer rec.recordTiming("evidence", time.Now())

	switch {
	case !rec.IsValidQuery:
		rec.EvidenceReason = "invalid-domain"
	case len(rec.RetrievedChunks) < p.cfg.MinChunksRequired:
		rec.EvidenceReason = "no-results"
	case rec.RerankQuality == models.RerankPoor:
		rec.EvidenceReason = "reranker-poor-quality"
	case rec.TopScore < p.cfg.EvidenceThreshold:
		rec.EvidenceReason = fmt.Sprintf("low-relevance (score=%.2f)", rec.TopScore)
	default:
		rec.EvidencePassed = true
		return
	}
	slog.Info("Evidence gate failed", "reason", rec.EvidenceReason, "query", rec.Query)
}
