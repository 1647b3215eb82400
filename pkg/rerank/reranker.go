package rerank

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/korean"
	"github.com/seoulstay/concierge/pkg/models"
)

// Reranker rescoring layer. Safe for concurrent callers; the score cache is
// the only shared state.
type Reranker struct {
	scorer PairScorer
	cfg    config.RerankConfig
	cache  *scoreCache
}

// New creates a reranker over the given pair scorer.
func New(scorer PairScorer, cfg config.RerankConfig) *Reranker {
	return &Reranker{
		scorer: scorer,
		cfg:    cfg,
		cache:  newScoreCache(cfg.CacheSize),
	}
}

// Rerank rescored the chunks against query and returns the filtered top-K
// with the overall quality marker ("ok", "poor", "skipped").
//
// Every returned chunk keeps Score as the original retrieval similarity;
// the cross-encoder's view lives in RerankScore/RerankRaw.
func (r *Reranker) Rerank(ctx context.Context, query string, chunks []models.Chunk, topK int) ([]models.Chunk, string) {
	if len(chunks) == 0 {
		return chunks, models.RerankSkipped
	}
	if topK <= 0 || topK > len(chunks) {
		topK = len(chunks)
	}

	// High-confidence retrieval skips the cross-encoder entirely.
	maxOriginal := chunks[0].Score
	for _, c := range chunks[1:] {
		if c.Score > maxOriginal {
			maxOriginal = c.Score
		}
	}
	if maxOriginal >= r.cfg.SkipThreshold {
		return chunks[:topK], models.RerankSkipped
	}

	raws, err := r.scoreAll(ctx, query, chunks)
	if err != nil {
		slog.Warn("Cross-encoder scoring failed, keeping retrieval order", "error", err)
		return chunks[:topK], models.RerankSkipped
	}

	quality := models.RerankOK
	maxRaw, minRaw := raws[0], raws[0]
	for _, s := range raws[1:] {
		if s > maxRaw {
			maxRaw = s
		}
		if s < minRaw {
			minRaw = s
		}
	}

	// Min-max normalization hides the case where everything is irrelevant;
	// the absolute floor on the raw scores catches it.
	if maxRaw < r.cfg.AbsoluteFloor {
		quality = models.RerankPoor
	}

	span := maxRaw - minRaw
	scored := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		orig := c.Score
		raw := raws[i]
		norm := 1.0
		if span > 0 {
			norm = (raw - minRaw) / span
		}
		c.OriginalScore = &orig
		c.RerankRaw = &raw
		c.RerankScore = &norm
		scored[i] = c
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].RerankScore > *scored[j].RerankScore
	})

	kept := r.applyRelativeFilter(query, scored)
	if len(kept) > topK {
		kept = kept[:topK]
	}

	// Score stays retrieval similarity for everything downstream.
	for i := range kept {
		if kept[i].OriginalScore != nil {
			kept[i].Score = *kept[i].OriginalScore
		}
	}
	return kept, quality
}

// scoreAll resolves raw scores through the cache, batching only the misses.
func (r *Reranker) scoreAll(ctx context.Context, query string, chunks []models.Chunk) ([]float64, error) {
	raws := make([]float64, len(chunks))
	var missIdx []int
	var missPairs [][2]string

	for i, c := range chunks {
		key := pairKey(query, c.Text)
		if score, hit := r.cache.get(key); hit {
			raws[i] = score
			continue
		}
		missIdx = append(missIdx, i)
		missPairs = append(missPairs, [2]string{query, c.Text})
	}

	if len(missPairs) > 0 {
		scores, err := r.scorer.ScorePairs(ctx, missPairs)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			raws[i] = scores[j]
			r.cache.put(pairKey(query, chunks[i].Text), scores[j])
		}
	}
	return raws, nil
}

// applyRelativeFilter drops chunks far below the best rerank score, unless
// they are within the first MinKeep or textually contain a query keyword.
func (r *Reranker) applyRelativeFilter(query string, sorted []models.Chunk) []models.Chunk {
	if len(sorted) == 0 {
		return sorted
	}
	top := *sorted[0].RerankScore
	cutoff := top * r.cfg.RelativeThreshold
	keywords := korean.Tokens(query)

	kept := make([]models.Chunk, 0, len(sorted))
	for i, c := range sorted {
		switch {
		case *c.RerankScore >= cutoff:
			kept = append(kept, c)
		case i < r.cfg.MinKeep:
			kept = append(kept, c)
		case containsAnyKeyword(c.Text, keywords):
			kept = append(kept, c)
		}
	}
	return kept
}

func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CacheLen reports the number of cached pair scores.
func (r *Reranker) CacheLen() int { return r.cache.len() }
