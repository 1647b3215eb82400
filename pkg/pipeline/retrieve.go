package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/korean"
	"github.com/seoulstay/concierge/pkg/models"
	"github.com/seoulstay/concierge/pkg/vector"
)

const (
	retrieveTopK      = 5
	minStrippedRunes  = 3
	maxSynonyms       = 3
	cacheSkipMinHits  = 2
	cacheSkipMinScore = 0.7
)

// retrieve produces the ranked evidence set: session-aware query shaping,
// cache-first lookup, vector search with conditional category filter, and
// reranking.
func (p *Pipeline) retrieve(ctx context.Context, rec *Record) {
	defer rec.recordTiming("retrieve", time.Now())

	searchQuery := stripHotelNames(rec.NormalizedQuery)

	topic := topicFromHistory(rec)
	rec.ConversationTopic = topic

	// Reinforce a bare follow-up with the session topic's canonical phrase.
	if topic != "" && !config.TopicHasKeyword(searchQuery, topic) {
		searchQuery = searchQuery + " " + config.TopicCanonical(topic)
	}

	rec.EffectiveCategory = effectiveCategory(rec, topic)

	cached := p.cachedCandidates(rec, topic, searchQuery)
	if len(cached) >= cacheSkipMinHits && cached[0].Score >= cacheSkipMinScore {
		slog.Debug("Serving retrieval from session cache", "hits", len(cached))
		p.finishRetrieve(ctx, rec, searchQuery, cached)
		return
	}

	expanded := expandQuery(searchQuery)
	results, err := p.index.Search(ctx, vector.Query{
		Text:     expanded,
		Hotel:    rec.DetectedHotel,
		Category: rec.EffectiveCategory,
		TopK:     retrieveTopK,
	})
	if err != nil {
		slog.Error("Vector search failed", "error", err)
		results = nil
	}

	// A tight category filter can starve a legitimate query.
	if len(results) < 2 && rec.EffectiveCategory != "" {
		more, err := p.index.Search(ctx, vector.Query{
			Text:  expanded,
			Hotel: rec.DetectedHotel,
			TopK:  retrieveTopK,
		})
		if err == nil && len(more) > len(results) {
			results = more
		}
	}

	merged := mergeByChunkID(cached, results)
	p.finishRetrieve(ctx, rec, searchQuery, merged)
}

func (p *Pipeline) finishRetrieve(ctx context.Context, rec *Record, searchQuery string, chunks []models.Chunk) {
	if len(chunks) > retrieveTopK {
		chunks = chunks[:retrieveTopK]
	}

	chunks, quality := p.reranker.Rerank(ctx, searchQuery, chunks, retrieveTopK)
	rec.RetrievedChunks = chunks
	rec.RerankQuality = quality

	for _, c := range chunks {
		if c.Score > rec.TopScore {
			rec.TopScore = c.Score
		}
	}
	slog.Debug("Retrieval complete",
		"chunks", len(chunks), "top_score", rec.TopScore, "rerank", quality)
}

// stripHotelNames removes hotel aliases so the embedding keys on the actual
// subject. Skipped when too little text would remain.
func stripHotelNames(q string) string {
	stripped := korean.NormalizeSpace(config.StripHotelAliases(q))
	if utf8.RuneCountInString(stripped) < minStrippedRunes {
		return q
	}
	return stripped
}

// topicFromHistory walks the last three user turns newest-first, falling
// back to the session's current topic.
func topicFromHistory(rec *Record) string {
	if t := config.DetectTopic(rec.NormalizedQuery); t != "" {
		return t
	}
	users := rec.lastUserMessages(3)
	for i := len(users) - 1; i >= 0; i-- {
		if t := config.DetectTopic(users[i].Content); t != "" {
			return t
		}
	}
	if rec.Session != nil {
		return rec.Session.Snapshot().CurrentTopic
	}
	return ""
}

// effectiveCategory drops the category filter on follow-up turns whose
// detected category disagrees with the conversation topic; the reranker is
// better at relevance than a hard filter there.
func effectiveCategory(rec *Record, topic string) string {
	if rec.DetectedCategory == "" {
		return ""
	}
	if len(rec.History) > 0 && topic != "" && config.TopicCategory[topic] != rec.DetectedCategory {
		return ""
	}
	return rec.DetectedCategory
}

// cachedCandidates keyword-scores the session's cached chunks when they
// belong to the same topic as this turn.
func (p *Pipeline) cachedCandidates(rec *Record, topic, searchQuery string) []models.Chunk {
	if rec.Session == nil || topic == "" {
		return nil
	}
	snap := rec.Session.Snapshot()
	if len(snap.LastChunks) == 0 || snap.CurrentTopic != topic {
		return nil
	}

	queryToks := korean.Tokens(searchQuery)
	scored := make([]models.Chunk, 0, len(snap.LastChunks))
	for _, c := range snap.LastChunks {
		overlap := tokenOverlap(queryToks, c.Text)
		boost := 0.0
		if config.TopicHasKeyword(c.Text, topic) {
			boost = 0.1
		}
		c.Score = 0.5*c.Score + 0.4*overlap + boost
		if c.Score > 1 {
			c.Score = 1
		}
		scored = append(scored, c)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > retrieveTopK {
		scored = scored[:retrieveTopK]
	}
	return scored
}

func tokenOverlap(queryToks []string, text string) float64 {
	if len(queryToks) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range queryToks {
		if strings.Contains(text, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryToks))
}

// expandQuery appends up to three synonyms from the longest matching
// dictionary entry, skipping words already present.
func expandQuery(q string) string {
	var best *config.SynonymEntry
	for i := range config.Synonyms {
		entry := &config.Synonyms[i]
		if !strings.Contains(q, entry.Term) {
			continue
		}
		if best == nil || len(entry.Term) > len(best.Term) {
			best = entry
		}
	}
	if best == nil {
		return q
	}

	added := 0
	expanded := q
	for _, syn := range best.Synonyms {
		if added >= maxSynonyms {
			break
		}
		if strings.Contains(q, syn) {
			continue
		}
		expanded += " " + syn
		added++
	}
	return expanded
}

// mergeByChunkID unions cache and search results, preferring the higher
// score for duplicates, and resorts by score.
func mergeByChunkID(cached, fresh []models.Chunk) []models.Chunk {
	byID := make(map[string]models.Chunk, len(cached)+len(fresh))
	var order []string
	for _, c := range append(append([]models.Chunk{}, cached...), fresh...) {
		if prev, ok := byID[c.ChunkID]; !ok {
			byID[c.ChunkID] = c
			order = append(order, c.ChunkID)
		} else if c.Score > prev.Score {
			byID[c.ChunkID] = c
		}
	}
	out := make([]models.Chunk, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
