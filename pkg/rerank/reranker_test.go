package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/models"
)

type fakeScorer struct {
	calls  int
	scores map[string]float64
	err    error
}

func (f *fakeScorer) ScorePairs(_ context.Context, pairs [][2]string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(pairs))
	for i, p := range pairs {
		out[i] = f.scores[p[1]]
	}
	return out, nil
}

func chunk(id, text string, score float64) models.Chunk {
	return models.Chunk{ChunkID: id, Text: text, Score: score}
}

func testRerankCfg() config.RerankConfig {
	cfg := config.Defaults().Rerank
	return cfg
}

func TestRerank(t *testing.T) {
	t.Run("skips when retrieval is already confident", func(t *testing.T) {
		scorer := &fakeScorer{}
		r := New(scorer, testRerankCfg())

		chunks := []models.Chunk{chunk("a", "조식 안내", 0.95), chunk("b", "주차 안내", 0.4)}
		got, quality := r.Rerank(context.Background(), "조식 시간", chunks, 5)

		assert.Equal(t, models.RerankSkipped, quality)
		assert.Len(t, got, 2)
		assert.Equal(t, 0, scorer.calls)
	})

	t.Run("orders by rerank score and restores original score", func(t *testing.T) {
		scorer := &fakeScorer{scores: map[string]float64{
			"수영장 운영 시간 06:00-22:00": 4.0,
			"조식 뷔페 안내":             -1.0,
			"피트니스 위치":              0.5,
		}}
		r := New(scorer, testRerankCfg())

		chunks := []models.Chunk{
			chunk("a", "조식 뷔페 안내", 0.71),
			chunk("b", "수영장 운영 시간 06:00-22:00", 0.70),
			chunk("c", "피트니스 위치", 0.69),
		}
		got, quality := r.Rerank(context.Background(), "수영장 몇시까지", chunks, 5)

		require.Equal(t, models.RerankOK, quality)
		require.NotEmpty(t, got)
		assert.Equal(t, "b", got[0].ChunkID)
		// Score must remain the retrieval similarity, not the rerank score.
		assert.Equal(t, 0.70, got[0].Score)
		require.NotNil(t, got[0].RerankScore)
		assert.Equal(t, 1.0, *got[0].RerankScore)
		require.NotNil(t, got[0].RerankRaw)
		assert.Equal(t, 4.0, *got[0].RerankRaw)
	})

	t.Run("absolute floor marks poor quality", func(t *testing.T) {
		scorer := &fakeScorer{scores: map[string]float64{
			"엉뚱한 내용": -8.0,
			"다른 내용":  -9.5,
		}}
		r := New(scorer, testRerankCfg())

		chunks := []models.Chunk{chunk("a", "엉뚱한 내용", 0.6), chunk("b", "다른 내용", 0.55)}
		_, quality := r.Rerank(context.Background(), "수영장", chunks, 5)

		assert.Equal(t, models.RerankPoor, quality)
	})

	t.Run("relative filter keeps min-keep and keyword matches", func(t *testing.T) {
		scorer := &fakeScorer{scores: map[string]float64{
			"수영장 심야 운영":  10.0,
			"관련성 희박한 글":  0.1,
			"약한 글":       0.2,
			"수영장 언급만 있음": 0.15,
		}}
		cfg := testRerankCfg()
		cfg.MinKeep = 1
		r := New(scorer, cfg)

		chunks := []models.Chunk{
			chunk("top", "수영장 심야 운영", 0.7),
			chunk("weak1", "관련성 희박한 글", 0.6),
			chunk("weak2", "약한 글", 0.55),
			chunk("kw", "수영장 언급만 있음", 0.5),
		}
		got, _ := r.Rerank(context.Background(), "수영장 운영", chunks, 5)

		ids := make([]string, 0, len(got))
		for _, c := range got {
			ids = append(ids, c.ChunkID)
		}
		assert.Contains(t, ids, "top")
		assert.Contains(t, ids, "kw", "keyword-bearing chunk survives the relative filter")
		assert.NotContains(t, ids, "weak2")
	})

	t.Run("scorer failure degrades to retrieval order", func(t *testing.T) {
		scorer := &fakeScorer{err: errors.New("model down")}
		r := New(scorer, testRerankCfg())

		chunks := []models.Chunk{chunk("a", "x", 0.7), chunk("b", "y", 0.6)}
		got, quality := r.Rerank(context.Background(), "수영장", chunks, 5)

		assert.Equal(t, models.RerankSkipped, quality)
		assert.Equal(t, "a", got[0].ChunkID)
	})

	t.Run("cache avoids rescoring identical pairs", func(t *testing.T) {
		scorer := &fakeScorer{scores: map[string]float64{"본문 a": 1.0, "본문 b": 2.0}}
		r := New(scorer, testRerankCfg())

		chunks := []models.Chunk{chunk("a", "본문 a", 0.6), chunk("b", "본문 b", 0.55)}
		r.Rerank(context.Background(), "질문", chunks, 5)
		r.Rerank(context.Background(), "질문", chunks, 5)

		assert.Equal(t, 1, scorer.calls)
		assert.Equal(t, 2, r.CacheLen())
	})
}

func TestScoreCacheFIFO(t *testing.T) {
	c := newScoreCache(2)
	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3)

	_, ok := c.get("a")
	assert.False(t, ok, "oldest entry evicted first")
	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}
