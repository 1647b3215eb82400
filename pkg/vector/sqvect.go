package vector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/liliang-cn/cortexdb/v2/pkg/core"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/models"
)

// SqvectIndex implements Index over an embedded sqvect SQLite store.
type SqvectIndex struct {
	store    core.Store
	embedder Embedder
}

// OpenSqvect opens (or creates) the vector database at cfg.Path.
func OpenSqvect(cfg config.VectorConfig, embedder Embedder) (*SqvectIndex, error) {
	store, err := core.NewWithConfig(core.Config{
		Path:         cfg.Path,
		VectorDim:    cfg.Dimensions,
		SimilarityFn: core.CosineSimilarity,
		IndexType:    core.IndexTypeHNSW,
		HNSW:         core.DefaultHNSWConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	return &SqvectIndex{store: store, embedder: embedder}, nil
}

// Search implements Index.
func (s *SqvectIndex) Search(ctx context.Context, q Query) ([]models.Chunk, error) {
	if q.TopK <= 0 {
		q.TopK = 5
	}

	vec, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filter := make(map[string]string)
	if q.Hotel != "" {
		filter["hotel"] = q.Hotel
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}

	scored, err := s.store.Search(ctx, vec, core.SearchOptions{
		TopK:   q.TopK,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(scored))
	for _, se := range scored {
		chunks = append(chunks, chunkFromEmbedding(se))
	}
	return chunks, nil
}

// Close implements Index.
func (s *SqvectIndex) Close() error {
	return s.store.Close()
}

// UpsertChunk writes one chunk with its embedding. Used by index tooling and
// integration tests; the service itself never writes at request time.
func (s *SqvectIndex) UpsertChunk(ctx context.Context, chunk models.Chunk, vec []float32) error {
	if vec == nil {
		var err error
		vec, err = s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", chunk.ChunkID, err)
		}
	}
	return s.store.Upsert(ctx, &core.Embedding{
		ID:      chunk.ChunkID,
		DocID:   chunk.DocID,
		Vector:  vec,
		Content: chunk.Text,
		Metadata: map[string]string{
			"hotel":       chunk.Hotel,
			"hotel_name":  chunk.HotelName,
			"page_type":   chunk.PageType,
			"url":         chunk.URL,
			"category":    chunk.Category,
			"language":    chunk.Language,
			"updated_at":  chunk.UpdatedAt,
			"chunk_index": strconv.Itoa(chunk.ChunkIndex),
		},
	})
}

func chunkFromEmbedding(se core.ScoredEmbedding) models.Chunk {
	meta := se.Metadata
	idx, _ := strconv.Atoi(meta["chunk_index"])
	return models.Chunk{
		ChunkID:    se.ID,
		DocID:      se.DocID,
		Hotel:      meta["hotel"],
		HotelName:  meta["hotel_name"],
		PageType:   meta["page_type"],
		URL:        meta["url"],
		Category:   meta["category"],
		Language:   meta["language"],
		UpdatedAt:  meta["updated_at"],
		ChunkIndex: idx,
		Text:       se.Content,
		Score:      se.Score,
	}
}
