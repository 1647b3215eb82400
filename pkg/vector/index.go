// Package vector defines the narrow retrieval contract the pipeline consumes
// and an embedded implementation backed by sqvect (SQLite vector store).
// Index construction and bulk ingestion live outside this service; the
// adapter only searches and, for tooling and tests, upserts.
package vector

import (
	"context"

	"github.com/seoulstay/concierge/pkg/models"
)

// Query is one similarity search. Hotel and Category are optional metadata
// filters; empty means unfiltered.
type Query struct {
	Text     string
	Hotel    string
	Category string
	TopK     int
}

// Index is the capability contract over the vector store. Score on returned
// chunks is similarity in [0,1] (1 - distance).
type Index interface {
	Search(ctx context.Context, q Query) ([]models.Chunk, error)
	Close() error
}

// Embedder converts query text into a vector. The production implementation
// calls the Ollama embeddings endpoint.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
