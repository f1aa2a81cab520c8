package port

import (
	"context"

	"github.com/brightdocs/brightdocs/internal/domain"
)

// ContentSource resolves content items from the surrounding application's
// datastore. Read-only from this subsystem's point of view.
type ContentSource interface {
	// GetContentItem returns the item with the given ID, or ErrContentNotFound.
	GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error)
}

// VectorIndex persists embedded chunks and answers nearest-neighbor queries.
type VectorIndex interface {
	// ReplaceChunks atomically supersedes the full chunk set for a content
	// item. Chunks must arrive in chunk_index order. An empty slice clears
	// the item's chunks.
	ReplaceChunks(ctx context.Context, contentItemID string, chunks []domain.ContentChunk) error

	// Search returns up to limit matches ordered by decreasing similarity.
	// categoryID narrows the search when non-empty.
	Search(ctx context.Context, queryVector []float32, limit int, categoryID string) ([]domain.ChunkMatch, error)
}
