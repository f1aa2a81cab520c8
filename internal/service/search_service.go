package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/brightdocs/brightdocs/internal/domain"
	"github.com/brightdocs/brightdocs/internal/port"
)

// SearchConfig tunes the search ranker.
type SearchConfig struct {
	MaxLimit      int // hard ceiling on requested result counts
	ExcerptLength int // excerpt budget in runes
}

const excerptMarker = "…"

// SearchService answers natural-language queries by nearest-neighbor
// similarity over the stored chunk embeddings. Pure reads; no locking.
type SearchService struct {
	ai    port.EmbeddingProvider
	index port.VectorIndex
	cfg   SearchConfig
}

// NewSearchService creates a new search ranker.
func NewSearchService(ai port.EmbeddingProvider, index port.VectorIndex, cfg SearchConfig) *SearchService {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 50
	}
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = 200
	}
	return &SearchService{ai: ai, index: index, cfg: cfg}
}

// Search embeds the query, runs the similarity search, and shapes the hits
// for display. Result order comes from the store and is preserved. limit is
// clamped to [1, MaxLimit], never rejected; categoryID narrows the search
// when non-empty.
func (s *SearchService) Search(ctx context.Context, query string, limit int, categoryID string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", port.ErrInvalidInput)
	}

	if limit < 1 {
		limit = 1
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	queryVector, err := s.ai.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: embed query: %v", port.ErrEmbedding, err)
	}

	matches, err := s.index.Search(ctx, queryVector, limit, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrVectorStore, err)
	}

	slog.Info("kb search", "query", query, "category_id", categoryID, "hits", len(matches))

	results := make([]domain.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = domain.SearchResult{
			ContentItemID: m.ContentItemID,
			Title:         m.Title,
			Excerpt:       excerpt(m.ChunkText, s.cfg.ExcerptLength),
			Similarity:    similarityPercent(m.Similarity),
			Category:      m.Category,
			Subcategory:   m.Subcategory,
		}
	}
	return results, nil
}

// similarityPercent maps a raw cosine similarity onto an integer percentage.
// pgvector's 1 - distance can fall below zero for near-opposite vectors, so
// the value is clamped to [0, 1] first.
func similarityPercent(raw float64) int {
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return int(math.Round(raw * 100))
}

// excerpt truncates chunk text to maxRunes with a marker.
func excerpt(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return strings.TrimRight(string(runes[:maxRunes]), " ") + excerptMarker
}
