package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/brightdocs/brightdocs/internal/domain"
	"github.com/brightdocs/brightdocs/internal/port"
)

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	Chunking    ChunkConfig
	Dimension   int // expected embedding dimension; 0 disables the check
	Concurrency int // parallel embed calls per ingestion
}

// IngestService turns a content item's text into an embedded chunk set.
// It is the only writer of content chunks: every run replaces the item's
// previous generation wholesale.
type IngestService struct {
	content port.ContentSource
	ai      port.EmbeddingProvider
	index   port.VectorIndex
	cfg     IngestConfig

	// Per-item locks serialize racing re-ingestions of the same item.
	// Entries live for the process lifetime, bounded by catalog size.
	locks sync.Map
}

// NewIngestService creates a new ingestion pipeline.
func NewIngestService(content port.ContentSource, ai port.EmbeddingProvider, index port.VectorIndex, cfg IngestConfig) *IngestService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &IngestService{content: content, ai: ai, index: index, cfg: cfg}
}

// Ingest chunks, embeds, and stores the given content item, superseding any
// previous chunk set. It returns the number of chunks created. Nothing is
// written unless every chunk embedded successfully, so a failed or cancelled
// run leaves the previous generation authoritative.
func (s *IngestService) Ingest(ctx context.Context, contentItemID string) (int, error) {
	if strings.TrimSpace(contentItemID) == "" {
		return 0, fmt.Errorf("%w: contentItemId is required", port.ErrInvalidInput)
	}

	mu, _ := s.locks.LoadOrStore(contentItemID, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	item, err := s.content.GetContentItem(ctx, contentItemID)
	if err != nil {
		return 0, fmt.Errorf("resolve content item: %w", err)
	}

	texts := ChunkText(item.Body, s.cfg.Chunking)
	slog.Info("ingesting content item", "content_item_id", contentItemID, "chunks", len(texts), "model", s.ai.ModelName())

	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return 0, err
	}

	chunks := make([]domain.ContentChunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.ContentChunk{
			ContentItemID: contentItemID,
			ChunkIndex:    i,
			ChunkText:     text,
			Vector:        vectors[i],
		}
	}

	if err := s.index.ReplaceChunks(ctx, contentItemID, chunks); err != nil {
		return 0, fmt.Errorf("%w: replace chunks: %v", port.ErrVectorStore, err)
	}

	return len(chunks), nil
}

// embedAll fans out embedding calls with bounded concurrency and reassembles
// the vectors in chunk order. The first failure cancels the rest.
func (s *IngestService) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			vec, err := s.ai.Embed(ctx, text)
			if err != nil {
				fail(fmt.Errorf("chunk %d: %v", i, err))
				return
			}
			if s.cfg.Dimension > 0 && len(vec) != s.cfg.Dimension {
				fail(fmt.Errorf("chunk %d: vector dimension %d, want %d", i, len(vec), s.cfg.Dimension))
				return
			}
			vectors[i] = vec
		}(i, text)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrEmbedding, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
