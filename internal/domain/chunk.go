package domain

import "time"

// ContentItem is a knowledge-base article as owned by the surrounding
// application. This subsystem only reads it.
type ContentItem struct {
	ID            string    `json:"id"             db:"id"`
	Title         string    `json:"title"          db:"title"`
	Body          string    `json:"body"           db:"body"`
	CategoryID    string    `json:"category_id"    db:"category_id"`
	SubcategoryID string    `json:"subcategory_id" db:"subcategory_id"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// ContentChunk is one embedded segment of a content item, stored in pgvector.
// Chunks for an item are written only by the ingest service, which replaces
// the full set per ingestion generation.
type ContentChunk struct {
	ID            string    `json:"id"              db:"id"`
	ContentItemID string    `json:"content_item_id" db:"content_item_id"`
	ChunkIndex    int       `json:"chunk_index"     db:"chunk_index"`
	ChunkText     string    `json:"chunk_text"      db:"chunk_text"`
	Vector        []float32 `json:"-"               db:"embedding"`
	CreatedAt     time.Time `json:"created_at"      db:"created_at"`
}

// ChunkMatch is a raw similarity hit as returned by the vector index,
// before the ranker shapes it for the API.
type ChunkMatch struct {
	ContentItemID string
	ChunkText     string
	Title         string
	Category      string
	Subcategory   string
	Similarity    float64
}

// SearchResult is the API-facing shape of a ranked hit. Similarity is an
// integer percentage in [0, 100]. Not persisted.
type SearchResult struct {
	ContentItemID string `json:"contentItemId"`
	Title         string `json:"title"`
	Excerpt       string `json:"excerpt"`
	Similarity    int    `json:"similarity"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
}
