package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brightdocs/brightdocs/internal/domain"
	"github.com/brightdocs/brightdocs/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and bootstraps the tables owned
// by this subsystem. content_items and categories belong to the main
// application and are only read. dimension is the embedding vector width
// used for the chunk column and its ANN index.
func NewPostgresStore(databaseURL string, dimension int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background(), dimension); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ensureSchema creates the chunk and audit tables if they do not exist.
func (s *PostgresStore) ensureSchema(ctx context.Context, dimension int) error {
	for _, stmt := range schemaStatements(dimension) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// schemaStatements returns the bootstrap DDL. The embedding column is typed
// to the configured dimension so pgvector can maintain the HNSW cosine
// index. No unique constraint spans generations: during a replace
// transaction two generations of the same chunk_index coexist until the old
// one is deleted.
func schemaStatements(dimension int) []string {
	if dimension <= 0 {
		dimension = 1024
	}
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS content_chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			content_item_id UUID NOT NULL,
			generation UUID NOT NULL,
			chunk_index INT NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (content_item_id, generation, chunk_index)
		)`, dimension),
		`CREATE INDEX IF NOT EXISTS idx_content_chunks_item ON content_chunks (content_item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_content_chunks_embedding ON content_chunks USING hnsw (embedding vector_cosine_ops)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			resource TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

// --- Content items (read-only) ---

// GetContentItem returns a content item by ID, or port.ErrContentNotFound.
func (s *PostgresStore) GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error) {
	query := `SELECT id, title, COALESCE(body, ''), COALESCE(category_id::text, ''), COALESCE(subcategory_id::text, ''), updated_at
	          FROM content_items WHERE id = $1`

	var item domain.ContentItem
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Title, &item.Body, &item.CategoryID, &item.SubcategoryID, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}
	return &item, nil
}

// --- Audit log ---

// WriteAudit persists one audit record.
func (s *PostgresStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_log (user_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(query, userID, action, resource, resourceID, details, ip, userAgent)
	if err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}
