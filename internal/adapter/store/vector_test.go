package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdocs/brightdocs/internal/domain"
)

func TestVectorToString(t *testing.T) {
	assert.Equal(t, "[1,0.5,-0.25]", vectorToString([]float32{1, 0.5, -0.25}))
	assert.Equal(t, "[0]", vectorToString([]float32{0}))
	assert.Equal(t, "[]", vectorToString(nil))
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements(1536)
	ddl := strings.Join(stmts, "\n")

	// The embedding column is typed so pgvector can maintain the ANN index.
	assert.Contains(t, ddl, "embedding vector(1536) NOT NULL")
	assert.Contains(t, ddl, "USING hnsw (embedding vector_cosine_ops)")
	assert.Contains(t, ddl, "CREATE EXTENSION IF NOT EXISTS vector")
	assert.Contains(t, ddl, "UNIQUE (content_item_id, generation, chunk_index)")

	// A zero dimension falls back instead of emitting vector(0).
	assert.Contains(t, strings.Join(schemaStatements(0), "\n"), "vector(1024)")
}

// --- Recording driver ---
//
// A minimal database/sql driver that records every statement executed, so
// the replace transaction's ordering can be asserted without a live
// Postgres.

type recorder struct {
	mu    sync.Mutex
	stmts []string
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = append(r.stmts, s)
}

func (r *recorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmts...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = nil
}

type recDriver struct{ rec *recorder }

func (d *recDriver) Open(string) (driver.Conn, error) { return &recConn{rec: d.rec}, nil }

type recConn struct{ rec *recorder }

func (c *recConn) Prepare(query string) (driver.Stmt, error) {
	return &recStmt{rec: c.rec, query: query}, nil
}
func (c *recConn) Close() error { return nil }
func (c *recConn) Begin() (driver.Tx, error) {
	c.rec.record("BEGIN")
	return &recTx{rec: c.rec}, nil
}

type recTx struct{ rec *recorder }

func (t *recTx) Commit() error   { t.rec.record("COMMIT"); return nil }
func (t *recTx) Rollback() error { t.rec.record("ROLLBACK"); return nil }

type recStmt struct {
	rec   *recorder
	query string
}

func (s *recStmt) Close() error  { return nil }
func (s *recStmt) NumInput() int { return -1 }
func (s *recStmt) Exec([]driver.Value) (driver.Result, error) {
	s.rec.record(s.query)
	return driver.RowsAffected(1), nil
}
func (s *recStmt) Query([]driver.Value) (driver.Rows, error) {
	s.rec.record(s.query)
	return &recRows{}, nil
}

type recRows struct{}

func (r *recRows) Columns() []string         { return nil }
func (r *recRows) Close() error              { return nil }
func (r *recRows) Next([]driver.Value) error { return io.EOF }

var (
	recorderOnce sync.Once
	sharedRec    = &recorder{}
)

func openRecordingStore(t *testing.T) (*PostgresStore, *recorder) {
	t.Helper()
	recorderOnce.Do(func() {
		sql.Register("recorder", &recDriver{rec: sharedRec})
	})
	sharedRec.reset()

	db, err := sql.Open("recorder", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{db: db}, sharedRec
}

// --- ReplaceChunks transaction ordering ---

func TestReplaceChunks_InsertsNewGenerationBeforeDeletingOld(t *testing.T) {
	pg, rec := openRecordingStore(t)
	vs := NewVectorStore(pg, 3)

	chunks := []domain.ContentChunk{
		{ContentItemID: "item-1", ChunkIndex: 0, ChunkText: "first", Vector: []float32{1, 0, 0}},
		{ContentItemID: "item-1", ChunkIndex: 1, ChunkText: "second", Vector: []float32{0, 1, 0}},
	}
	require.NoError(t, vs.ReplaceChunks(context.Background(), "item-1", chunks))

	log := rec.log()
	require.NotEmpty(t, log)
	assert.Equal(t, "BEGIN", log[0])
	assert.Equal(t, "COMMIT", log[len(log)-1])

	var inserts, deletes []int
	for i, stmt := range log {
		switch {
		case strings.HasPrefix(stmt, "INSERT INTO content_chunks"):
			inserts = append(inserts, i)
		case strings.HasPrefix(stmt, "DELETE FROM content_chunks"):
			deletes = append(deletes, i)
		}
	}
	require.Len(t, inserts, 2)
	require.Len(t, deletes, 1)

	// The new generation is fully inserted before the old one is deleted,
	// so a reader can never observe a zero-chunk window.
	for _, ins := range inserts {
		assert.Less(t, ins, deletes[0])
	}
}

func TestReplaceChunks_EmptySetStillClearsOldGeneration(t *testing.T) {
	pg, rec := openRecordingStore(t)
	vs := NewVectorStore(pg, 3)

	require.NoError(t, vs.ReplaceChunks(context.Background(), "item-1", nil))

	log := rec.log()
	joined := strings.Join(log, "\n")
	assert.NotContains(t, joined, "INSERT INTO content_chunks")
	assert.Contains(t, joined, "DELETE FROM content_chunks")
	assert.Equal(t, "COMMIT", log[len(log)-1])
}

func TestReplaceChunks_RejectsDimensionMismatch(t *testing.T) {
	pg, rec := openRecordingStore(t)
	vs := NewVectorStore(pg, 3)

	err := vs.ReplaceChunks(context.Background(), "item-1", []domain.ContentChunk{
		{ContentItemID: "item-1", ChunkIndex: 0, ChunkText: "bad", Vector: []float32{1, 0}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")

	// The transaction rolled back; nothing was committed.
	log := rec.log()
	joined := strings.Join(log, "\n")
	assert.NotContains(t, joined, "COMMIT")
	assert.Contains(t, joined, "ROLLBACK")
}