package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmptyQuery is returned when a text query has no searchable terms
	ErrEmptyQuery = errors.New("empty search query")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; this also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (or creates) the database at dbPath and applies migrations
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// isUniqueViolation matches the constraint error text of both drivers
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Document operations

const documentColumns = `id, source, content_hash, splitter, chunk_count, metadata,
	indexed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var hash []byte
	var metadata string
	var indexedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.Source, &hash, &doc.Splitter, &doc.ChunkCount,
		&metadata, &indexedAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	copy(doc.ContentHash[:], hash)
	if indexedAt.Valid {
		doc.IndexedAt = indexedAt.Time
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", doc.Source, err)
		}
	}
	return &doc, nil
}

// upsertDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	if doc.Source == "" {
		return fmt.Errorf("failed to upsert document: source is required")
	}
	metadata := []byte("{}")
	if len(doc.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
	}

	query := `
		INSERT INTO documents (source, content_hash, splitter, chunk_count, metadata, indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			content_hash = excluded.content_hash,
			splitter = excluded.splitter,
			chunk_count = excluded.chunk_count,
			metadata = excluded.metadata,
			indexed_at = excluded.indexed_at,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		doc.Source, doc.ContentHash[:], doc.Splitter, doc.ChunkCount,
		string(metadata), now, now, now).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.IndexedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

// getDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, source string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE source = ?`
	doc, err := scanDocument(q.QueryRowContext(ctx, query, source))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return doc, err
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, source string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), source)
}

// getDocumentByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getDocumentByIDWithQuerier(ctx context.Context, q querier, documentID int64) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	doc, err := scanDocument(q.QueryRowContext(ctx, query, documentID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return doc, err
}

func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, documentID int64) (*Document, error) {
	return s.getDocumentByIDWithQuerier(ctx, s.querier(), documentID)
}

// listDocumentsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY source`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier())
}

// deleteDocumentWithQuerier removes a document; chunks and embeddings cascade
func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Chunk operations

// insertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	query := `
		INSERT INTO chunks (document_id, chunk_index, content, content_hash, token_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		chunk.DocumentID, chunk.ChunkIndex, chunk.Content, chunk.ContentHash[:],
		chunk.TokenCount, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("chunk %d of document %d: %w", chunk.ChunkIndex, chunk.DocumentID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	chunk.ID = id
	chunk.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.insertChunkWithQuerier(ctx, s.querier(), chunk)
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var chunk Chunk
	var hash []byte
	err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content,
		&hash, &chunk.TokenCount, &chunk.CreatedAt)
	if err != nil {
		return nil, err
	}
	copy(chunk.ContentHash[:], hash)
	return &chunk, nil
}

// getChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `
		SELECT id, document_id, chunk_index, content, content_hash, token_count, created_at
		FROM chunks
		WHERE id = ?
	`
	chunk, err := scanChunk(q.QueryRowContext(ctx, query, chunkID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return chunk, err
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// listChunksByDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*Chunk, error) {
	query := `
		SELECT id, document_id, chunk_index, content, content_hash, token_count, created_at
		FROM chunks
		WHERE document_id = ?
		ORDER BY chunk_index
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// deleteChunksByDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return s.deleteChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Embedding operations

// upsertEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	if embedding.Dimension == 0 {
		embedding.Dimension = len(embedding.Vector) / 4
	}
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		embedding.ChunkID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now).Scan(&embedding.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

// getEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var embedding Embedding
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&embedding.ID, &embedding.ChunkID, &embedding.Vector,
		&embedding.Dimension, &embedding.Provider, &embedding.Model,
		&embedding.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return s.getEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, vector []float32, limit int, minScore float64) ([]VectorResult, error) {
	return searchVector(ctx, s.querier(), vector, limit, minScore)
}

func (s *SQLiteStorage) SearchText(ctx context.Context, query string, limit int) ([]TextResult, error) {
	return searchText(ctx, s.querier(), query, limit)
}

// Status operations

// getStatusWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{BuildMode: BuildMode}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &status.DocumentsCount},
		{"SELECT COUNT(*) FROM chunks", &status.ChunksCount},
		{"SELECT COUNT(*) FROM embeddings", &status.EmbeddingsCount},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	// MAX() loses the column type, so read the newest row instead
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx,
		"SELECT indexed_at FROM documents WHERE indexed_at IS NOT NULL ORDER BY indexed_at DESC LIMIT 1",
	).Scan(&lastIndexedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if lastIndexedAt.Valid {
		status.LastIndexedAt = lastIndexedAt.Time
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	if version, err := currentVersion(ctx, q); err == nil {
		status.SchemaVersion = version.String()
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier())
}

// Transaction implementations. Reads go through the transaction too, since
// the pool holds a single connection.

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, source string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), source)
}

func (t *sqliteTx) GetDocumentByID(ctx context.Context, documentID int64) (*Document, error) {
	return t.storage.getDocumentByIDWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) ListDocuments(ctx context.Context) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.insertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return t.storage.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.storage.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return t.storage.getEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, vector []float32, limit int, minScore float64) ([]VectorResult, error) {
	return searchVector(ctx, t.querier(), vector, limit, minScore)
}

func (t *sqliteTx) SearchText(ctx context.Context, query string, limit int) ([]TextResult, error) {
	return searchText(ctx, t.querier(), query, limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
