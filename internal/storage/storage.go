package storage

import (
	"context"
	"time"

	"github.com/yuanlichao666/llm-ops/pkg/types"
)

// Storage defines the interface for persisting and querying segmented documents
type Storage interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, source string) (*Document, error)
	GetDocumentByID(ctx context.Context, documentID int64) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)

	// Search operations
	SearchVector(ctx context.Context, vector []float32, limit int, minScore float64) ([]VectorResult, error)
	SearchText(ctx context.Context, query string, limit int) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Document is a segmented source, identified by its source path or name
type Document struct {
	ID          int64
	Source      string
	ContentHash [32]byte
	Splitter    string // threshold type or splitter mode used to produce the chunks
	ChunkCount  int
	Metadata    map[string]any
	IndexedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is one stored segment of a document
type Chunk struct {
	ID          int64
	DocumentID  int64
	ChunkIndex  int
	Content     string
	ContentHash [32]byte
	TokenCount  int
	CreatedAt   time.Time
}

// Embedding is the vector stored for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // little-endian float32
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// VectorResult is a chunk ranked by cosine similarity to a query vector
type VectorResult struct {
	ChunkID    int64
	DocumentID int64
	Source     string
	ChunkIndex int
	Content    string
	Score      float64
}

// TextResult is a chunk ranked by BM25, normalized to (0, 1]
type TextResult struct {
	ChunkID    int64
	DocumentID int64
	Source     string
	ChunkIndex int
	Content    string
	Score      float64
}

// Status summarizes the contents of the store
type Status struct {
	DocumentsCount  int
	ChunksCount     int
	EmbeddingsCount int
	LastIndexedAt   time.Time
	SizeMB          float64
	SchemaVersion   string
	BuildMode       string
}

// FromTypesChunk converts a types.Chunk into its stored form
func FromTypesChunk(c *types.Chunk) *Chunk {
	return &Chunk{
		ID:          c.ID,
		DocumentID:  c.DocumentID,
		ChunkIndex:  c.ChunkIndex,
		Content:     c.Content,
		ContentHash: c.ContentHash,
		TokenCount:  c.TokenCount,
	}
}

// ToTypesChunk converts a stored chunk to types.Chunk
func (c *Chunk) ToTypesChunk() types.Chunk {
	return types.Chunk{
		ID:          c.ID,
		DocumentID:  c.DocumentID,
		ChunkIndex:  c.ChunkIndex,
		Content:     c.Content,
		ContentHash: c.ContentHash,
		TokenCount:  c.TokenCount,
	}
}

// NewEmbedding builds a stored embedding from a float32 vector
func NewEmbedding(chunkID int64, vector []float32, provider, model string) *Embedding {
	return &Embedding{
		ChunkID:   chunkID,
		Vector:    serializeVector(vector),
		Dimension: len(vector),
		Provider:  provider,
		Model:     model,
	}
}

// Floats decodes the stored vector
func (e *Embedding) Floats() []float32 {
	return deserializeVector(e.Vector)
}
