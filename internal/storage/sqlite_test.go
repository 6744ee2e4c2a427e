package storage

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/yuanlichao666/llm-ops/pkg/types"
)

type SQLiteStorageSuite struct {
	suite.Suite
	ctx     context.Context
	storage *SQLiteStorage
}

func TestSQLiteStorageSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStorageSuite))
}

func (s *SQLiteStorageSuite) SetupTest() {
	s.ctx = context.Background()
	storage, err := NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	s.storage = storage
}

func (s *SQLiteStorageSuite) TearDownTest() {
	s.NoError(s.storage.Close())
}

// createDocument stores a document with the given chunk contents and returns it
func (s *SQLiteStorageSuite) createDocument(source string, contents ...string) (*Document, []*Chunk) {
	doc := &Document{
		Source:      source,
		ContentHash: sha256.Sum256([]byte(source)),
		Splitter:    "percentile",
		ChunkCount:  len(contents),
	}
	s.Require().NoError(s.storage.UpsertDocument(s.ctx, doc))

	chunks := make([]*Chunk, 0, len(contents))
	for i, content := range contents {
		chunk := FromTypesChunk(types.NewChunk(doc.ID, i, content))
		s.Require().NoError(s.storage.InsertChunk(s.ctx, chunk))
		chunks = append(chunks, chunk)
	}
	return doc, chunks
}

func (s *SQLiteStorageSuite) TestUpsertDocument_CreateAndUpdate() {
	doc := &Document{
		Source:      "/docs/a.txt",
		ContentHash: sha256.Sum256([]byte("v1")),
		Splitter:    "percentile",
		ChunkCount:  2,
		Metadata:    map[string]any{"file_name": "a.txt"},
	}
	s.Require().NoError(s.storage.UpsertDocument(s.ctx, doc))
	s.Greater(doc.ID, int64(0))
	firstID := doc.ID

	updated := &Document{
		Source:      "/docs/a.txt",
		ContentHash: sha256.Sum256([]byte("v2")),
		Splitter:    "gradient",
		ChunkCount:  5,
	}
	s.Require().NoError(s.storage.UpsertDocument(s.ctx, updated))
	s.Equal(firstID, updated.ID, "upsert keeps the row identity")

	got, err := s.storage.GetDocument(s.ctx, "/docs/a.txt")
	s.Require().NoError(err)
	s.Equal(updated.ContentHash, got.ContentHash)
	s.Equal("gradient", got.Splitter)
	s.Equal(5, got.ChunkCount)
	s.False(got.IndexedAt.IsZero())
	s.Empty(got.Metadata)
}

func (s *SQLiteStorageSuite) TestUpsertDocument_RequiresSource() {
	err := s.storage.UpsertDocument(s.ctx, &Document{})
	s.Error(err)
}

func (s *SQLiteStorageSuite) TestGetDocument_Metadata() {
	doc := &Document{
		Source:   "notes.md",
		Metadata: map[string]any{"file_name": "notes.md", "extension": ".md"},
	}
	s.Require().NoError(s.storage.UpsertDocument(s.ctx, doc))

	got, err := s.storage.GetDocumentByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal("notes.md", got.Metadata["file_name"])
	s.Equal(".md", got.Metadata["extension"])
}

func (s *SQLiteStorageSuite) TestGetDocument_NotFound() {
	_, err := s.storage.GetDocument(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)

	_, err = s.storage.GetDocumentByID(s.ctx, 42)
	s.ErrorIs(err, ErrNotFound)
}

func (s *SQLiteStorageSuite) TestListDocuments_OrderedBySource() {
	s.createDocument("b.txt")
	s.createDocument("a.txt")
	s.createDocument("c.txt")

	docs, err := s.storage.ListDocuments(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(docs, 3)
	s.Equal("a.txt", docs[0].Source)
	s.Equal("b.txt", docs[1].Source)
	s.Equal("c.txt", docs[2].Source)
}

func (s *SQLiteStorageSuite) TestDeleteDocument_Cascades() {
	doc, chunks := s.createDocument("a.txt", "first chunk", "second chunk")
	emb := NewEmbedding(chunks[0].ID, []float32{1, 0}, "local", "local-hashing")
	s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, emb))

	s.Require().NoError(s.storage.DeleteDocument(s.ctx, doc.ID))

	_, err := s.storage.GetChunk(s.ctx, chunks[0].ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.storage.GetEmbedding(s.ctx, chunks[0].ID)
	s.ErrorIs(err, ErrNotFound)

	results, err := s.storage.SearchText(s.ctx, "chunk", 10)
	s.Require().NoError(err)
	s.Empty(results, "FTS index follows chunk deletion")

	s.ErrorIs(s.storage.DeleteDocument(s.ctx, doc.ID), ErrNotFound)
}

func (s *SQLiteStorageSuite) TestChunks_InsertGetList() {
	doc, chunks := s.createDocument("a.txt", "alpha", "beta", "gamma")

	got, err := s.storage.GetChunk(s.ctx, chunks[1].ID)
	s.Require().NoError(err)
	s.Equal("beta", got.Content)
	s.Equal(1, got.ChunkIndex)
	s.Equal(sha256.Sum256([]byte("beta")), got.ContentHash)
	s.Equal(1, got.TokenCount)

	list, err := s.storage.ListChunksByDocument(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	for i, c := range list {
		s.Equal(i, c.ChunkIndex)
	}

	tc := list[2].ToTypesChunk()
	s.NoError(tc.Validate())
	s.Equal("gamma", tc.Content)
}

func (s *SQLiteStorageSuite) TestInsertChunk_DuplicateIndex() {
	doc, _ := s.createDocument("a.txt", "alpha")

	err := s.storage.InsertChunk(s.ctx, FromTypesChunk(types.NewChunk(doc.ID, 0, "again")))
	s.ErrorIs(err, ErrAlreadyExists)
}

func (s *SQLiteStorageSuite) TestDeleteChunksByDocument() {
	doc, _ := s.createDocument("a.txt", "alpha", "beta")
	other, _ := s.createDocument("b.txt", "gamma")

	s.Require().NoError(s.storage.DeleteChunksByDocument(s.ctx, doc.ID))

	list, err := s.storage.ListChunksByDocument(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Empty(list)

	list, err = s.storage.ListChunksByDocument(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *SQLiteStorageSuite) TestEmbeddings_Upsert() {
	_, chunks := s.createDocument("a.txt", "alpha")

	emb := NewEmbedding(chunks[0].ID, []float32{0.1, 0.2, 0.3}, "jina", "jina-embeddings-v3")
	s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, emb))
	s.Greater(emb.ID, int64(0))

	replacement := NewEmbedding(chunks[0].ID, []float32{1, 2}, "openai", "text-embedding-3-small")
	s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, replacement))

	got, err := s.storage.GetEmbedding(s.ctx, chunks[0].ID)
	s.Require().NoError(err)
	s.Equal(2, got.Dimension)
	s.Equal("openai", got.Provider)
	s.Equal([]float32{1, 2}, got.Floats())
}

func (s *SQLiteStorageSuite) TestSearchVector_RanksBySimilarity() {
	doc, chunks := s.createDocument("a.txt", "north", "east", "north-east")
	vectors := [][]float32{{0, 1}, {1, 0}, {1, 1}}
	for i, c := range chunks {
		s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, NewEmbedding(c.ID, vectors[i], "local", "m")))
	}

	results, err := s.storage.SearchVector(s.ctx, []float32{0, 1}, 2, 0)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("north", results[0].Content)
	s.InDelta(1.0, results[0].Score, 1e-6)
	s.Equal("north-east", results[1].Content)
	s.Equal(doc.ID, results[1].DocumentID)
	s.Equal("a.txt", results[1].Source)
	s.Equal(2, results[1].ChunkIndex)
}

func (s *SQLiteStorageSuite) TestSearchVector_MinScoreAndDimensions() {
	_, chunks := s.createDocument("a.txt", "north", "east", "other dims")
	s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, NewEmbedding(chunks[0].ID, []float32{0, 1}, "local", "m")))
	s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, NewEmbedding(chunks[1].ID, []float32{1, 0}, "local", "m")))
	s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, NewEmbedding(chunks[2].ID, []float32{0, 1, 0}, "local", "m")))

	results, err := s.storage.SearchVector(s.ctx, []float32{0, 1}, 0, 0.5)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(chunks[0].ID, results[0].ChunkID)
}

func (s *SQLiteStorageSuite) TestSearchVector_Empty() {
	results, err := s.storage.SearchVector(s.ctx, []float32{1, 0}, 10, 0)
	s.Require().NoError(err)
	s.NotNil(results)
	s.Empty(results)
}

func (s *SQLiteStorageSuite) TestSearchText() {
	s.createDocument("a.txt", "the quick brown fox", "lazy dogs sleep all day")
	s.createDocument("b.txt", "a fox again")

	results, err := s.storage.SearchText(s.ctx, "fox", 10)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	for _, r := range results {
		s.Contains(r.Content, "fox")
		s.Greater(r.Score, 0.0)
		s.LessOrEqual(r.Score, 1.0)
	}

	// Operators and punctuation are treated as plain terms
	results, err = s.storage.SearchText(s.ctx, `dogs AND (NOT "`, 10)
	s.Require().NoError(err)
	s.NotEmpty(results)

	_, err = s.storage.SearchText(s.ctx, "!!! ???", 10)
	s.ErrorIs(err, ErrEmptyQuery)
}

func (s *SQLiteStorageSuite) TestTransaction_CommitAndRollback() {
	tx, err := s.storage.BeginTx(s.ctx)
	s.Require().NoError(err)

	doc := &Document{Source: "tx.txt", ChunkCount: 1}
	s.Require().NoError(tx.UpsertDocument(s.ctx, doc))
	chunk := FromTypesChunk(types.NewChunk(doc.ID, 0, "inside a transaction"))
	s.Require().NoError(tx.InsertChunk(s.ctx, chunk))

	// Reads inside the transaction see its own writes
	got, err := tx.GetDocument(s.ctx, "tx.txt")
	s.Require().NoError(err)
	s.Equal(doc.ID, got.ID)

	_, err = tx.BeginTx(s.ctx)
	s.Error(err)
	s.Require().NoError(tx.Commit())

	_, err = s.storage.GetDocument(s.ctx, "tx.txt")
	s.NoError(err)

	tx, err = s.storage.BeginTx(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(tx.UpsertDocument(s.ctx, &Document{Source: "rolled-back.txt"}))
	s.Require().NoError(tx.Rollback())

	_, err = s.storage.GetDocument(s.ctx, "rolled-back.txt")
	s.ErrorIs(err, ErrNotFound)
}

func (s *SQLiteStorageSuite) TestGetStatus() {
	_, chunks := s.createDocument("a.txt", "alpha", "beta")
	s.createDocument("b.txt", "gamma")
	s.Require().NoError(s.storage.UpsertEmbedding(s.ctx, NewEmbedding(chunks[0].ID, []float32{1}, "local", "m")))

	status, err := s.storage.GetStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, status.DocumentsCount)
	s.Equal(3, status.ChunksCount)
	s.Equal(1, status.EmbeddingsCount)
	s.Equal(CurrentSchemaVersion, status.SchemaVersion)
	s.Equal(BuildMode, status.BuildMode)
	s.False(status.LastIndexedAt.IsZero())
	s.Greater(status.SizeMB, 0.0)
}

func TestNewSQLiteStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.db")

	storage, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, storage.UpsertDocument(context.Background(), &Document{Source: "persisted.txt"}))
	require.NoError(t, storage.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.GetDocument(context.Background(), "persisted.txt")
	require.NoError(t, err)
	assert.Equal(t, "persisted.txt", doc.Source)
}
