package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuanlichao666/llm-ops/internal/breakpoint"
	"github.com/yuanlichao666/llm-ops/internal/chunker"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/storage"
	"github.com/yuanlichao666/llm-ops/pkg/types"
)

// mockEmbedder implements embedder.Embedder for testing
type mockEmbedder struct {
	dimension int
	err       error

	// started is closed on the first batch; batches then wait for release
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu    sync.Mutex
	texts int
	calls int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dimension: 4}
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	resp, err := m.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: []string{req.Text}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (m *mockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	if m.started != nil {
		m.once.Do(func() { close(m.started) })
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	m.calls++
	m.texts += len(req.Texts)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		vector := make([]float32, m.dimension)
		vector[len(text)%m.dimension] = 1
		embeddings[i] = &embedder.Embedding{
			Vector:    vector,
			Dimension: m.dimension,
			Provider:  "mock",
			Model:     "test-v1",
		}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, Provider: "mock", Model: "test-v1"}, nil
}

func (m *mockEmbedder) Dimension() int   { return m.dimension }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "test-v1" }
func (m *mockEmbedder) Close() error     { return nil }

func (m *mockEmbedder) embeddedTexts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts
}

func setupTestStorage(t testing.TB) storage.Storage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	return store
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// paragraphSplitter splits on blank lines with a small chunk size
func paragraphSplitter(t testing.TB) chunker.Splitter {
	t.Helper()
	s, err := chunker.NewCharacterSplitter(chunker.CharacterConfig{
		Separator:    "\n\n",
		ChunkSize:    20,
		ChunkOverlap: 0,
	})
	require.NoError(t, err)
	return s
}

func newTestIndexer(t testing.TB, emb embedder.Embedder) (*Indexer, storage.Storage) {
	t.Helper()
	store := setupTestStorage(t)
	idx, err := New(store, paragraphSplitter(t), emb)
	require.NoError(t, err)
	return idx, store
}

func TestNew(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	_, err := New(store, nil, nil)
	assert.ErrorIs(t, err, ErrNilSplitter)

	idx, err := New(store, paragraphSplitter(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "character", idx.SplitterName())
	assert.Equal(t, embedder.DefaultBatchSize, idx.batchSize)

	idx.SetBatchSize(0)
	assert.Equal(t, embedder.DefaultBatchSize, idx.batchSize)
	idx.SetBatchSize(7)
	assert.Equal(t, 7, idx.batchSize)
}

func TestSplitterName(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	semantic, err := chunker.NewSemanticSplitter(chunker.SemanticConfig{
		Embedder:      newMockEmbedder(),
		ThresholdType: breakpoint.Gradient,
	})
	require.NoError(t, err)
	idx, err := New(store, semantic, nil)
	require.NoError(t, err)
	assert.Equal(t, "semantic:gradient", idx.SplitterName())

	recursive, err := chunker.NewRecursiveSplitter(chunker.DefaultRecursiveConfig())
	require.NoError(t, err)
	idx, err = New(store, recursive, nil)
	require.NoError(t, err)
	assert.Equal(t, "recursive", idx.SplitterName())
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.txt", "a")
	createTestFile(t, dir, "b.md", "b")
	createTestFile(t, dir, "c.go", "c")
	createTestFile(t, dir, "nested/deep/d.txt", "d")
	createTestFile(t, dir, ".hidden/e.txt", "e")
	createTestFile(t, dir, "nested/.git/f.md", "f")

	files, err := discoverFiles(dir, DefaultInclude)
	require.NoError(t, err)

	rel := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		rel[i] = filepath.ToSlash(r)
	}
	assert.Equal(t, []string{"a.txt", "b.md", "nested/deep/d.txt"}, rel)
}

func TestDiscoverFiles_CustomInclude(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.txt", "a")
	createTestFile(t, dir, "docs/b.txt", "b")

	files, err := discoverFiles(dir, []string{"docs/*.txt"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "docs", "b.txt"), files[0])

	_, err = discoverFiles(dir, []string{"[unclosed"})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestIndexDirectory_Success(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "one.txt", "First paragraph.\n\nSecond paragraph.")
	createTestFile(t, dir, "two.md", "Only one here.")
	createTestFile(t, dir, "skip.go", "package main")

	emb := newMockEmbedder()
	idx, store := newTestIndexer(t, emb)
	defer store.Close()

	stats, err := idx.IndexDirectory(context.Background(), dir, &Config{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesDiscovered)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 3, stats.ChunksCreated)
	assert.Equal(t, 3, stats.EmbeddingsCreated)
	assert.Empty(t, stats.ErrorMessages)
	assert.Equal(t, 3, emb.embeddedTexts())

	ctx := context.Background()
	doc, err := store.GetDocument(ctx, filepath.Join(dir, "one.txt"))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.Equal(t, "character", doc.Splitter)
	assert.Equal(t, "one.txt", doc.Metadata[types.MetaFileName])

	chunks, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph.", chunks[0].Content)
	assert.Equal(t, "Second paragraph.", chunks[1].Content)

	emb0, err := store.GetEmbedding(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "mock", emb0.Provider)
	assert.Equal(t, 4, emb0.Dimension)
}

func TestIndexDirectory_IncrementalAndForce(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.txt", "Alpha.")
	path := createTestFile(t, dir, "b.txt", "Beta.")

	idx, store := newTestIndexer(t, newMockEmbedder())
	defer store.Close()
	ctx := context.Background()

	stats, err := idx.IndexDirectory(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)

	stats, err = idx.IndexDirectory(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 2, stats.FilesSkipped)

	require.NoError(t, os.WriteFile(path, []byte("Beta changed.\n\nWith a second part."), 0o644))
	stats, err = idx.IndexDirectory(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)

	doc, err := store.GetDocument(ctx, path)
	require.NoError(t, err)
	chunks, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2, "old chunks are replaced")
	assert.Equal(t, "Beta changed.", chunks[0].Content)

	stats, err = idx.IndexDirectory(ctx, dir, &Config{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.DocumentsCount)
	assert.Equal(t, 3, status.ChunksCount)
	assert.Equal(t, 3, status.EmbeddingsCount)
}

func TestIndexDirectory_PerFileFailures(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "good.txt", "Fine text.")
	createTestFile(t, dir, "bad.txt", string([]byte{0xff, 0xfe, 0xfd}))

	idx, store := newTestIndexer(t, newMockEmbedder())
	defer store.Close()

	stats, err := idx.IndexDirectory(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "bad.txt")
}

func TestIndexDirectory_EmbeddingErrors(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "a.txt", "Some text.")

	emb := newMockEmbedder()
	emb.err = errors.New("provider down")
	idx, store := newTestIndexer(t, emb)
	defer store.Close()

	stats, err := idx.IndexDirectory(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Contains(t, stats.ErrorMessages[0], "provider down")

	// Nothing is written for a file whose embedding failed
	_, err = store.GetDocument(context.Background(), path)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexDirectory_WithoutEmbedder(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.txt", "First part here.\n\nSecond part here.")

	idx, store := newTestIndexer(t, nil)
	defer store.Close()

	stats, err := idx.IndexDirectory(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ChunksCreated)
	assert.Equal(t, 0, stats.EmbeddingsCreated)
}

func TestIndexDirectory_MissingRoot(t *testing.T) {
	idx, store := newTestIndexer(t, nil)
	defer store.Close()

	_, err := idx.IndexDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndexDirectory_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		createTestFile(t, dir, fmt.Sprintf("f%d.txt", i), "Text.")
	}

	idx, store := newTestIndexer(t, newMockEmbedder())
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexDirectory(ctx, dir, &Config{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, idx.lock.Held())
}

func TestIndexDirectory_ConcurrentCallsRejected(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.txt", "Blocking text.")

	emb := newMockEmbedder()
	emb.started = make(chan struct{})
	emb.release = make(chan struct{})
	idx, store := newTestIndexer(t, emb)
	defer store.Close()

	done := make(chan error, 1)
	go func() {
		_, err := idx.IndexDirectory(context.Background(), dir, nil)
		done <- err
	}()

	<-emb.started
	assert.True(t, idx.Busy())
	_, err := idx.IndexDirectory(context.Background(), dir, nil)
	assert.ErrorIs(t, err, ErrIndexingInProgress)
	_, err = idx.IndexText(context.Background(), "memo", "Text.")
	assert.ErrorIs(t, err, ErrIndexingInProgress)

	close(emb.release)
	require.NoError(t, <-done)
	assert.False(t, idx.Busy())
}

func TestIndexText(t *testing.T) {
	idx, store := newTestIndexer(t, newMockEmbedder())
	defer store.Close()
	ctx := context.Background()

	res, err := idx.IndexText(ctx, "memo", "Paragraph number one.\n\nParagraph number two.")
	require.NoError(t, err)
	assert.Greater(t, res.DocumentID, int64(0))
	assert.Equal(t, "memo", res.Source)
	assert.Equal(t, 2, res.ChunkCount)
	assert.False(t, res.Skipped)

	again, err := idx.IndexText(ctx, "memo", "Paragraph number one.\n\nParagraph number two.")
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, res.DocumentID, again.DocumentID)

	_, err = idx.IndexText(ctx, "", "text")
	assert.ErrorIs(t, err, types.ErrMissingSource)

	empty, err := idx.IndexText(ctx, "empty", "")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.ChunkCount)
}

func TestIndexText_SemanticRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	local, err := embedder.NewLocalProvider()
	require.NoError(t, err)
	semantic, err := chunker.NewSemanticSplitter(chunker.DefaultSemanticConfig(local))
	require.NoError(t, err)
	idx, err := New(store, semantic, local)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := idx.IndexText(ctx, "topics", "Cats purr softly. Cats chase mice. Rockets reach orbit. Rockets burn fuel.")
	require.NoError(t, err)
	require.Greater(t, res.ChunkCount, 0)

	query, err := local.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: "rockets orbit"})
	require.NoError(t, err)
	results, err := store.SearchVector(ctx, query.Vector, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "Rockets")
}

func TestIndexLock(t *testing.T) {
	var l IndexLock
	assert.True(t, l.TryAcquire())
	assert.True(t, l.Held())
	assert.False(t, l.TryAcquire())
	l.Release()
	assert.False(t, l.Held())
	assert.True(t, l.TryAcquire())
}
