package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/yuanlichao666/llm-ops/internal/chunker"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/loader"
	"github.com/yuanlichao666/llm-ops/internal/log"
	"github.com/yuanlichao666/llm-ops/internal/storage"
	"github.com/yuanlichao666/llm-ops/pkg/types"
)

var (
	// ErrIndexingInProgress is returned when another run holds the lock
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrNilSplitter is returned by New without a splitter
	ErrNilSplitter = errors.New("splitter is required")
	// ErrInvalidPattern is returned for a malformed include glob
	ErrInvalidPattern = errors.New("invalid include pattern")
)

// DefaultInclude selects the file types the loader understands
var DefaultInclude = []string{"**/*.txt", "**/*.md", "**/*.pdf"}

// Indexer coordinates the ingestion pipeline: load -> split -> embed -> store
type Indexer struct {
	splitter chunker.Splitter
	embedder embedder.Embedder // nil stores chunks without vectors
	storage  storage.Storage

	batchSize int
	lock      IndexLock
}

// Config contains configuration for one indexing run
type Config struct {
	Workers int      // Number of concurrent files (default: runtime.NumCPU())
	Include []string // doublestar globs relative to the root (default: DefaultInclude)
	Force   bool     // Re-index documents whose content hash is unchanged
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	FilesDiscovered   int
	FilesIndexed      int
	FilesSkipped      int
	FilesFailed       int
	ChunksCreated     int
	EmbeddingsCreated int
	Duration          time.Duration
	ErrorMessages     []string
}

// Result describes a single indexed document
type Result struct {
	DocumentID int64
	Source     string
	ChunkCount int
	Skipped    bool
}

// New creates an Indexer. emb may be nil when chunks should be stored
// without embeddings.
func New(store storage.Storage, splitter chunker.Splitter, emb embedder.Embedder) (*Indexer, error) {
	if splitter == nil {
		return nil, ErrNilSplitter
	}
	return &Indexer{
		splitter:  splitter,
		embedder:  emb,
		storage:   store,
		batchSize: embedder.DefaultBatchSize,
	}, nil
}

// SetBatchSize sets the number of chunks sent per embedding request
func (idx *Indexer) SetBatchSize(n int) {
	if n > 0 {
		idx.batchSize = n
	}
}

// Busy reports whether an indexing run is in progress
func (idx *Indexer) Busy() bool {
	return idx.lock.Held()
}

// SplitterName describes the splitter, stored with every document
func (idx *Indexer) SplitterName() string {
	switch s := idx.splitter.(type) {
	case *chunker.SemanticSplitter:
		return "semantic:" + s.Strategy().Type.String()
	case *chunker.CharacterSplitter:
		return "character"
	case *chunker.RecursiveSplitter:
		return "recursive"
	default:
		return fmt.Sprintf("%T", s)
	}
}

// IndexDirectory indexes every file under root that matches the include
// globs. Per-file failures are counted in the statistics and do not stop
// the run; a cancelled context does.
func (idx *Indexer) IndexDirectory(ctx context.Context, root string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	include := config.Include
	if len(include) == 0 {
		include = DefaultInclude
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	files, err := discoverFiles(root, include)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesDiscovered = len(files)

	if err := idx.indexFiles(ctx, files, workers, config.Force, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)
	log.Infof("indexed %s: %d indexed, %d skipped, %d failed, %d chunks in %s",
		root, stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.ChunksCreated, stats.Duration)
	return stats, nil
}

// IndexText indexes one in-memory document under the given source name
func (idx *Indexer) IndexText(ctx context.Context, source, text string) (*Result, error) {
	if source == "" {
		return nil, types.ErrMissingSource
	}
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	doc := types.NewDocument(text, map[string]any{types.MetaSource: source})
	res, _, err := idx.indexDocument(ctx, source, &doc, false)
	return res, err
}

// discoverFiles walks root and returns matching files in lexical order,
// skipping hidden directories
func discoverFiles(root string, include []string) ([]string, error) {
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range include {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	return files, err
}

// indexFiles indexes files with at most workers in flight
func (idx *Indexer) indexFiles(ctx context.Context, files []string, workers int, force bool, stats *Statistics) error {
	var (
		indexed    int32
		skipped    int32
		failed     int32
		chunks     int32
		embeddings int32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, embedded, err := idx.indexFile(gctx, path, force)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				atomic.AddInt32(&failed, 1)
				log.Warnf("failed to index %s: %v", path, err)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				return nil
			}

			if res.Skipped {
				atomic.AddInt32(&skipped, 1)
				return nil
			}
			atomic.AddInt32(&indexed, 1)
			atomic.AddInt32(&chunks, int32(res.ChunkCount))
			atomic.AddInt32(&embeddings, int32(embedded))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.ChunksCreated = int(chunks)
	stats.EmbeddingsCreated = int(embeddings)
	return nil
}

// indexFile loads one file and indexes it under its absolute path
func (idx *Indexer) indexFile(ctx context.Context, path string, force bool) (*Result, int, error) {
	source, err := filepath.Abs(path)
	if err != nil {
		return nil, 0, err
	}

	doc, err := loader.Load(path)
	if err != nil {
		return nil, 0, err
	}
	doc.Metadata[types.MetaSource] = source

	return idx.indexDocument(ctx, source, doc, force)
}

// indexDocument splits and embeds doc, then replaces the stored document,
// its chunks and their embeddings in one transaction. Unchanged content is
// skipped unless force is set. Returns the number of embeddings written.
func (idx *Indexer) indexDocument(ctx context.Context, source string, doc *types.Document, force bool) (*Result, int, error) {
	hash := sha256.Sum256([]byte(doc.Content))

	if !force {
		existing, err := idx.storage.GetDocument(ctx, source)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, 0, err
		}
		if err == nil && existing.ContentHash == hash {
			return &Result{DocumentID: existing.ID, Source: source, ChunkCount: existing.ChunkCount, Skipped: true}, 0, nil
		}
	}

	texts, err := idx.splitter.SplitText(ctx, doc.Content)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to split: %w", err)
	}

	// Embed before opening the transaction so the single connection is not
	// held across network calls
	var vectors [][]float32
	if idx.embedder != nil && len(texts) > 0 {
		vectors, err = embedder.EmbedDocuments(ctx, idx.embedder, texts, idx.batchSize)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to embed chunks: %w", err)
		}
	}

	stored := &storage.Document{
		Source:      source,
		ContentHash: hash,
		Splitter:    idx.SplitterName(),
		ChunkCount:  len(texts),
		Metadata:    doc.Metadata,
	}
	if err := idx.store(ctx, stored, texts, vectors); err != nil {
		return nil, 0, err
	}

	return &Result{DocumentID: stored.ID, Source: source, ChunkCount: len(texts)}, len(vectors), nil
}

// store writes a document with its chunks and vectors atomically
func (idx *Indexer) store(ctx context.Context, doc *storage.Document, texts []string, vectors [][]float32) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	if err := tx.DeleteChunksByDocument(ctx, doc.ID); err != nil {
		return err
	}

	for i, text := range texts {
		chunk := storage.FromTypesChunk(types.NewChunk(doc.ID, i, text))
		if err := tx.InsertChunk(ctx, chunk); err != nil {
			return err
		}
		if vectors == nil {
			continue
		}
		emb := storage.NewEmbedding(chunk.ID, vectors[i], idx.embedder.Provider(), idx.embedder.Model())
		if err := tx.UpsertEmbedding(ctx, emb); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
