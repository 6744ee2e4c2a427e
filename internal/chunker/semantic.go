package chunker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuanlichao666/llm-ops/internal/breakpoint"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
)

// DefaultSeparator matches runs of sentence-ending punctuation (ASCII and
// full-width) plus trailing whitespace
const DefaultSeparator = `[.!?。！？]+\s*`

// DefaultThresholdAmount is the amount used when a caller does not pick one
const DefaultThresholdAmount = 0.9

var defaultSeparator = regexp.MustCompile(DefaultSeparator)

// Errors
var (
	ErrNilEmbedder       = errors.New("embedder is required")
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
	ErrInvalidBufferSize = errors.New("buffer size must be >= 0")
	ErrInvalidChunkSize  = errors.New("chunk size must be > 0")
	ErrInvalidOverlap    = errors.New("chunk overlap must be >= 0 and smaller than chunk size")
)

// SemanticConfig configures a SemanticSplitter. All values are fixed at
// construction.
type SemanticConfig struct {
	Embedder        embedder.Embedder
	Separator       *regexp.Regexp // nil selects DefaultSeparator
	BufferSize      int
	ThresholdType   breakpoint.ThresholdType
	ThresholdAmount float64
	NumberOfChunks  int // 0 means unset
	BatchSize       int // provider request size, 0 selects embedder.DefaultBatchSize
}

// DefaultSemanticConfig returns the default configuration around e
func DefaultSemanticConfig(e embedder.Embedder) SemanticConfig {
	return SemanticConfig{
		Embedder:        e,
		Separator:       defaultSeparator,
		BufferSize:      1,
		ThresholdType:   breakpoint.Percentile,
		ThresholdAmount: DefaultThresholdAmount,
		BatchSize:       embedder.DefaultBatchSize,
	}
}

// SemanticSplitter splits text where the embedding distance between
// adjacent sentence windows is statistically large
type SemanticSplitter struct {
	embedder   embedder.Embedder
	separator  *regexp.Regexp
	bufferSize int
	batchSize  int
	strategy   breakpoint.Strategy
}

// Segmentation is the full result of one SplitText run
type Segmentation struct {
	Chunks      []string
	Blocks      []*Block
	Distances   []float64
	Breakpoints []int // indices into Distances
	Threshold   float64
	// HasThreshold is false for shape-based rules (gradient)
	HasThreshold bool
}

// NewSemanticSplitter validates cfg and builds a splitter.
// An unknown ThresholdType falls back to percentile.
func NewSemanticSplitter(cfg SemanticConfig) (*SemanticSplitter, error) {
	if cfg.Embedder == nil {
		return nil, ErrNilEmbedder
	}
	if cfg.BufferSize < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBufferSize, cfg.BufferSize)
	}

	sep := cfg.Separator
	if sep == nil {
		sep = defaultSeparator
	}

	return &SemanticSplitter{
		embedder:   cfg.Embedder,
		separator:  sep,
		bufferSize: cfg.BufferSize,
		batchSize:  cfg.BatchSize,
		strategy:   breakpoint.New(cfg.ThresholdType, cfg.ThresholdAmount, cfg.NumberOfChunks),
	}, nil
}

// Strategy returns the breakpoint rule in use
func (s *SemanticSplitter) Strategy() breakpoint.Strategy {
	return s.strategy
}

// SplitText returns the chunks of text. Concatenating them reproduces the
// sentences of text with separators removed.
func (s *SemanticSplitter) SplitText(ctx context.Context, text string) ([]string, error) {
	seg, err := s.Segment(ctx, text)
	if err != nil {
		return nil, err
	}
	return seg.Chunks, nil
}

// Segment runs the pipeline and returns chunks with the intermediate values.
// An embedding failure fails the whole call.
func (s *SemanticSplitter) Segment(ctx context.Context, text string) (*Segmentation, error) {
	blocks := splitSentences(s.separator, text)

	seg := &Segmentation{
		Chunks:      []string{},
		Blocks:      blocks,
		Distances:   []float64{},
		Breakpoints: []int{},
	}
	switch len(blocks) {
	case 0:
		return seg, nil
	case 1:
		seg.Chunks = []string{blocks[0].Content}
		return seg, nil
	}

	buildContextWindows(blocks, s.bufferSize)

	vectors, err := embedder.EmbedDocuments(ctx, s.embedder, windowContents(blocks), s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("embed context windows: %w", err)
	}
	if len(vectors) != len(blocks) {
		return nil, fmt.Errorf("%w: %d windows, %d vectors", embedder.ErrVectorCountMismatch, len(blocks), len(vectors))
	}
	for i, v := range vectors {
		blocks[i].Context.Vector = v
	}

	distances := make([]float64, len(blocks)-1)
	var zeroNorm []int
	for i := range distances {
		d, ok, err := cosineDistance(blocks[i].Context.Vector, blocks[i+1].Context.Vector)
		if err != nil {
			return nil, fmt.Errorf("distance between blocks %d and %d: %w", i, i+1, err)
		}
		if !ok {
			zeroNorm = append(zeroNorm, i)
		}
		blocks[i].Context.DistanceOfNext = d
		distances[i] = d
	}

	// a block whose window has no direction is cut off from both neighbours
	bp := s.strategy.Prepare(distances, zeroNorm...)

	seg.Distances = distances
	seg.Breakpoints = bp.Indices()
	seg.Threshold, seg.HasThreshold = bp.Threshold()
	seg.Chunks = assemble(blocks, bp)

	return seg, nil
}

// assemble groups blocks into chunks. Block i opens a new chunk when the
// distance between block i-1 and block i is a breakpoint.
func assemble(blocks []*Block, bp *breakpoint.Breakpoints) []string {
	chunks := make([]string, 0)
	var current strings.Builder

	for i, b := range blocks {
		if i > 0 && bp.IsBreakpoint(i-1) {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(b.Content)
	}
	if len(blocks) > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
