package chunker

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Block is one sentence of a document together with its context window
type Block struct {
	Content string
	Context BlockContext
}

// BlockContext holds the values derived for a block during segmentation
type BlockContext struct {
	// Content is the block joined with its neighbours, no delimiter
	Content string
	Vector  []float32
	// DistanceOfNext is the cosine distance to the following block.
	// Unset for the last block.
	DistanceOfNext float64
}

// splitSentences cuts text on sep and drops empty pieces
func splitSentences(sep *regexp.Regexp, text string) []*Block {
	pieces := sep.Split(text, -1)
	blocks := make([]*Block, 0, len(pieces))
	for _, p := range pieces {
		if p == "" {
			continue
		}
		blocks = append(blocks, &Block{Content: p})
	}
	return blocks
}

// buildContextWindows sets Context.Content of block i to the concatenation
// of blocks [max(0, i-bufferSize), min(n-1, i+bufferSize)]
func buildContextWindows(blocks []*Block, bufferSize int) {
	n := len(blocks)
	for i := range blocks {
		start := max(0, i-bufferSize)
		end := min(n-1, i+bufferSize)

		var sb strings.Builder
		for _, b := range blocks[start : end+1] {
			sb.WriteString(b.Content)
		}
		blocks[i].Context.Content = sb.String()
	}
}

// cosineDistance returns 1 - cos(a, b). ok is false when either vector has
// zero norm; the distance is then 1, the maximum for non-negative similarity.
func cosineDistance(a, b []float32) (d float64, ok bool, err error) {
	if len(a) != len(b) {
		return 0, false, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1, false, nil
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true, nil
}

// windowContents returns the context window of each block
func windowContents(blocks []*Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Context.Content
	}
	return out
}
