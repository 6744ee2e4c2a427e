package chunker

import (
	"context"
	"strings"
	"sync"

	"github.com/yuanlichao666/llm-ops/internal/embedder"
)

// funcEmbedder maps every text through fn and records batch sizes
type funcEmbedder struct {
	fn  func(text string) []float32
	err error

	mu      sync.Mutex
	batches []int
}

func (f *funcEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	resp, err := f.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: []string{req.Text}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (f *funcEmbedder) GenerateBatch(_ context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	f.mu.Lock()
	f.batches = append(f.batches, len(req.Texts))
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	out := make([]*embedder.Embedding, len(req.Texts))
	for i, t := range req.Texts {
		v := f.fn(t)
		out[i] = &embedder.Embedding{Vector: v, Dimension: len(v), Provider: "fake", Model: "fake"}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: out, Provider: "fake", Model: "fake"}, nil
}

func (f *funcEmbedder) Dimension() int   { return 0 }
func (f *funcEmbedder) Provider() string { return "fake" }
func (f *funcEmbedder) Model() string    { return "fake" }
func (f *funcEmbedder) Close() error     { return nil }

func (f *funcEmbedder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// keywordEmbedder counts keyword occurrences, one dimension per keyword
func keywordEmbedder(keywords ...string) *funcEmbedder {
	return &funcEmbedder{fn: func(text string) []float32 {
		lower := strings.ToLower(text)
		v := make([]float32, len(keywords))
		for i, kw := range keywords {
			v[i] = float32(strings.Count(lower, kw))
		}
		return v
	}}
}

// topicEmbedder returns a one-hot vector for the first topic letter found
// in the text: "A..." sentences map to {1,0}, "B..." to {0,1}
func topicEmbedder() *funcEmbedder {
	return &funcEmbedder{fn: func(text string) []float32 {
		if strings.HasPrefix(text, "B") {
			return []float32{0, 1}
		}
		return []float32{1, 0}
	}}
}
