package embedder

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderFailed      = errors.New("embedding provider failed")
	ErrUnsupportedModel    = errors.New("unsupported model")
	ErrEmptyText           = errors.New("text cannot be empty")
	ErrBatchTooLarge       = errors.New("batch size exceeds limit")
	ErrNoProviderEnabled   = errors.New("no embedding provider configured")
	ErrVectorCountMismatch = errors.New("provider returned wrong number of vectors")
)

// Embedding represents a vector embedding with metadata
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
}

// EmbeddingRequest represents a request to generate embeddings
type EmbeddingRequest struct {
	Text  string
	Model string // Optional: override default model
}

// BatchEmbeddingRequest represents a batch request
type BatchEmbeddingRequest struct {
	Texts []string
	Model string // Optional: override default model
}

// BatchEmbeddingResponse represents a batch response.
// Embeddings[i] belongs to Texts[i] of the request.
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder interface defines methods for generating embeddings
type Embedder interface {
	// GenerateEmbedding embeds a single query-side text
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch embeds up to MaxBatchSize texts, order-preserving
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the embedder
	Close() error
}

// ValidateRequest validates an embedding request
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest validates a batch embedding request
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}

	for i, text := range req.Texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}

	if len(req.Texts) > MaxBatchSize {
		return fmt.Errorf("%w: %d texts, max %d allowed", ErrBatchTooLarge, len(req.Texts), MaxBatchSize)
	}

	return nil
}

// EmbedDocuments embeds texts as one logical batch and returns one vector
// per text in input order. The texts are sent to e in sequential requests of
// at most batchSize. The first failing request fails the whole call and no
// vectors are returned.
func EmbedDocuments(ctx context.Context, e Embedder, texts []string, batchSize int) ([][]float32, error) {
	if e == nil {
		return nil, ErrNoProviderEnabled
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+batchSize, len(texts))
		resp, err := e.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: texts[start:end]})
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: sent %d, got %d", ErrVectorCountMismatch, end-start, len(resp.Embeddings))
		}

		for _, emb := range resp.Embeddings {
			if emb == nil {
				return nil, fmt.Errorf("%w: nil embedding in response", ErrProviderFailed)
			}
			vectors = append(vectors, emb.Vector)
		}
	}

	return vectors, nil
}
