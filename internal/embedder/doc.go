// Package embedder turns text into vectors through pluggable providers.
//
// Three providers are available:
//
//   - jina: Jina AI embeddings API (jina-embeddings-v3, 1024 dims)
//   - openai: OpenAI or any OpenAI-compatible endpoint via the official SDK
//   - local: offline feature hashing (384 dims), deterministic
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "jina", APIKey: key})
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "how are breakpoints chosen?",
//	})
//
// # Batch Processing
//
// GenerateBatch accepts at most MaxBatchSize texts. EmbedDocuments wraps it
// for arbitrarily long inputs: the texts are sent in sequential requests of
// batchSize and reassembled in order. If any request fails, the whole call
// fails and no vectors are returned.
//
//	vectors, err := embedder.EmbedDocuments(ctx, emb, windows, 50)
//
// # Provider Selection
//
// With an empty Config.Provider the provider is chosen from the environment:
//
//  1. SEGMENTER_EMBEDDER_PROVIDER if set
//  2. Jina if JINA_API_KEY is set
//  3. OpenAI if OPENAI_API_KEY is set
//  4. local otherwise
//
// # Retries
//
// Remote providers retry failed requests with exponential backoff
// (3 attempts, 100ms doubling up to 5s). Retries are logged at warn level.
// Context cancellation aborts immediately.
//
// # Errors
//
//	ErrEmptyText           single request with empty text
//	ErrInvalidInput        empty batch or empty text inside a batch
//	ErrBatchTooLarge       more than MaxBatchSize texts
//	ErrProviderFailed      remote call failed after retries
//	ErrVectorCountMismatch provider returned a different number of vectors
//	ErrNoProviderEnabled   remote provider selected without an API key
//	ErrUnsupportedModel    unknown provider name
package embedder
