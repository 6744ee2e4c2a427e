package searcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/log"
	"github.com/yuanlichao666/llm-ops/internal/storage"
	"github.com/yuanlichao666/llm-ops/pkg/types"
)

// Mode defines how search is performed
type Mode string

const (
	ModeHybrid Mode = "hybrid" // Vector + BM25 with RRF
	ModeVector Mode = "vector" // Vector similarity only
	ModeText   Mode = "text"   // BM25 text search only
)

const (
	DefaultLimit       = 10
	MaxLimit           = 100
	DefaultMode        = ModeVector
	DefaultRRFConstant = 60.0
)

var (
	// ErrEmptyQuery is returned for a blank query
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrInvalidLimit is returned for a limit outside 0..MaxLimit
	ErrInvalidLimit = errors.New("limit out of range")
	// ErrUnsupportedMode is returned for an unknown Mode
	ErrUnsupportedMode = errors.New("unsupported search mode")
	// ErrQueryEmbedding wraps a failure to embed the query
	ErrQueryEmbedding = errors.New("failed to embed query")
)

// Request contains parameters for a search operation
type Request struct {
	Query       string
	Limit       int     // 0 means DefaultLimit
	Mode        Mode    // empty means DefaultMode
	MinScore    float64 // applied to each leg's own score
	RRFConstant float64 // k for Reciprocal Rank Fusion, 0 means DefaultRRFConstant
}

// Response contains search results and metadata
type Response struct {
	Results       []types.SearchResult
	Mode          Mode
	Duration      time.Duration
	VectorResults int
	TextResults   int
	Provider      string // empty when the query was not embedded
	Model         string
}

// Searcher coordinates vector and text search over stored chunks
type Searcher struct {
	storage  storage.Storage
	embedder embedder.Embedder
}

// New creates a Searcher
func New(store storage.Storage, emb embedder.Embedder) *Searcher {
	return &Searcher{storage: store, embedder: emb}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	var (
		resp *Response
		err  error
	)
	switch req.Mode {
	case ModeHybrid:
		resp, err = s.hybridSearch(ctx, req)
	case ModeVector:
		resp, err = s.vectorSearch(ctx, req)
	case ModeText:
		resp, err = s.textSearch(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	resp.Mode = req.Mode
	resp.Duration = time.Since(start)
	return resp, nil
}

// legResult holds the outcome of one search leg
type legResult struct {
	hits      []hit
	embedding *embedder.Embedding
	err       error
}

// hit is a chunk matched by one leg, ordered best first
type hit struct {
	chunkID    int64
	documentID int64
	source     string
	chunkIndex int
	content    string
	score      float64
}

func (s *Searcher) runVector(ctx context.Context, query string, limit int, minScore float64) legResult {
	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return legResult{err: fmt.Errorf("%w: %w", ErrQueryEmbedding, err)}
	}

	results, err := s.storage.SearchVector(ctx, emb.Vector, limit, minScore)
	if err != nil {
		return legResult{embedding: emb, err: err}
	}

	hits := make([]hit, len(results))
	for i, r := range results {
		hits[i] = hit{r.ChunkID, r.DocumentID, r.Source, r.ChunkIndex, r.Content, r.Score}
	}
	return legResult{hits: hits, embedding: emb}
}

func (s *Searcher) runText(ctx context.Context, query string, limit int, minScore float64) legResult {
	results, err := s.storage.SearchText(ctx, query, limit)
	if err != nil {
		return legResult{err: err}
	}

	hits := make([]hit, 0, len(results))
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		hits = append(hits, hit{r.ChunkID, r.DocumentID, r.Source, r.ChunkIndex, r.Content, r.Score})
	}
	return legResult{hits: hits}
}

func (s *Searcher) vectorSearch(ctx context.Context, req Request) (*Response, error) {
	res := s.runVector(ctx, req.Query, req.Limit, req.MinScore)
	if res.err != nil {
		return nil, res.err
	}

	resp := &Response{
		Results:       rank(res.hits),
		VectorResults: len(res.hits),
	}
	resp.Provider, resp.Model = res.embedding.Provider, res.embedding.Model
	return resp, nil
}

func (s *Searcher) textSearch(ctx context.Context, req Request) (*Response, error) {
	res := s.runText(ctx, req.Query, req.Limit, req.MinScore)
	if res.err != nil {
		return nil, res.err
	}

	return &Response{
		Results:     rank(res.hits),
		TextResults: len(res.hits),
	}, nil
}

// hybridSearch runs both legs concurrently and fuses them with RRF
func (s *Searcher) hybridSearch(ctx context.Context, req Request) (*Response, error) {
	vectorChan := make(chan legResult, 1)
	textChan := make(chan legResult, 1)

	// each leg over-fetches so fusion can promote chunks ranked low by one leg
	legLimit := req.Limit * 2
	go func() { vectorChan <- s.runVector(ctx, req.Query, legLimit, req.MinScore) }()
	go func() { textChan <- s.runText(ctx, req.Query, legLimit, req.MinScore) }()

	var vectorRes, textRes legResult
	var vectorDone, textDone bool
	for !vectorDone || !textDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case textRes = <-textChan:
			textDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if vectorRes.err != nil && textRes.err != nil {
		return nil, fmt.Errorf("both searches failed: vector=%w, text=%w", vectorRes.err, textRes.err)
	}
	if vectorRes.err != nil {
		log.Warnf("hybrid search: vector leg failed, using text results: %v", vectorRes.err)
	}
	if textRes.err != nil {
		log.Warnf("hybrid search: text leg failed, using vector results: %v", textRes.err)
	}

	fused := applyRRF(vectorRes.hits, textRes.hits, req.RRFConstant)
	if len(fused) > req.Limit {
		fused = fused[:req.Limit]
	}

	resp := &Response{
		Results:       rank(fused),
		VectorResults: len(vectorRes.hits),
		TextResults:   len(textRes.hits),
	}
	if vectorRes.embedding != nil {
		resp.Provider, resp.Model = vectorRes.embedding.Provider, vectorRes.embedding.Model
	}
	return resp, nil
}

// applyRRF applies Reciprocal Rank Fusion to combine vector and text hits.
// RRF(d) = sum of 1/(k + rank(d)) over the legs that returned d.
func applyRRF(vectorHits, textHits []hit, k float64) []hit {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	fused := make(map[int64]*hit, len(vectorHits)+len(textHits))
	add := func(hits []hit) {
		for i, h := range hits {
			score := 1.0 / (k + float64(i+1))
			if f, ok := fused[h.chunkID]; ok {
				f.score += score
				continue
			}
			h.score = score
			fused[h.chunkID] = &h
		}
	}
	add(vectorHits)
	add(textHits)

	out := make([]hit, 0, len(fused))
	for _, h := range fused {
		out = append(out, *h)
	}
	sortHits(out)
	return out
}

// sortHits orders by score descending, then chunk ID ascending
func sortHits(hits []hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].chunkID < hits[j].chunkID
	})
}

// rank converts ordered hits into 1-based search results
func rank(hits []hit) []types.SearchResult {
	out := make([]types.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = types.SearchResult{
			ChunkID:    h.chunkID,
			DocumentID: h.documentID,
			Rank:       i + 1,
			Source:     h.source,
			ChunkIndex: h.chunkIndex,
			Score:      h.score,
			Content:    h.content,
		}
	}
	return out
}

// validateRequest applies defaults and rejects malformed requests
func validateRequest(req *Request) error {
	if req.Query == "" {
		return ErrEmptyQuery
	}

	if req.Limit < 0 || req.Limit > MaxLimit {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, req.Limit)
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}

	switch req.Mode {
	case "":
		req.Mode = DefaultMode
	case ModeHybrid, ModeVector, ModeText:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMode, req.Mode)
	}

	if req.RRFConstant == 0 {
		req.RRFConstant = DefaultRRFConstant
	}
	return nil
}
