// Package searcher finds stored chunks for a natural language query.
//
// Three modes are supported:
//   - Vector: cosine similarity between the query embedding and stored vectors
//   - Text: SQLite FTS5 BM25 over chunk content, no embedding required
//   - Hybrid: both legs run concurrently and are merged with Reciprocal Rank Fusion
//
// # Basic Usage
//
//	s := searcher.New(store, emb)
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    Query: "sleeping cats",
//	    Limit: 5,
//	    Mode:  searcher.ModeHybrid,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s#%d (score: %.3f)\n", r.Rank, r.Source, r.ChunkIndex, r.Score)
//	}
//
// # Scores
//
// Vector results carry the cosine similarity and text results the normalized
// BM25 score in (0, 1]. MinScore is applied to each leg's own score before
// fusion. Hybrid results carry the fused score, sum of 1/(k + rank) over both
// legs with k = 60 unless overridden. Equal fused scores are ordered by chunk ID.
//
// Hybrid search tolerates one failed leg; the error is returned only when both fail.
package searcher
