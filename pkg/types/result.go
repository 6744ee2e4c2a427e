package types

// SearchResult represents a single stored chunk matched by a query
type SearchResult struct {
	// Identification
	ChunkID    int64
	DocumentID int64
	Rank       int // Position in result set (1-based)
	Source     string
	ChunkIndex int

	// Scoring
	Score float64 // Cosine similarity, normalized BM25 or fused RRF score

	Content string
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == 0 {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Score < -1 || sr.Score > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Source == "" {
		return ErrMissingSource
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
