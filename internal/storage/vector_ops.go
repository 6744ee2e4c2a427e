package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// searchVector ranks every stored embedding by cosine similarity in Go.
// A limit <= 0 returns all candidates.
func searchVector(ctx context.Context, q querier, queryVector []float32, limit int, minScore float64) ([]VectorResult, error) {
	candidates, err := scoreCandidates(ctx, q, queryVector, minScore)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return []VectorResult{}, nil
	}

	return hydrateVectorResults(ctx, q, candidates)
}

// scoreCandidates reads all embeddings and scores them. Rows are closed
// before returning so the single pooled connection is free again.
func scoreCandidates(ctx context.Context, q querier, queryVector []float32, minScore float64) ([]candidate, error) {
	query := `
		SELECT e.chunk_id, e.vector
		FROM embeddings e
		INNER JOIN chunks c ON c.id = e.chunk_id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, 256)
	for rows.Next() {
		var chunkID int64
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, err
		}

		vector := deserializeVector(blob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		score := cosineSimilarity(queryVector, vector)
		if minScore > 0 && score < minScore {
			continue
		}
		candidates = append(candidates, candidate{chunkID: chunkID, score: score})
	}
	return candidates, rows.Err()
}

// hydrateVectorResults loads content and source for the ranked chunk IDs
func hydrateVectorResults(ctx context.Context, q querier, candidates []candidate) ([]VectorResult, error) {
	placeholders := make([]string, len(candidates))
	args := make([]interface{}, len(candidates))
	for i, c := range candidates {
		placeholders[i] = "?"
		args[i] = c.chunkID
	}

	query := `
		SELECT c.id, c.document_id, d.source, c.chunk_index, c.content
		FROM chunks c
		INNER JOIN documents d ON d.id = c.document_id
		WHERE c.id IN (` + strings.Join(placeholders, ",") + `)
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[int64]VectorResult, len(candidates))
	for rows.Next() {
		var r VectorResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Source, &r.ChunkIndex, &r.Content); err != nil {
			return nil, err
		}
		byID[r.ChunkID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]VectorResult, 0, len(candidates))
	for _, c := range candidates {
		r, ok := byID[c.chunkID]
		if !ok {
			continue
		}
		r.Score = c.score
		results = append(results, r)
	}
	return results, nil
}

// searchText performs BM25 full-text search using FTS5
func searchText(ctx context.Context, q querier, query string, limit int) ([]TextResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	sqlQuery := `
		SELECT c.id, c.document_id, d.source, c.chunk_index, c.content,
		       bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON c.id = chunks_fts.rowid
		INNER JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, sanitized, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var r TextResult
		var bm25 float64
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Source, &r.ChunkIndex, &r.Content, &bm25); err != nil {
			return nil, err
		}
		// BM25 is negative, lower is better; typical range [-50, 0]
		r.Score = 1.0 / (1.0 + math.Abs(bm25)/50.0)
		results = append(results, r)
	}
	return results, rows.Err()
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity returns 0 for mismatched lengths or zero-norm vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate represents a chunk with its similarity score
type candidate struct {
	chunkID int64
	score   float64
}

// sortCandidates orders by score descending, then chunk ID ascending
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].chunkID < candidates[j].chunkID
	})
}

var ftsTermPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// sanitizeFTSQuery reduces free text to quoted FTS5 terms joined by OR, so
// operators and punctuation in user input are never interpreted.
func sanitizeFTSQuery(query string) string {
	terms := ftsTermPattern.FindAllString(query, -1)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}
