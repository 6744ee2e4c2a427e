package storage

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVector_RoundTrip(t *testing.T) {
	vector := []float32{0, 1, -1, 0.5, math.MaxFloat32, float32(math.Inf(1))}
	blob := serializeVector(vector)

	assert.Len(t, blob, len(vector)*4)
	assert.Equal(t, vector, deserializeVector(blob))
	assert.Empty(t, deserializeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSortCandidates_TiesByChunkID(t *testing.T) {
	candidates := []candidate{
		{chunkID: 3, score: 0.5},
		{chunkID: 1, score: 0.9},
		{chunkID: 2, score: 0.5},
	}
	sortCandidates(candidates)

	assert.Equal(t, []candidate{
		{chunkID: 1, score: 0.9},
		{chunkID: 2, score: 0.5},
		{chunkID: 3, score: 0.5},
	}, candidates)
}

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"fox", `"fox"`},
		{"quick fox", `"quick" OR "fox"`},
		{`fox* AND "dog"`, `"fox" OR "AND" OR "dog"`},
		{"(NEAR)", `"NEAR"`},
		{"语义 分割", `"语义" OR "分割"`},
		{"?!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFTSQuery(tt.in))
		})
	}
}

func seedVectors(tb testing.TB, s *SQLiteStorage, n, dim int) {
	tb.Helper()
	ctx := context.Background()

	doc := &Document{Source: "bench.txt", ChunkCount: n}
	require.NoError(tb, s.UpsertDocument(ctx, doc))
	for i := 0; i < n; i++ {
		chunk := &Chunk{DocumentID: doc.ID, ChunkIndex: i, Content: fmt.Sprintf("chunk %d", i)}
		require.NoError(tb, s.InsertChunk(ctx, chunk))

		vector := make([]float32, dim)
		for j := range vector {
			vector[j] = float32((i+1)*(j+1)%97) / 97
		}
		require.NoError(tb, s.UpsertEmbedding(ctx, NewEmbedding(chunk.ID, vector, "local", "m")))
	}
}

func TestSearchVector_LimitEdgeCases(t *testing.T) {
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer s.Close()
	seedVectors(t, s, 20, 8)

	query := make([]float32, 8)
	query[0] = 1

	all, err := s.SearchVector(context.Background(), query, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 20)

	top, err := s.SearchVector(context.Background(), query, 5, 0)
	require.NoError(t, err)
	require.Len(t, top, 5)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Score, top[i].Score)
	}

	none, err := s.SearchVector(context.Background(), []float32{}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func BenchmarkSearchVector(b *testing.B) {
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(b, err)
	defer s.Close()
	seedVectors(b, s, 1000, 384)

	query := make([]float32, 384)
	for i := range query {
		query[i] = float32(i) * 0.01
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.SearchVector(context.Background(), query, 10, 0); err != nil {
			b.Fatal(err)
		}
	}
}
