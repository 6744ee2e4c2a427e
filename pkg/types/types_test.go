package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	a := NewDocument("hello", nil)
	b := NewDocument("hello", nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NoError(t, a.Validate())
}

func TestDocument_Validate(t *testing.T) {
	doc := Document{Content: "x"}
	assert.ErrorIs(t, doc.Validate(), ErrMissingDocumentID)
}

func TestDocument_CloneMetadata(t *testing.T) {
	doc := Document{ID: "d1", Metadata: map[string]any{"lang": "en"}}

	clone := doc.CloneMetadata()
	clone["lang"] = "zh"
	clone[MetaChunkIndex] = 3

	assert.Equal(t, "en", doc.Metadata["lang"])
	assert.NotContains(t, doc.Metadata, MetaChunkIndex)

	empty := Document{ID: "d2"}
	assert.NotNil(t, empty.CloneMetadata())
}

func TestDocument_Source(t *testing.T) {
	doc := Document{ID: "d1"}
	assert.Equal(t, "d1", doc.Source())

	doc.Metadata = map[string]any{MetaSource: "/tmp/a.txt"}
	assert.Equal(t, "/tmp/a.txt", doc.Source())
}

func TestNewChunk(t *testing.T) {
	c := NewChunk(7, 2, "这是一个句子。This is another sentence.")

	require.NoError(t, c.Validate())
	assert.Equal(t, int64(7), c.DocumentID)
	assert.Equal(t, 2, c.ChunkIndex)
	assert.Greater(t, c.TokenCount, 0)

	same := NewChunk(8, 0, c.Content)
	assert.Equal(t, c.ContentHash, same.ContentHash)
}

func TestChunk_ComputeTokenCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"ab", 1},
		{"abcdefgh", 2},
		{"一二三四五六七八", 2},
	}

	for _, tt := range tests {
		c := &Chunk{Content: tt.content}
		assert.Equal(t, tt.want, c.ComputeTokenCount(), "content %q", tt.content)
	}
}

func TestChunk_Validate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr bool
	}{
		{"valid", NewChunk(1, 0, "text"), false},
		{"empty content", &Chunk{DocumentID: 1}, true},
		{"missing document", &Chunk{Content: "x", ContentHash: [32]byte{1}}, true},
		{"negative index", &Chunk{DocumentID: 1, ChunkIndex: -1, Content: "x", ContentHash: [32]byte{1}}, true},
		{"hash not computed", &Chunk{DocumentID: 1, Content: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSearchResult_Validate(t *testing.T) {
	valid := SearchResult{ChunkID: 1, Rank: 1, Source: "a.txt", Score: 0.8, Content: "x"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Rank = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidRank)

	bad = valid
	bad.Score = 1.5
	assert.ErrorIs(t, bad.Validate(), ErrInvalidRelevanceScore)

	bad = valid
	bad.Source = ""
	assert.ErrorIs(t, bad.Validate(), ErrMissingSource)

	bad = valid
	bad.ChunkID = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidChunkID)
}
