package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveSplitter(t *testing.T) {
	tests := []struct {
		name string
		cfg  RecursiveConfig
		text string
		want []string
	}{
		{
			name: "falls through to spaces",
			cfg:  RecursiveConfig{ChunkSize: 9, ChunkOverlap: 0, KeepSeparator: true},
			text: "aaaa bbbb cccc",
			want: []string{"aaaa bbbb", "cccc"},
		},
		{
			name: "no separator present splits runes",
			cfg:  RecursiveConfig{ChunkSize: 4, ChunkOverlap: 0},
			text: "abcdefghij",
			want: []string{"abcd", "efgh", "ij"},
		},
		{
			name: "recurses into long paragraph",
			cfg:  RecursiveConfig{ChunkSize: 12, ChunkOverlap: 0},
			text: "short para\n\nword1 word2 word3",
			want: []string{"short para", "word1 word2", "word3"},
		},
		{
			name: "regex separators keep punctuation",
			cfg: RecursiveConfig{
				Separators:         []string{"\n\n", "[。！？]"},
				SeparatorsAreRegex: true,
				ChunkSize:          5,
				ChunkOverlap:       0,
				KeepSeparator:      true,
			},
			text: "第一句。第二句！第三句？",
			want: []string{"第一句", "。第二句", "！第三句？"},
		},
		{
			name: "short text untouched",
			cfg:  RecursiveConfig{ChunkSize: 100, ChunkOverlap: 10},
			text: "fits in one chunk",
			want: []string{"fits in one chunk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewRecursiveSplitter(tt.cfg)
			require.NoError(t, err)

			got, err := s.SplitText(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecursiveSplitter_ChunksFitSize(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit.\n", 20) +
		"\n\n" + strings.Repeat("supercalifragilisticexpialidocious", 3)

	s, err := NewRecursiveSplitter(RecursiveConfig{ChunkSize: 30, ChunkOverlap: 5, KeepSeparator: true})
	require.NoError(t, err)

	chunks, err := s.SplitText(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, runeLen(c), 30, c)
		assert.NotEmpty(t, c)
	}
}

func TestRecursiveSplitter_Defaults(t *testing.T) {
	s, err := NewRecursiveSplitter(DefaultRecursiveConfig())
	require.NoError(t, err)
	assert.NotNil(t, s.literal)
	assert.Empty(t, s.separators)
	assert.True(t, s.keep)

	regex, err := NewRecursiveSplitter(RecursiveConfig{Separators: []string{`\n+`, ""}, SeparatorsAreRegex: true, ChunkSize: 5})
	require.NoError(t, err)
	assert.Nil(t, regex.literal)
	assert.Len(t, regex.separators, 2)

	_, err = NewRecursiveSplitter(RecursiveConfig{ChunkSize: 5, ChunkOverlap: 5})
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	_, err = NewRecursiveSplitter(RecursiveConfig{Separators: []string{"["}, SeparatorsAreRegex: true, ChunkSize: 5})
	assert.Error(t, err)
}

func TestRecursiveSplitter_CancelledContext(t *testing.T) {
	s, err := NewRecursiveSplitter(DefaultRecursiveConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SplitText(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}
