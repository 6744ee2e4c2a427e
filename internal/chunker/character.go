package chunker

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// CharacterConfig configures a CharacterSplitter
type CharacterConfig struct {
	Separator        string
	SeparatorIsRegex bool
	ChunkSize        int
	ChunkOverlap     int
	KeepSeparator    bool
}

// DefaultCharacterConfig returns paragraph splitting with 1000/200 runes
func DefaultCharacterConfig() CharacterConfig {
	return CharacterConfig{
		Separator:    "\n\n",
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}

// CharacterSplitter splits on a single separator and packs the pieces into
// size-bounded, overlapping chunks. A piece longer than ChunkSize is kept
// whole.
type CharacterSplitter struct {
	sizeOpts
	literal textsplitter.TextSplitter
	sep     separator
	keep    bool
}

// NewCharacterSplitter validates cfg and builds a splitter
func NewCharacterSplitter(cfg CharacterConfig) (*CharacterSplitter, error) {
	opts, err := newSizeOpts(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	c := &CharacterSplitter{sizeOpts: opts, keep: cfg.KeepSeparator}
	if !cfg.SeparatorIsRegex {
		c.literal = opts.literalSplitter([]string{cfg.Separator}, cfg.KeepSeparator)
		return c, nil
	}

	c.sep, err = compileSeparator(cfg.Separator)
	if err != nil {
		return nil, fmt.Errorf("compile separator %q: %w", cfg.Separator, err)
	}
	return c, nil
}

// SplitText implements Splitter
func (c *CharacterSplitter) SplitText(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.literal != nil {
		chunks, err := c.literal.SplitText(text)
		if err != nil {
			return nil, err
		}
		return cleanChunks(chunks), nil
	}
	splits := c.sep.split(text, c.keep)
	return c.mergeSplits(splits, c.sep.joinSep(c.keep)), nil
}
