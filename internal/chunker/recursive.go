package chunker

import (
	"context"
	"fmt"
	"slices"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultSeparators are tried in order by RecursiveSplitter
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveConfig configures a RecursiveSplitter
type RecursiveConfig struct {
	Separators         []string // nil selects DefaultSeparators
	SeparatorsAreRegex bool
	ChunkSize          int
	ChunkOverlap       int
	KeepSeparator      bool
}

// DefaultRecursiveConfig returns the default separators with 1000/200 runes
func DefaultRecursiveConfig() RecursiveConfig {
	return RecursiveConfig{
		Separators:    DefaultSeparators,
		ChunkSize:     1000,
		ChunkOverlap:  200,
		KeepSeparator: true,
	}
}

// RecursiveSplitter splits on the first separator present in the text and
// recurses into pieces that are still too long with the remaining
// separators. The empty separator splits into runes, so with "" last in the
// list every chunk fits ChunkSize.
type RecursiveSplitter struct {
	sizeOpts
	literal    textsplitter.TextSplitter
	separators []separator
	keep       bool
}

// NewRecursiveSplitter validates cfg and builds a splitter
func NewRecursiveSplitter(cfg RecursiveConfig) (*RecursiveSplitter, error) {
	opts, err := newSizeOpts(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	raw := cfg.Separators
	if len(raw) == 0 {
		raw = DefaultSeparators
	}

	r := &RecursiveSplitter{sizeOpts: opts, keep: cfg.KeepSeparator}
	if !cfg.SeparatorsAreRegex {
		r.literal = opts.literalSplitter(slices.Clone(raw), cfg.KeepSeparator)
		return r, nil
	}

	r.separators = make([]separator, 0, len(raw))
	for _, pattern := range raw {
		sep, err := compileSeparator(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile separator %q: %w", pattern, err)
		}
		r.separators = append(r.separators, sep)
	}
	return r, nil
}

// SplitText implements Splitter
func (r *RecursiveSplitter) SplitText(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.literal != nil {
		chunks, err := r.literal.SplitText(text)
		if err != nil {
			return nil, err
		}
		return cleanChunks(chunks), nil
	}
	return r.split(text, r.separators), nil
}

// split is the regex counterpart of the literal descent
func (r *RecursiveSplitter) split(text string, seps []separator) []string {
	final := make([]string, 0)

	sep := seps[len(seps)-1]
	var rest []separator
	for i, s := range seps {
		if s.empty() {
			sep = s
			break
		}
		if s.presentIn(text) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	joinSep := sep.joinSep(r.keep)
	good := make([]string, 0)
	for _, piece := range sep.split(text, r.keep) {
		if runeLen(piece) < r.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, r.mergeSplits(good, joinSep)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, r.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, r.mergeSplits(good, joinSep)...)
	}

	return final
}
