package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// sizeOpts are the size limits shared by the character based splitters.
// Lengths are counted in runes.
type sizeOpts struct {
	chunkSize    int
	chunkOverlap int
}

func newSizeOpts(size, overlap int) (sizeOpts, error) {
	if size <= 0 {
		return sizeOpts{}, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= size {
		return sizeOpts{}, ErrInvalidOverlap
	}
	return sizeOpts{chunkSize: size, chunkOverlap: overlap}, nil
}

// literalSplitter builds the langchaingo splitter used for literal
// separators. A single separator that is absent from the text leaves the
// text whole, which gives plain character splitting.
func (o sizeOpts) literalSplitter(separators []string, keep bool) textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(separators),
		textsplitter.WithChunkSize(o.chunkSize),
		textsplitter.WithChunkOverlap(o.chunkOverlap),
		textsplitter.WithKeepSeparator(keep),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
}

// cleanChunks trims chunk edges and drops chunks left empty
func cleanChunks(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// separator is a compiled regex split pattern. An empty pattern splits into
// runes. Merged pieces are rejoined with a single space since the matched
// text differs from match to match.
type separator struct {
	re *regexp.Regexp
}

func compileSeparator(pattern string) (separator, error) {
	if pattern == "" {
		return separator{}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return separator{}, err
	}
	return separator{re: re}, nil
}

func (s separator) empty() bool {
	return s.re == nil
}

func (s separator) presentIn(text string) bool {
	return s.empty() || s.re.MatchString(text)
}

// split cuts text on the separator and drops empty pieces. With keep the
// matched separator stays at the start of the following piece.
func (s separator) split(text string, keep bool) []string {
	if s.empty() {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	out := make([]string, 0)
	prev := 0
	for _, loc := range s.re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > prev || !keep {
			out = appendNonEmpty(out, text[prev:loc[0]])
		}
		if keep {
			prev = loc[0]
		} else {
			prev = loc[1]
		}
	}
	return appendNonEmpty(out, text[prev:])
}

func appendNonEmpty(out []string, s string) []string {
	if s == "" {
		return out
	}
	return append(out, s)
}

// joinSep returns the text placed between merged pieces
func (s separator) joinSep(keep bool) string {
	if keep || s.empty() {
		return ""
	}
	return " "
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// mergeSplits greedily packs regex pieces into chunks of at most chunkSize
// runes, starting each new chunk with up to chunkOverlap runes of trailing
// pieces from the previous one. A single piece longer than chunkSize
// becomes its own oversized chunk.
func (o sizeOpts) mergeSplits(splits []string, sep string) []string {
	sepLen := runeLen(sep)
	docs := make([]string, 0)
	current := make([]string, 0)
	total := 0

	joinedLen := func(extra int) int {
		if len(current) > 0 {
			return total + extra + sepLen
		}
		return total + extra
	}

	for _, d := range splits {
		l := runeLen(d)
		if joinedLen(l) > o.chunkSize && len(current) > 0 {
			if doc, ok := joinDocs(current, sep); ok {
				docs = append(docs, doc)
			}
			for total > o.chunkOverlap || (joinedLen(l) > o.chunkSize && total > 0) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}

		current = append(current, d)
		total += l
		if len(current) > 1 {
			total += sepLen
		}
	}

	if doc, ok := joinDocs(current, sep); ok {
		docs = append(docs, doc)
	}
	return docs
}

func joinDocs(parts []string, sep string) (string, bool) {
	doc := strings.TrimSpace(strings.Join(parts, sep))
	return doc, doc != ""
}
