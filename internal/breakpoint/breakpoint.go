package breakpoint

import (
	"math"
	"strings"

	"github.com/yuanlichao666/llm-ops/internal/stats"
)

// ThresholdType selects the statistical rule used to place breakpoints
type ThresholdType string

const (
	Percentile        ThresholdType = "percentile"
	StandardDeviation ThresholdType = "standard_deviation"
	Interquartile     ThresholdType = "interquartile"
	Gradient          ThresholdType = "gradient"
)

// Default amounts per threshold type
const (
	DefaultPercentileAmount        = 0.7
	DefaultStandardDeviationAmount = 2.0
	DefaultInterquartileAmount     = 1.5
	DefaultGradientAmount          = 0.1
)

// ThresholdTypes lists every supported threshold type
var ThresholdTypes = []ThresholdType{Percentile, StandardDeviation, Interquartile, Gradient}

// ParseThresholdType maps a tag to a ThresholdType.
// Unknown or empty tags fall back to Percentile.
func ParseThresholdType(s string) ThresholdType {
	t := ThresholdType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return Percentile
}

// Valid reports whether t is one of the four supported types
func (t ThresholdType) Valid() bool {
	switch t {
	case Percentile, StandardDeviation, Interquartile, Gradient:
		return true
	}
	return false
}

func (t ThresholdType) String() string {
	return string(t)
}

// DefaultAmount returns the default amount for t
func DefaultAmount(t ThresholdType) float64 {
	switch t {
	case StandardDeviation:
		return DefaultStandardDeviationAmount
	case Interquartile:
		return DefaultInterquartileAmount
	case Gradient:
		return DefaultGradientAmount
	default:
		return DefaultPercentileAmount
	}
}

// Strategy is the immutable configuration of a breakpoint rule.
// A Strategy holds no state derived from distances, so one value can be
// shared freely; Prepare produces the per-run Breakpoints.
type Strategy struct {
	Type   ThresholdType
	Amount float64
	// NumberOfChunks, when > 0, re-targets Percentile at a chunk count.
	// Ignored by the other types.
	NumberOfChunks int
}

// New builds a Strategy. Unknown types fall back to Percentile.
func New(t ThresholdType, amount float64, numberOfChunks int) Strategy {
	if !t.Valid() {
		t = Percentile
	}
	if numberOfChunks < 0 {
		numberOfChunks = 0
	}
	return Strategy{Type: t, Amount: amount, NumberOfChunks: numberOfChunks}
}

// Default builds a Strategy of type t with its default amount
func Default(t ThresholdType) Strategy {
	return New(t, DefaultAmount(t), 0)
}

// Breakpoints is the prepared, read-only result of applying a Strategy to
// a distance sequence. Index k refers to distances[k], the distance between
// block k and block k+1; IsBreakpoint(k) means block k+1 opens a new chunk.
type Breakpoints struct {
	threshold    float64
	hasThreshold bool
	flags        []bool
}

// Prepare computes breakpoints for distances. The slice is not retained.
// Indices listed in forced are breakpoints regardless of the rule; a NaN
// distance is always one too. Out-of-range forced indices are ignored.
func (s Strategy) Prepare(distances []float64, forced ...int) *Breakpoints {
	t := s.Type
	if !t.Valid() {
		t = Percentile
	}

	var b *Breakpoints
	switch t {
	case Gradient:
		b = prepareGradient(distances, s.Amount)
	default:
		threshold := s.threshold(t, finite(distances))
		b = &Breakpoints{
			threshold:    threshold,
			hasThreshold: true,
			flags:        make([]bool, len(distances)),
		}
		for i, d := range distances {
			b.flags[i] = d > threshold
		}
	}

	for i, d := range distances {
		if math.IsNaN(d) {
			b.flags[i] = true
		}
	}
	for _, i := range forced {
		if i >= 0 && i < len(b.flags) {
			b.flags[i] = true
		}
	}
	return b
}

// finite returns the non-NaN distances, the input to every threshold
func finite(distances []float64) []float64 {
	out := make([]float64, 0, len(distances))
	for _, d := range distances {
		if !math.IsNaN(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s Strategy) threshold(t ThresholdType, distances []float64) float64 {
	switch t {
	case StandardDeviation:
		mean := stats.Mean(distances)
		return mean + s.Amount*stats.StandardDeviationWithMean(distances, mean)
	case Interquartile:
		q1, q3 := stats.Quartiles(distances)
		return q3 + s.Amount*(q3-q1)
	default:
		return stats.Quantile(distances, s.percentile(len(distances)))
	}
}

// percentile returns the quantile level used by the Percentile rule
func (s Strategy) percentile(n int) float64 {
	if s.NumberOfChunks <= 0 || n == 0 {
		return s.Amount
	}
	p := 1 - float64(s.NumberOfChunks-1)/float64(n)
	return math.Max(0, math.Min(1, p))
}

// prepareGradient flags the peak index i of every complete triple where
// d[i] > d[i+1] <= d[i+2] and the drop d[i]-d[i+1] exceeds amount.
func prepareGradient(distances []float64, amount float64) *Breakpoints {
	b := &Breakpoints{flags: make([]bool, len(distances))}
	g := stats.Gradient(distances)
	for i := 0; i+2 < len(distances); i++ {
		drop := -g[i]
		if drop > 0 && g[i+1] >= 0 && drop > amount {
			b.flags[i] = true
		}
	}
	return b
}

// IsBreakpoint reports whether distances[index] marks a boundary.
// Out-of-range indices are never breakpoints.
func (b *Breakpoints) IsBreakpoint(index int) bool {
	if b == nil || index < 0 || index >= len(b.flags) {
		return false
	}
	return b.flags[index]
}

// Threshold returns the scalar threshold and whether the rule has one.
// Gradient breakpoints are shape-based and report false.
func (b *Breakpoints) Threshold() (float64, bool) {
	if b == nil {
		return 0, false
	}
	return b.threshold, b.hasThreshold
}

// Indices returns the flagged indices in ascending order
func (b *Breakpoints) Indices() []int {
	if b == nil {
		return nil
	}
	out := make([]int, 0)
	for i, f := range b.flags {
		if f {
			out = append(out, i)
		}
	}
	return out
}

// Count returns the number of flagged indices
func (b *Breakpoints) Count() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, f := range b.flags {
		if f {
			n++
		}
	}
	return n
}
