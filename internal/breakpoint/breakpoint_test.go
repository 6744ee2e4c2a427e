package breakpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThresholdType(t *testing.T) {
	tests := []struct {
		in   string
		want ThresholdType
	}{
		{"percentile", Percentile},
		{"standard_deviation", StandardDeviation},
		{"interquartile", Interquartile},
		{"gradient", Gradient},
		{" GRADIENT ", Gradient},
		{"", Percentile},
		{"median", Percentile},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseThresholdType(tt.in))
		})
	}
}

func TestNew_UnknownTypeFallsBack(t *testing.T) {
	s := New(ThresholdType("bogus"), 0.5, -3)
	assert.Equal(t, Percentile, s.Type)
	assert.Equal(t, 0.5, s.Amount)
	assert.Equal(t, 0, s.NumberOfChunks)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, 0.7, Default(Percentile).Amount)
	assert.Equal(t, 2.0, Default(StandardDeviation).Amount)
	assert.Equal(t, 1.5, Default(Interquartile).Amount)
	assert.Equal(t, 0.1, Default(Gradient).Amount)
}

func TestPercentile_SingleSpike(t *testing.T) {
	distances := []float64{0.1, 0.1, 0.9, 0.1, 0.1}

	bp := New(Percentile, 0.7, 0).Prepare(distances)

	assert.Equal(t, []int{2}, bp.Indices())
	threshold, ok := bp.Threshold()
	assert.True(t, ok)
	assert.InDelta(t, 0.1, threshold, 1e-9)
}

func TestStandardDeviation_LessSensitiveThanPercentile(t *testing.T) {
	distances := []float64{0.1, 0.9, 0.1, 0.1}

	pct := New(Percentile, 0.7, 0).Prepare(distances)
	std := New(StandardDeviation, 2, 0).Prepare(distances)

	assert.Equal(t, []int{1}, pct.Indices())
	assert.Empty(t, std.Indices(), "one spike among four values stays under mean+2σ")
}

func TestStandardDeviation_StrongOutlier(t *testing.T) {
	distances := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9}

	bp := New(StandardDeviation, 2, 0).Prepare(distances)

	assert.Equal(t, []int{9}, bp.Indices())
}

func TestInterquartile(t *testing.T) {
	bp := New(Interquartile, 1.5, 0).Prepare([]float64{0.1, 0.1, 0.9, 0.1, 0.1})
	assert.Equal(t, []int{2}, bp.Indices())

	// Q1=2.75 Q3=6.25 IQR=3.5 -> threshold 6.25+1.5*3.5 = 11.5
	bp = New(Interquartile, 1.5, 0).Prepare([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	threshold, ok := bp.Threshold()
	require.True(t, ok)
	assert.InDelta(t, 11.5, threshold, 1e-9)
	assert.Zero(t, bp.Count())
}

func TestZeroVarianceProducesNoBreakpoints(t *testing.T) {
	distances := []float64{0.25, 0.25, 0.25, 0.25}

	for _, typ := range ThresholdTypes {
		t.Run(typ.String(), func(t *testing.T) {
			bp := Default(typ).Prepare(distances)
			assert.Zero(t, bp.Count())
		})
	}
}

func TestGradient(t *testing.T) {
	tests := []struct {
		name      string
		distances []float64
		amount    float64
		want      []int
	}{
		{"spike then plateau", []float64{0.1, 0.1, 0.8, 0.1, 0.1}, 0.1, []int{2}},
		{"peak then valley", []float64{0.2, 0.9, 0.1, 0.5}, 0.1, []int{1}},
		{"monotonic increase", []float64{0.1, 0.2, 0.3, 0.4, 0.5}, 0.1, []int{}},
		{"drop below amount", []float64{0.3, 0.25, 0.3}, 0.1, []int{}},
		{"drop then keeps falling", []float64{0.9, 0.5, 0.1}, 0.1, []int{}},
		{"too short", []float64{0.9, 0.1}, 0.1, []int{}},
		{"empty", nil, 0.1, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := New(Gradient, tt.amount, 0).Prepare(tt.distances)
			assert.Equal(t, tt.want, bp.Indices())
			_, ok := bp.Threshold()
			assert.False(t, ok)
		})
	}
}

func TestPercentile_NumberOfChunks(t *testing.T) {
	distances := []float64{0.1, 0.2, 0.3, 0.4, 0.5}

	// p = 1 - 2/5 = 0.6 -> threshold 0.34
	bp := New(Percentile, 0.7, 3).Prepare(distances)
	assert.Equal(t, []int{3, 4}, bp.Indices())

	// p = 1 -> threshold is the max, nothing exceeds it
	bp = New(Percentile, 0.7, 1).Prepare(distances)
	assert.Zero(t, bp.Count())

	// p clamps at 0
	bp = New(Percentile, 0.7, 50).Prepare(distances)
	assert.Equal(t, []int{1, 2, 3, 4}, bp.Indices())
}

func TestPercentile_NumberOfChunksMonotonic(t *testing.T) {
	distances := []float64{0.1, 0.5, 0.2, 0.8, 0.3, 0.6, 0.4}

	prev := -1
	for k := 1; k <= len(distances)+1; k++ {
		count := New(Percentile, 0.7, k).Prepare(distances).Count()
		assert.GreaterOrEqual(t, count, prev, "numberOfChunks=%d", k)
		prev = count
	}
	assert.Zero(t, New(Percentile, 0.7, 1).Prepare(distances).Count())
}

func TestNumberOfChunksIgnoredByOtherTypes(t *testing.T) {
	distances := []float64{0.1, 0.1, 0.9, 0.1, 0.1}
	for _, typ := range []ThresholdType{StandardDeviation, Interquartile, Gradient} {
		a := New(typ, DefaultAmount(typ), 0).Prepare(distances)
		b := New(typ, DefaultAmount(typ), 4).Prepare(distances)
		assert.Equal(t, a.Indices(), b.Indices(), typ.String())
	}
}

func TestNaNDistanceIsBreakpoint(t *testing.T) {
	for _, typ := range ThresholdTypes {
		bp := Default(typ).Prepare([]float64{0.1, math.NaN(), 0.1, 0.1})
		assert.True(t, bp.IsBreakpoint(1), typ.String())
	}
}

func TestNaNDistanceDoesNotMoveThreshold(t *testing.T) {
	distances := []float64{0.1, math.NaN(), 0.2, 0.9}

	bp := New(Percentile, 0.1, 0).Prepare(distances)
	threshold, ok := bp.Threshold()
	require.True(t, ok)
	assert.InDelta(t, 0.12, threshold, 1e-9)
	assert.Equal(t, []int{1, 2, 3}, bp.Indices())

	bp = New(StandardDeviation, 1, 0).Prepare(distances)
	threshold, _ = bp.Threshold()
	assert.False(t, math.IsNaN(threshold))
	assert.Equal(t, []int{1, 3}, bp.Indices())
}

func TestPrepare_Forced(t *testing.T) {
	distances := []float64{0, 1, 1, 0}
	for _, typ := range ThresholdTypes {
		bp := Default(typ).Prepare(distances, 1, 2, -1, 9)
		assert.Equal(t, []int{1, 2}, bp.Indices(), typ.String())
	}
}

func TestIsBreakpoint_OutOfRange(t *testing.T) {
	bp := Default(Percentile).Prepare([]float64{0.1, 0.9})
	assert.False(t, bp.IsBreakpoint(-1))
	assert.False(t, bp.IsBreakpoint(2))

	var nilBP *Breakpoints
	assert.False(t, nilBP.IsBreakpoint(0))
	assert.Zero(t, nilBP.Count())
	assert.Nil(t, nilBP.Indices())
}

func TestPrepare_IndependentRuns(t *testing.T) {
	s := Default(Percentile)

	first := s.Prepare([]float64{0.1, 0.1, 0.9, 0.1, 0.1})
	second := s.Prepare([]float64{0.9, 0.1, 0.1, 0.1, 0.1})

	assert.Equal(t, []int{2}, first.Indices())
	assert.Equal(t, []int{0}, second.Indices())
}

func TestPrepare_Empty(t *testing.T) {
	for _, typ := range ThresholdTypes {
		bp := Default(typ).Prepare(nil)
		assert.Zero(t, bp.Count())
		assert.False(t, bp.IsBreakpoint(0))
	}
}
