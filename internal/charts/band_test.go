package charts

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHours(n int) []string {
	hours := make([]string, n)
	for i := range hours {
		hours[i] = fmt.Sprintf("2025-06-%02dT%02d:00", 1+i/24, i%24)
	}
	return hours
}

func TestBuildBandInvariants(t *testing.T) {
	preds := []float64{0, 0.05, 1.2, 3.4, 5.0, 2.2}
	conf := []float64{0.1, 0.2, 0.14, 0.4, 0.6, 3.0}
	co2 := []float64{0, 0.02, 0.57, 1.63, 2.4, 1.05}

	b := BuildBand(sampleHours(6), preds, conf, co2)
	require.Equal(t, 6, b.Len())

	for i := range preds {
		assert.LessOrEqual(t, b.Lower[i], b.Mean[i], "lower <= mean at %d", i)
		assert.LessOrEqual(t, b.Mean[i], b.Upper[i], "mean <= upper at %d", i)
		assert.GreaterOrEqual(t, b.Lower[i], 0.0, "lower >= 0 at %d", i)
		assert.Equal(t, preds[i], b.Mean[i])
		assert.InDelta(t, preds[i]+conf[i], b.Upper[i], 1e-12)
	}
	assert.Equal(t, 0.0, b.Lower[0], "clamped at zero")
	assert.InDelta(t, 1.06, b.Lower[2], 1e-12)
	assert.Equal(t, "03:00", b.Labels[3])
	assert.Equal(t, co2, b.CO2)
}

func TestBuildBandMissingEntries(t *testing.T) {
	b := BuildBand([]string{"2025-06-01T10:00"}, []float64{2, 3}, []float64{0.5}, nil)

	require.Equal(t, 2, b.Len())
	assert.Equal(t, 3.0, b.Upper[1])
	assert.Equal(t, 3.0, b.Lower[1])
	assert.Equal(t, []float64{0, 0}, b.CO2)
	assert.Equal(t, "", b.Labels[1])
}

func TestBuildBandNonFinite(t *testing.T) {
	b := BuildBand(sampleHours(2), []float64{math.NaN(), 1}, []float64{1, math.Inf(1)}, nil)

	assert.Equal(t, 0.0, b.Mean[0])
	assert.Equal(t, 1.0, b.Upper[0])
	assert.Equal(t, 1.0, b.Upper[1])
}

func TestTimeLabel(t *testing.T) {
	assert.Equal(t, "12:00", TimeLabel("2024-12-28T12:00:00"))
	assert.Equal(t, "07:00", TimeLabel("2024-12-28T07:00"))
	assert.Equal(t, "tomorrow", TimeLabel("tomorrow"))
}

func TestTooltip(t *testing.T) {
	b := BuildBand(sampleHours(3), []float64{1, 2.346, 0}, []float64{0.5, 0.3, 0}, []float64{0.48, 1.1256, 0})

	tip, ok := Tooltip(1, b)
	require.True(t, ok)
	assert.Equal(t, "01:00", tip.Label)
	assert.Equal(t, 2.346, tip.Predicted)
	assert.Equal(t, []string{
		"Predicted: 2.35 kWh",
		"Stability Range: 2.05 - 2.65 kWh",
		"CO₂ Offset: 1.126 kg",
	}, tip.Lines)

	_, ok = Tooltip(3, b)
	assert.False(t, ok)
	_, ok = Tooltip(-1, b)
	assert.False(t, ok)

	assert.Len(t, Tooltips(b), 3)
}

func TestTickIndices(t *testing.T) {
	tests := []struct {
		n        int
		want     []int
		interval int
	}{
		{0, nil, 0},
		{1, []int{0}, 0},
		{12, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, 0},
		{24, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22}, 1},
		{48, []int{0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40, 44}, 3},
		{30, []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 27}, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			got := TickIndices(tt.n, MaxTicks)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxTicks)
			assert.Equal(t, tt.interval, LabelInterval(tt.n, MaxTicks))
		})
	}
	assert.Equal(t, TickIndices(48, MaxTicks), TickIndices(48, 0), "non-positive max falls back to MaxTicks")
}
