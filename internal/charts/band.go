package charts

import (
	"fmt"
	"html"
	"math"

	"solarsight/internal/insights"
)

// MaxTicks caps the number of x-axis labels on every forecast chart.
const MaxTicks = 12

// Band is the plotted form of a forecast: the mean line and its
// confidence envelope, one entry per hour.
type Band struct {
	Labels []string
	Mean   []float64
	Upper  []float64
	Lower  []float64
	CO2    []float64
}

// Len returns the number of hours in the band.
func (b Band) Len() int {
	return len(b.Mean)
}

// TooltipPayload is what the chart shows when hovering one hour.
type TooltipPayload struct {
	Label     string   `json:"title"`
	Predicted float64  `json:"predicted"`
	Lower     float64  `json:"lower"`
	Upper     float64  `json:"upper"`
	CO2Kg     float64  `json:"co2"`
	Lines     []string `json:"lines"`
}

// BuildBand derives upper = p+c and lower = max(0, p-c) for every prediction.
// Missing confidence or CO2 entries count as zero.
func BuildBand(hours []string, predictions, confidence, co2 []float64) Band {
	n := len(predictions)
	b := Band{
		Labels: make([]string, n),
		Mean:   make([]float64, n),
		Upper:  make([]float64, n),
		Lower:  make([]float64, n),
		CO2:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p := finite(predictions[i])
		c := math.Abs(at(confidence, i))
		b.Mean[i] = p
		b.Upper[i] = p + c
		b.Lower[i] = math.Max(0, p-c)
		b.CO2[i] = at(co2, i)
		if i < len(hours) {
			b.Labels[i] = TimeLabel(hours[i])
		}
	}
	return b
}

// TimeLabel formats an ISO hour as HH:MM.
func TimeLabel(ts string) string {
	return insights.HourLabel(ts)
}

// Tooltip returns the hover content for index i of the band. The label is
// HTML-escaped because the chart formatter inserts it as markup.
func Tooltip(i int, b Band) (TooltipPayload, bool) {
	if i < 0 || i >= b.Len() {
		return TooltipPayload{}, false
	}
	t := TooltipPayload{
		Label:     html.EscapeString(b.Labels[i]),
		Predicted: b.Mean[i],
		Lower:     b.Lower[i],
		Upper:     b.Upper[i],
		CO2Kg:     b.CO2[i],
	}
	t.Lines = []string{
		fmt.Sprintf("Predicted: %.2f kWh", t.Predicted),
		fmt.Sprintf("Stability Range: %.2f - %.2f kWh", t.Lower, t.Upper),
		fmt.Sprintf("CO₂ Offset: %.3f kg", t.CO2Kg),
	}
	return t, true
}

// Tooltips returns the payload for every hour of the band.
func Tooltips(b Band) []TooltipPayload {
	out := make([]TooltipPayload, b.Len())
	for i := range out {
		out[i], _ = Tooltip(i, b)
	}
	return out
}

// LabelInterval is the number of labels skipped between shown ones so that
// at most max labels appear for n points.
func LabelInterval(n, max int) int {
	if max <= 0 {
		max = MaxTicks
	}
	if n <= max {
		return 0
	}
	return (n+max-1)/max - 1
}

// TickIndices lists the point indices that get an x-axis label.
func TickIndices(n, max int) []int {
	if n <= 0 {
		return nil
	}
	step := LabelInterval(n, max) + 1
	idx := make([]int, 0, (n+step-1)/step)
	for i := 0; i < n; i += step {
		idx = append(idx, i)
	}
	return idx
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return finite(s[i])
	}
	return 0
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
