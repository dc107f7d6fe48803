package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	meanStroke    = drawing.Color{R: 34, G: 197, B: 94, A: 255}
	envelopeFill  = drawing.Color{R: 187, G: 240, B: 205, A: 255}
	canvasColor   = drawing.ColorWhite
	axisFontColor = drawing.Color{R: 100, G: 116, B: 139, A: 255}
)

// RenderPNG draws the forecast band as a static PNG. go-chart fills each
// series down to the axis, so the envelope is the upper bound filled and
// the lower bound filled with the canvas colour on top of it.
func RenderPNG(w io.Writer, b Band, title string) error {
	n := b.Len()
	if n == 0 {
		return fmt.Errorf("no hourly data to chart")
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	upper, lower, mean := b.Upper, b.Lower, b.Mean
	if n == 1 {
		// A continuous series needs two points; draw one flat hour-wide segment.
		xs = []float64{0, 1}
		upper = []float64{upper[0], upper[0]}
		lower = []float64{lower[0], lower[0]}
		mean = []float64{mean[0], mean[0]}
	}

	yMax := 0.0
	for _, v := range b.Upper {
		yMax = math.Max(yMax, v)
	}
	if yMax == 0 {
		yMax = 1
	}
	yMax = math.Ceil(yMax*11) / 10

	xMax := xs[len(xs)-1]
	ticks := pngTicks(b, xMax)

	graph := chart.Chart{
		Title: title,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: drawing.ColorBlack,
		},
		Width:  900,
		Height: 380,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   20,
				Right:  30,
				Bottom: 20,
			},
			FillColor: canvasColor,
		},
		Canvas: chart.Style{FillColor: canvasColor},
		XAxis: chart.XAxis{
			Style: chart.Style{FontSize: 9, FontColor: axisFontColor},
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:      "kWh",
			NameStyle: chart.Style{FontSize: 11},
			Style:     chart.Style{FontSize: 9, FontColor: axisFontColor},
			Range:     &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Confidence Upper Bound",
				Style:   chart.Style{StrokeColor: envelopeFill, FillColor: envelopeFill, StrokeWidth: 1},
				XValues: xs,
				YValues: upper,
			},
			chart.ContinuousSeries{
				Name:    "Confidence Lower Bound",
				Style:   chart.Style{StrokeColor: canvasColor, FillColor: canvasColor, StrokeWidth: 1},
				XValues: xs,
				YValues: lower,
			},
			chart.ContinuousSeries{
				Name:    meanSeriesName,
				Style:   chart.Style{StrokeColor: meanStroke, StrokeWidth: 3},
				XValues: xs,
				YValues: mean,
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render forecast PNG: %w", err)
	}
	return nil
}

// pngTicks labels at most MaxTicks hours. go-chart derives the x range from
// the ticks, so an unlabelled tick closes the axis at xMax.
func pngTicks(b Band, xMax float64) []chart.Tick {
	idx := TickIndices(b.Len(), MaxTicks)
	ticks := make([]chart.Tick, 0, len(idx)+1)
	for _, i := range idx {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: b.Labels[i]})
	}
	if len(ticks) == 0 || ticks[len(ticks)-1].Value < xMax {
		ticks = append(ticks, chart.Tick{Value: xMax})
	}
	return ticks
}
