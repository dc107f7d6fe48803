package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// RenderCO2Page writes a standalone go-echarts page with one bar per hour
// of avoided CO2.
func RenderCO2Page(w io.Writer, b Band, title string) error {
	if b.Len() == 0 {
		return fmt.Errorf("no hourly data to chart")
	}

	var total float64
	data := make([]opts.BarData, b.Len())
	for i, v := range b.CO2 {
		total += v
		data[i] = opts.BarData{Value: math.Round(v*1000) / 1000}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     types.ThemeWesteros,
			Width:     "100%",
			Height:    "360px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%.2f kg avoided over %d hours", total, b.Len()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    true,
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Hour",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "kg CO₂",
		}),
	)

	bar.SetXAxis(b.Labels).
		AddSeries("CO₂ Offset", data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#10b981"}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render CO2 chart: %w", err)
	}
	return nil
}
