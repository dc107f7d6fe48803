// Command chart-preview renders the forecast charts for a synthetic series
// so they can be inspected without running the dashboard.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solarsight/internal/catalog"
	"solarsight/internal/charts"
	"solarsight/internal/logger"
	"solarsight/internal/mocks"
)

const previewPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title>%s</head>
<body>%s</body></html>
`

func main() {
	location := flag.String("location", "lagos", "catalog location id")
	hours := flag.Int("hours", 24, "forecast horizon (24 or 48)")
	outDir := flag.String("out", "chart_preview_output", "output directory")
	flag.Parse()

	log := logger.Component("chart-preview")

	loc, err := catalog.Default().Lookup(*location)
	if err != nil {
		log.Fatal("invalid location", err, map[string]interface{}{"location": *location})
	}
	if *hours != 24 && *hours != 48 {
		log.Fatal("invalid horizon", fmt.Errorf("hours must be 24 or 48, got %d", *hours))
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal("failed to create output directory", err)
	}

	series := mocks.Synthetic(loc.ID, time.Now()).Window(*hours)
	band := charts.BuildBand(series.Hours, series.PredKWh, series.Confidence, series.CO2KgPerHour)
	title := fmt.Sprintf("%s | %dh Generation Forecast", loc.DisplayName, *hours)

	log.Info("rendering charts", map[string]interface{}{
		"location": loc.ID,
		"hours":    band.Len(),
		"out":      *outDir,
	})

	var files []string

	var png bytes.Buffer
	if err := charts.RenderPNG(&png, band, title); err != nil {
		log.Fatal("png render failed", err)
	}
	files = append(files, write(log, *outDir, "forecast.png", png.Bytes()))

	snippet, err := charts.ForecastSnippet(band)
	if err != nil {
		log.Fatal("snippet render failed", err)
	}
	page := fmt.Sprintf(previewPage, title, charts.EChartsCDN, snippet.HTML)
	files = append(files, write(log, *outDir, "forecast.html", []byte(page)))

	var co2 bytes.Buffer
	if err := charts.RenderCO2Page(&co2, band, loc.DisplayName+" | Hourly CO₂ Offset"); err != nil {
		log.Fatal("co2 page render failed", err)
	}
	files = append(files, write(log, *outDir, "co2.html", co2.Bytes()))

	for _, f := range files {
		fmt.Println(f)
	}
}

func write(log *logger.Logger, dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatal("failed to write file", err, map[string]interface{}{"path": path})
	}
	return path
}
