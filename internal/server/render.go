package server

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"solarsight/internal/charts"
	"solarsight/internal/dashboard"
	"solarsight/internal/insights"
	"solarsight/internal/shell"
)

//go:embed templates/dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"money": insights.FormatMoney,
	"fixed": func(v float64, decimals int) string {
		return strconv.FormatFloat(v, 'f', decimals, 64)
	},
}).Parse(dashboardHTML))

type dashboardData struct {
	View        dashboard.View
	Loading     bool
	Chart       template.HTML
	LastSync    string
	RetryLabel  string
	ReloadLabel string
}

// renderDashboard renders the session view inside the page shell.
func (s *Server) renderDashboard(buf *bytes.Buffer, v dashboard.View, overlay *shell.Topic) error {
	data := dashboardData{
		View:        v,
		Loading:     v.State == dashboard.StateLoading,
		RetryLabel:  dashboard.RetryLabel,
		ReloadLabel: dashboard.ReloadLabel,
	}

	page := shell.Page{
		Title:   fmt.Sprintf("SolarSight | %s", v.Location.DisplayName),
		Overlay: overlay,
	}
	if data.Loading {
		page.RefreshSeconds = loadingRefreshSeconds
	}

	if v.HasData {
		snippet, err := charts.ForecastSnippet(v.Band)
		if err != nil {
			s.log.Warn("forecast chart unavailable", map[string]interface{}{
				"location": v.Location.ID,
				"error":    err.Error(),
			})
		} else {
			data.Chart = template.HTML(snippet.HTML)
			page.Head = template.HTML(charts.EChartsCDN)
		}
		data.LastSync = syncLabel(v.LastSync, v.Timezone)
	}

	var body bytes.Buffer
	if err := dashboardTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	page.Body = template.HTML(body.String())
	return shell.Render(buf, page)
}

// syncLabel formats the sync time as HH:MM in the series timezone, or UTC
// when the zone is unknown to the host.
func syncLabel(t time.Time, tz string) string {
	if t.IsZero() {
		return "--:--"
	}
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return t.In(loc).Format("15:04")
		}
	}
	return t.UTC().Format("15:04") + " UTC"
}
