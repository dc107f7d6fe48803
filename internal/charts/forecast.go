package charts

import (
	"encoding/json"
	"fmt"
)

const (
	forecastChartID = "chart-forecast"
	meanSeriesName  = "Solar Forecast (Mean)"
	meanColor       = "#22c55e"
)

// ForecastSnippet builds the interactive mean-plus-envelope chart. The
// envelope is a stacked pair (lower, upper-lower) so only the gap is
// filled. Only the mean series reacts to hover.
func ForecastSnippet(b Band) (ChartSnippet, error) {
	width := make([]float64, b.Len())
	for i := range width {
		width[i] = b.Upper[i] - b.Lower[i]
	}

	envelopeSeries := func(name string, data []float64, area interface{}) map[string]interface{} {
		s := map[string]interface{}{
			"name":      name,
			"type":      "line",
			"stack":     "confidence",
			"smooth":    true,
			"symbol":    "none",
			"silent":    true,
			"tooltip":   map[string]interface{}{"show": false},
			"lineStyle": map[string]interface{}{"opacity": 0},
			"emphasis":  map[string]interface{}{"disabled": true},
			"data":      data,
			"z":         1,
		}
		if area != nil {
			s["areaStyle"] = area
		}
		return s
	}

	option := map[string]interface{}{
		"tooltip": map[string]interface{}{
			"trigger":         "axis",
			"backgroundColor": "#0f172a",
			"borderColor":     "rgba(255,255,255,0.1)",
			"padding":         16,
			"textStyle":       map[string]interface{}{"color": "#e2e8f0", "fontSize": 12},
		},
		"grid": map[string]interface{}{"left": "3%", "right": "3%", "bottom": "8%", "containLabel": true},
		"xAxis": map[string]interface{}{
			"type":        "category",
			"boundaryGap": false,
			"data":        b.Labels,
			"axisLabel":   map[string]interface{}{"color": "#64748b", "interval": LabelInterval(b.Len(), MaxTicks)},
			"splitLine":   map[string]interface{}{"show": false},
		},
		"yAxis": map[string]interface{}{
			"type":      "value",
			"name":      "kWh",
			"min":       0,
			"axisLabel": map[string]interface{}{"color": "#64748b"},
			"splitLine": map[string]interface{}{"lineStyle": map[string]interface{}{"color": "rgba(255,255,255,0.03)"}},
		},
		"series": []interface{}{
			envelopeSeries("Confidence Lower Bound", b.Lower, nil),
			envelopeSeries("Confidence Band", width, map[string]interface{}{"color": "rgba(34,197,94,0.15)"}),
			map[string]interface{}{
				"name":       meanSeriesName,
				"type":       "line",
				"smooth":     true,
				"showSymbol": false,
				"symbolSize": 6,
				"lineStyle":  map[string]interface{}{"width": 3, "color": meanColor},
				"itemStyle":  map[string]interface{}{"color": meanColor},
				"areaStyle": map[string]interface{}{
					"color": map[string]interface{}{
						"type": "linear", "x": 0, "y": 0, "x2": 0, "y2": 1,
						"colorStops": []interface{}{
							map[string]interface{}{"offset": 0, "color": "rgba(34,197,94,0.4)"},
							map[string]interface{}{"offset": 1, "color": "rgba(34,197,94,0)"},
						},
					},
				},
				"data": b.Mean,
				"z":    10,
			},
		},
		"legend": map[string]interface{}{"show": false},
	}

	optJSON, err := json.Marshal(option)
	if err != nil {
		return ChartSnippet{}, fmt.Errorf("failed to marshal forecast chart option: %w", err)
	}
	tipsJSON, err := json.Marshal(Tooltips(b))
	if err != nil {
		return ChartSnippet{}, fmt.Errorf("failed to marshal forecast tooltips: %w", err)
	}

	title := fmt.Sprintf("%dh Generation Forecast", b.Len())
	div := fmt.Sprintf("<div id=\"%s\" style=\"width:100%%;height:420px;\"></div>", forecastChartID)
	script := fmt.Sprintf(`<script>(function(){var el=document.getElementById('%s');if(!el)return;var c=echarts.init(el);var option=%s;var tips=%s;`+
		`option.tooltip.formatter=function(ps){var p=(ps||[]).filter(function(x){return x.seriesName===%q;})[0];if(!p)return '';var t=tips[p.dataIndex];if(!t)return '';return '<b>'+t.title+'</b><br/>'+t.lines.join('<br/>');};`+
		`c.setOption(option);window.addEventListener('resize',function(){c.resize();});})();</script>`,
		forecastChartID, string(optJSON), string(tipsJSON), meanSeriesName)

	completeHTML := fmt.Sprintf(`<div class="chart-container">
	<h3>%s</h3>
	%s
</div>
%s`, title, div, script)

	return ChartSnippet{ID: forecastChartID, Title: title, Div: div, Script: script, HTML: completeHTML}, nil
}
