package server

import (
	"time"

	"solarsight/internal/charts"
	"solarsight/internal/dashboard"
	"solarsight/internal/insights"
	"solarsight/internal/models"
)

type viewResponse struct {
	State      dashboard.State   `json:"state"`
	Seq        uint64            `json:"seq"`
	Location   models.Location   `json:"location"`
	Locations  []models.Location `json:"locations"`
	Horizon    int               `json:"horizon"`
	Horizons   []int             `json:"horizons"`
	Failure    *failureResponse  `json:"failure,omitempty"`
	Forecast   *forecastResponse `json:"forecast,omitempty"`
	Timezone   string            `json:"timezone,omitempty"`
	LastSyncAt string            `json:"last_sync_utc,omitempty"`
}

type failureResponse struct {
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Body       string `json:"body"`
	Diagnostic string `json:"diagnostic"`
	RawError   string `json:"raw_error,omitempty"`
	CanRetry   bool   `json:"can_retry"`
	CanReload  bool   `json:"can_reload"`
}

type forecastResponse struct {
	Labels   []string                `json:"labels"`
	Mean     []float64               `json:"mean"`
	Upper    []float64               `json:"upper"`
	Lower    []float64               `json:"lower"`
	CO2      []float64               `json:"co2"`
	Tooltips []charts.TooltipPayload `json:"tooltips"`
	Metrics  metricsResponse         `json:"metrics"`
}

type metricsResponse struct {
	PeakValue              float64 `json:"peak_value"`
	PeakHourIndex          int     `json:"peak_hour_index"`
	PeakTime               string  `json:"peak_time"`
	DailyTotalKWh          float64 `json:"daily_total_kwh"`
	TotalMWh               float64 `json:"total_mwh"`
	DailySavings           float64 `json:"daily_savings"`
	AnnualSavings          float64 `json:"annual_savings"`
	ResidentialCoveragePct float64 `json:"residential_coverage_pct"`
	CorporateCoveragePct   float64 `json:"corporate_coverage_pct"`
	Surplus                bool    `json:"surplus"`
	AnnualCityYieldMWh     float64 `json:"annual_city_yield_mwh"`
	DieselAvoidanceLiters  float64 `json:"diesel_avoidance_liters"`
	GeneratorHours         float64 `json:"generator_hours_equivalent"`
	HomeHours              float64 `json:"home_hours"`
	PeakKW                 float64 `json:"peak_kw"`
	PeakMW                 float64 `json:"peak_mw"`
	PyranometerWm2         float64 `json:"pyranometer_wm2"`
	CO2TotalKg             float64 `json:"co2_total_kg"`
	PeakUV                 float64 `json:"peak_uv"`
	PeakUVHour             int     `json:"peak_uv_hour"`
	UVRiskLevel            string  `json:"uv_risk_level"`
	SafeSunExposureMins    int     `json:"safe_sun_exposure_mins"`
	DryingSummary          string  `json:"drying_summary"`
	IrrigationAdvice       string  `json:"irrigation_advice"`
}

func newViewResponse(v dashboard.View) viewResponse {
	resp := viewResponse{
		State:     v.State,
		Seq:       v.Seq,
		Location:  v.Location,
		Locations: v.Locations,
		Horizon:   v.Horizon,
		Horizons:  v.Horizons,
	}
	if f := v.Failure; f != nil {
		resp.Failure = &failureResponse{
			Kind:       f.Kind.String(),
			Title:      f.Title,
			Message:    f.Message,
			Body:       f.Body,
			Diagnostic: f.Diagnostic,
			RawError:   f.RawError,
			CanRetry:   f.CanRetry,
			CanReload:  f.CanReload,
		}
	}
	if !v.HasData {
		return resp
	}

	resp.Timezone = v.Timezone
	if !v.LastSync.IsZero() {
		resp.LastSyncAt = v.LastSync.UTC().Format(time.RFC3339)
	}
	resp.Forecast = &forecastResponse{
		Labels:   v.Band.Labels,
		Mean:     v.Band.Mean,
		Upper:    v.Band.Upper,
		Lower:    v.Band.Lower,
		CO2:      v.Band.CO2,
		Tooltips: charts.Tooltips(v.Band),
		Metrics:  newMetricsResponse(v.Metrics),
	}
	return resp
}

func newMetricsResponse(m insights.Metrics) metricsResponse {
	return metricsResponse{
		PeakValue:              m.PeakValue,
		PeakHourIndex:          m.PeakHourIndex,
		PeakTime:               m.PeakTime,
		DailyTotalKWh:          m.DailyTotalKWh,
		TotalMWh:               m.TotalMWh,
		DailySavings:           m.DailySavings,
		AnnualSavings:          m.AnnualSavings,
		ResidentialCoveragePct: m.ResidentialCoveragePct,
		CorporateCoveragePct:   m.CorporateCoveragePct,
		Surplus:                m.Surplus,
		AnnualCityYieldMWh:     m.AnnualCityYieldMWh,
		DieselAvoidanceLiters:  m.DieselAvoidanceLiters,
		GeneratorHours:         m.GeneratorHoursEquivalent,
		HomeHours:              m.HomeHours,
		PeakKW:                 m.PeakKW,
		PeakMW:                 m.PeakMW,
		PyranometerWm2:         m.PyranometerWm2,
		CO2TotalKg:             m.CO2TotalKg,
		PeakUV:                 m.Advisory.PeakUV,
		PeakUVHour:             m.Advisory.PeakUVHour,
		UVRiskLevel:            m.Advisory.UVRiskLevel,
		SafeSunExposureMins:    m.Advisory.SafeSunExposureMins,
		DryingSummary:          m.DryingSummary,
		IrrigationAdvice:       m.Advisory.IrrigationAdvice,
	}
}
