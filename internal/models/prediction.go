package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// PredictionSeries is the payload served by GET /api/predictions/{location}.
// The four hourly arrays are parallel and share one length.
type PredictionSeries struct {
	Location     string    `json:"location"`
	GeneratedAt  string    `json:"generated_at_utc"`
	Timezone     string    `json:"timezone"`
	TimezoneAbbr string    `json:"timezone_abbr"`
	Hours        []string  `json:"hours"`
	PredKWh      []float64 `json:"pred_kwh"`
	Confidence   []float64 `json:"confidence"`
	CO2KgPerHour []float64 `json:"co2_kg_per_hour"`
	CO2KgTotal   float64   `json:"co2_kg_total"`

	// Health and agricultural advisory, absent on older backends
	UVIndex              []float64 `json:"uv_index,omitempty"`
	PeakUV               *float64  `json:"peak_uv,omitempty"`
	PeakUVHour           *int      `json:"peak_uv_hour,omitempty"`
	UVRiskLevel          *string   `json:"uv_risk_level,omitempty"`
	SafeSunExposureMins  *int      `json:"safe_sun_exposure_mins,omitempty"`
	AgriDryingWindows    []int     `json:"agri_drying_windows,omitempty"`
	AgriIrrigationAdvice *string   `json:"agri_irrigation_advice,omitempty"`
}

// Advisory holds the advisory fields with defaults applied.
type Advisory struct {
	PeakUV              float64
	PeakUVHour          int
	UVRiskLevel         string
	SafeSunExposureMins int
	DryingWindows       []int
	IrrigationAdvice    string
}

// Defaults used when the backend omits an advisory field
const (
	DefaultPeakUVHour          = 12
	DefaultUVRiskLevel         = "Moderate"
	DefaultSafeSunExposureMins = 30
	DefaultIrrigationAdvice    = "Morning"
)

// generatedAtLayouts covers RFC3339 and the backend's naive ISO form with a Z suffix.
var generatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// GeneratedTime parses generated_at_utc. Values without an offset are taken as UTC.
func (p *PredictionSeries) GeneratedTime() (time.Time, error) {
	raw := strings.TrimSpace(p.GeneratedAt)
	if raw == "" {
		return time.Time{}, errors.New("generated_at_utc is empty")
	}
	for _, layout := range generatedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised generated_at_utc %q", raw)
}

// Validate checks the parallel-array and non-negativity invariants.
func (p *PredictionSeries) Validate() error {
	n := len(p.Hours)
	if len(p.PredKWh) != n || len(p.Confidence) != n || len(p.CO2KgPerHour) != n {
		return fmt.Errorf("array length mismatch: hours=%d pred_kwh=%d confidence=%d co2_kg_per_hour=%d",
			n, len(p.PredKWh), len(p.Confidence), len(p.CO2KgPerHour))
	}
	for name, values := range map[string][]float64{
		"pred_kwh":        p.PredKWh,
		"confidence":      p.Confidence,
		"co2_kg_per_hour": p.CO2KgPerHour,
	} {
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%s[%d] = %v: must be finite and non-negative", name, i, v)
			}
		}
	}
	return nil
}

// Len returns the number of hourly samples.
func (p *PredictionSeries) Len() int {
	return len(p.Hours)
}

// Clone returns a deep copy.
func (p *PredictionSeries) Clone() *PredictionSeries {
	if p == nil {
		return nil
	}
	c := *p
	c.Hours = cloneSlice(p.Hours)
	c.PredKWh = cloneSlice(p.PredKWh)
	c.Confidence = cloneSlice(p.Confidence)
	c.CO2KgPerHour = cloneSlice(p.CO2KgPerHour)
	c.UVIndex = cloneSlice(p.UVIndex)
	c.AgriDryingWindows = cloneSlice(p.AgriDryingWindows)
	c.PeakUV = clonePtr(p.PeakUV)
	c.PeakUVHour = clonePtr(p.PeakUVHour)
	c.UVRiskLevel = clonePtr(p.UVRiskLevel)
	c.SafeSunExposureMins = clonePtr(p.SafeSunExposureMins)
	c.AgriIrrigationAdvice = clonePtr(p.AgriIrrigationAdvice)
	return &c
}

// Window returns a copy holding at most the first n samples of every hourly array.
// Arrays shorter than n are kept whole.
func (p *PredictionSeries) Window(n int) *PredictionSeries {
	c := p.Clone()
	if c == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	c.Hours = prefix(c.Hours, n)
	c.PredKWh = prefix(c.PredKWh, n)
	c.Confidence = prefix(c.Confidence, n)
	c.CO2KgPerHour = prefix(c.CO2KgPerHour, n)
	return c
}

// Advisory resolves the optional advisory fields.
func (p *PredictionSeries) Advisory() Advisory {
	a := Advisory{
		PeakUVHour:          DefaultPeakUVHour,
		UVRiskLevel:         DefaultUVRiskLevel,
		SafeSunExposureMins: DefaultSafeSunExposureMins,
		DryingWindows:       []int{},
		IrrigationAdvice:    DefaultIrrigationAdvice,
	}
	if p.PeakUV != nil {
		a.PeakUV = *p.PeakUV
	}
	if p.PeakUVHour != nil {
		a.PeakUVHour = *p.PeakUVHour
	}
	if p.UVRiskLevel != nil {
		a.UVRiskLevel = *p.UVRiskLevel
	}
	if p.SafeSunExposureMins != nil {
		a.SafeSunExposureMins = *p.SafeSunExposureMins
	}
	if p.AgriDryingWindows != nil {
		a.DryingWindows = cloneSlice(p.AgriDryingWindows)
	}
	if p.AgriIrrigationAdvice != nil {
		a.IrrigationAdvice = *p.AgriIrrigationAdvice
	}
	return a
}

func prefix[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n:n]
	}
	return s
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
