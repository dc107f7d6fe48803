// Package insights derives the dashboard's illustrative metrics from a
// forecast window. Everything here is a pure function of its input.
package insights

import (
	"math"
	"strings"

	"solarsight/internal/models"
)

// Static multipliers
const (
	// DailyWindow is the number of leading hourly samples the metrics cover.
	DailyWindow = 24

	ResidentialBaselineKWh = 45.0  // high-end smart home daily demand
	CorporateBaselineKWh   = 450.0 // micro-factory or office daily demand

	DieselKWhPerLiter       = 2.5
	GeneratorKWhPerHour     = 5.0
	HomeHoursPerKWh         = 1.5
	PyranometerWm2PerKW     = 105.0
	DaysPerYear             = 365
	kWhPerMWh               = 1000.0
	maxDisplayedCoveragePct = 100.0
)

// Input is everything Compute needs. Only the first DailyWindow hours and
// predictions are read.
type Input struct {
	Hours          []string
	Predictions    []float64
	CurrencySymbol string
	TariffRate     float64
	CO2TotalKg     float64
	Advisory       models.Advisory
}

// Metrics holds the derived figures for one 24-hour cycle.
type Metrics struct {
	PeakValue     float64
	PeakHourIndex int
	PeakTime      string

	DailyTotalKWh float64
	TotalMWh      float64

	CurrencySymbol string
	TariffRate     float64
	DailySavings   float64
	AnnualSavings  float64

	// Raw ratios are uncapped; the Pct fields are clamped to [0,100].
	ResidentialCoverageRaw float64
	ResidentialCoveragePct float64
	Surplus                bool
	CorporateCoverageRaw   float64
	CorporateCoveragePct   float64
	AnnualCityYieldMWh     float64

	DieselAvoidanceLiters    float64
	GeneratorHoursEquivalent float64
	HomeHours                float64

	PeakKW         float64
	PeakMW         float64
	PyranometerWm2 float64
	CO2TotalKg     float64

	Advisory      models.Advisory
	DryingSummary string
	RiskTone      string
}

// FromSeries assembles an Input from a fetched series and its catalog entry.
func FromSeries(s *models.PredictionSeries, loc models.Location) Input {
	return Input{
		Hours:          s.Hours,
		Predictions:    s.PredKWh,
		CurrencySymbol: loc.CurrencySymbol,
		TariffRate:     loc.TariffRate,
		CO2TotalKg:     s.CO2KgTotal,
		Advisory:       s.Advisory(),
	}
}

// Compute derives the metrics for the first DailyWindow samples of in.
func Compute(in Input) Metrics {
	window := in.Predictions
	if len(window) > DailyWindow {
		window = window[:DailyWindow]
	}

	m := Metrics{
		PeakHourIndex:  -1,
		PeakTime:       "N/A",
		CurrencySymbol: in.CurrencySymbol,
		TariffRate:     in.TariffRate,
		CO2TotalKg:     finite(in.CO2TotalKg),
		Advisory:       in.Advisory,
		DryingSummary:  DryingSummary(in.Advisory.DryingWindows),
		RiskTone:       RiskTone(in.Advisory.UVRiskLevel),
	}

	for i, raw := range window {
		v := finite(raw)
		m.DailyTotalKWh += v
		if m.PeakHourIndex == -1 || v > m.PeakValue {
			m.PeakValue = v
			m.PeakHourIndex = i
		}
	}
	if m.PeakHourIndex >= 0 && m.PeakHourIndex < len(in.Hours) {
		m.PeakTime = HourLabel(in.Hours[m.PeakHourIndex])
	}

	m.TotalMWh = m.DailyTotalKWh / kWhPerMWh
	m.DailySavings = m.DailyTotalKWh * finite(in.TariffRate)
	m.AnnualSavings = m.DailySavings * DaysPerYear

	m.ResidentialCoverageRaw = m.DailyTotalKWh / ResidentialBaselineKWh * 100
	m.ResidentialCoveragePct = ClampPct(m.ResidentialCoverageRaw)
	m.Surplus = m.ResidentialCoverageRaw > maxDisplayedCoveragePct
	m.CorporateCoverageRaw = m.DailyTotalKWh / CorporateBaselineKWh * 100
	m.CorporateCoveragePct = ClampPct(m.CorporateCoverageRaw)
	m.AnnualCityYieldMWh = m.TotalMWh * DaysPerYear

	m.DieselAvoidanceLiters = m.DailyTotalKWh / DieselKWhPerLiter
	m.GeneratorHoursEquivalent = m.DailyTotalKWh / GeneratorKWhPerHour
	m.HomeHours = m.DailyTotalKWh * HomeHoursPerKWh

	m.PeakKW = m.PeakValue
	m.PeakMW = m.PeakValue / kWhPerMWh
	m.PyranometerWm2 = m.PeakValue * PyranometerWm2PerKW
	return m
}

// ClampPct bounds a percentage to [0,100]. NaN maps to 0.
func ClampPct(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > maxDisplayedCoveragePct:
		return maxDisplayedCoveragePct
	default:
		return v
	}
}

// HourLabel reduces an ISO timestamp to HH:MM. Strings without a T are returned unchanged.
func HourLabel(ts string) string {
	_, clock, ok := strings.Cut(ts, "T")
	if !ok {
		return ts
	}
	if len(clock) > 5 {
		clock = clock[:5]
	}
	return clock
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
