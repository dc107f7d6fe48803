package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"solarsight/internal/models"
)

// SyntheticHours is the length of generated series.
const SyntheticHours = 48

// MockService serves prediction series without a backend. Fixture files
// named <location>.json in the mocks directory take precedence over the
// synthetic generator.
type MockService struct {
	mocksDir string
	now      func() time.Time

	mu          sync.Mutex
	failures    map[string]error
	fetches     map[string]int
	impressions int
}

// NewMockService creates a new mock service. An empty dir disables fixtures.
func NewMockService(mocksDir string) *MockService {
	return &MockService{
		mocksDir: mocksDir,
		now:      time.Now,
		failures: make(map[string]error),
		fetches:  make(map[string]int),
	}
}

// SetClock overrides the time used to anchor synthetic series.
func (m *MockService) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetFailure makes every fetch for locationID return err until cleared with a nil err.
func (m *MockService) SetFailure(locationID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, locationID)
		return
	}
	m.failures[locationID] = err
}

// FetchPredictions returns a fixture or synthetic series for locationID
func (m *MockService) FetchPredictions(ctx context.Context, locationID string) (*models.PredictionSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.fetches[locationID]++
	failure := m.failures[locationID]
	now := m.now
	m.mu.Unlock()

	if failure != nil {
		return nil, failure
	}

	series, err := m.loadFixture(locationID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		series = Synthetic(locationID, now())
	}
	return series, nil
}

// RecordImpression counts the analytics hit.
func (m *MockService) RecordImpression(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.impressions++
}

// Impressions returns the number of analytics hits recorded.
func (m *MockService) Impressions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.impressions
}

// Fetches returns how many times locationID was fetched.
func (m *MockService) Fetches(locationID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[locationID]
}

// TotalFetches returns the number of fetches across all locations.
func (m *MockService) TotalFetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.fetches {
		total += n
	}
	return total
}

// loadFixture returns nil, nil when no fixture exists for the location.
func (m *MockService) loadFixture(locationID string) (*models.PredictionSeries, error) {
	if m.mocksDir == "" || strings.ContainsAny(locationID, `/\`) {
		return nil, nil
	}
	filePath := filepath.Join(m.mocksDir, locationID+".json")
	content, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mock predictions: %w", err)
	}

	var series models.PredictionSeries
	if err := json.Unmarshal(content, &series); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mock predictions %s: %w", filePath, err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mock predictions %s: %w", filePath, err)
	}
	return &series, nil
}

// Synthetic builds a deterministic 48-hour series starting at the hour after now.
// Output is zero outside 06:00-18:00 and follows a half-sine in between,
// scaled per location and damped by a pseudo cloud pattern.
func Synthetic(locationID string, now time.Time) *models.PredictionSeries {
	start := now.UTC().Truncate(time.Hour).Add(time.Hour)
	seed := locationSeed(locationID)
	peakKW := 4.0 + float64(seed%500)/100.0 // 4.00 - 8.99

	s := &models.PredictionSeries{
		Location:     locationID,
		GeneratedAt:  now.UTC().Format("2006-01-02T15:04:05") + "Z",
		Timezone:     "UTC",
		TimezoneAbbr: "UTC",
		Hours:        make([]string, SyntheticHours),
		PredKWh:      make([]float64, SyntheticHours),
		Confidence:   make([]float64, SyntheticHours),
		CO2KgPerHour: make([]float64, SyntheticHours),
	}

	uv := make([]float64, 0, 24)
	var drying []int
	for i := 0; i < SyntheticHours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		s.Hours[i] = ts.Format("2006-01-02T15:04")

		hour := float64(ts.Hour())
		var kwh float64
		if hour > 6 && hour < 18 {
			cloud := 0.15 * float64((seed>>uint(i%16))&3) // 0, .15, .30, .45
			kwh = peakKW * math.Sin(math.Pi*(hour-6)/12) * (1 - cloud)
			if i < 24 && cloud < 0.3 && hour >= 10 && hour <= 15 {
				drying = append(drying, ts.Hour())
			}
		}
		kwh = round3(kwh)
		s.PredKWh[i] = kwh
		s.Confidence[i] = round3(kwh * 0.12)
		s.CO2KgPerHour[i] = CO2AvoidedKg(kwh, locationID)
		if i < 24 {
			s.CO2KgTotal += s.CO2KgPerHour[i]
			uv = append(uv, round3(kwh*1.2))
		}
	}

	peakUV, peakHour := 0.0, models.DefaultPeakUVHour
	for i, v := range uv {
		if v > peakUV {
			peakUV, peakHour = v, start.Add(time.Duration(i)*time.Hour).Hour()
		}
	}
	risk, safe := uvRisk(peakUV)
	advice := "Morning (06:00-09:00)"
	if peakUV > 6 {
		advice = "Evening (after 17:00)"
	}

	s.UVIndex = uv
	s.PeakUV = &peakUV
	s.PeakUVHour = &peakHour
	s.UVRiskLevel = &risk
	s.SafeSunExposureMins = &safe
	s.AgriDryingWindows = append([]int{}, drying...)
	s.AgriIrrigationAdvice = &advice
	return s
}

// uvRisk follows the WHO UV index bands.
func uvRisk(peak float64) (string, int) {
	switch {
	case peak >= 11:
		return "Extreme", 10
	case peak >= 8:
		return "Very High", 15
	case peak >= 6:
		return "High", 25
	case peak >= 3:
		return "Moderate", 45
	default:
		return "Low", 60
	}
}

func locationSeed(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(id)))
	return h.Sum32()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
