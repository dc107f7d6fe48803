package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarsight/internal/catalog"
	"solarsight/internal/fetchers"
	"solarsight/internal/mocks"
	"solarsight/internal/models"
)

var fixedNow = time.Date(2025, 6, 1, 4, 30, 0, 0, time.UTC)

func newMock() *mocks.MockService {
	m := mocks.NewMockService("")
	m.SetClock(func() time.Time { return fixedNow })
	return m
}

func newController(t *testing.T, src Source, mutate ...func(*Options)) *Controller {
	t.Helper()
	opts := Options{Source: src, Catalog: catalog.Default(), RefreshInterval: time.Hour}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := NewController(opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// gatedSource parks every fetch until the test replies to it.
type gatedSource struct {
	pending chan *gatedCall
}

type gatedCall struct {
	location string
	reply    chan gatedResult
}

type gatedResult struct {
	series *models.PredictionSeries
	err    error
}

func newGatedSource() *gatedSource {
	return &gatedSource{pending: make(chan *gatedCall, 8)}
}

func (g *gatedSource) FetchPredictions(ctx context.Context, id string) (*models.PredictionSeries, error) {
	call := &gatedCall{location: id, reply: make(chan gatedResult, 1)}
	g.pending <- call
	select {
	case r := <-call.reply:
		return r.series, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSource) RecordImpression(ctx context.Context) {}

func (g *gatedSource) next(t *testing.T) *gatedCall {
	t.Helper()
	select {
	case c := <-g.pending:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fetch")
		return nil
	}
}

func seriesWithTotal(location string, perHour float64, n int) *models.PredictionSeries {
	s := &models.PredictionSeries{Location: location, Timezone: "UTC", TimezoneAbbr: "UTC"}
	for i := 0; i < n; i++ {
		s.Hours = append(s.Hours, fixedNow.Add(time.Duration(i)*time.Hour).Format("2006-01-02T15:04"))
		s.PredKWh = append(s.PredKWh, perHour)
		s.Confidence = append(s.Confidence, perHour/10)
		s.CO2KgPerHour = append(s.CO2KgPerHour, perHour*0.48)
	}
	return s
}

func TestNewControllerValidation(t *testing.T) {
	_, err := NewController(Options{})
	assert.Error(t, err)

	_, err = NewController(Options{Source: newMock(), Horizon: 36})
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = NewController(Options{Source: newMock(), LocationID: "atlantis"})
	assert.ErrorIs(t, err, catalog.ErrUnknownLocation)

	c := newController(t, newMock())
	v := c.View()
	assert.Equal(t, StateLoading, v.State)
	assert.Equal(t, "lagos", v.Location.ID)
	assert.Equal(t, Horizon24, v.Horizon)
	assert.Len(t, v.Locations, 10)
	assert.False(t, v.HasData)
}

func TestMountFetchesAndFiresBeacon(t *testing.T) {
	src := newMock()
	c := newController(t, src)

	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.Mount(context.Background()), "second mount is a no-op")

	v := c.View()
	assert.Equal(t, StateReady, v.State)
	assert.True(t, v.HasData)
	assert.Nil(t, v.Failure)
	assert.Equal(t, 1, c.Fetches())
	assert.Equal(t, uint64(1), c.Seq())
	assert.Equal(t, 24, v.Band.Len())
	assert.True(t, fixedNow.Equal(v.LastSync), "last sync comes from generated_at_utc, got %s", v.LastSync)
	assert.Eventually(t, func() bool { return src.Impressions() == 1 }, time.Second, 5*time.Millisecond)
}

// stuckBeacon never returns from RecordImpression until released.
type stuckBeacon struct {
	*mocks.MockService
	release chan struct{}
}

func (s *stuckBeacon) RecordImpression(ctx context.Context) {
	<-s.release
}

func TestBeaconNeverBlocksOrAffectsState(t *testing.T) {
	src := &stuckBeacon{MockService: newMock(), release: make(chan struct{})}
	defer close(src.release)
	c := newController(t, src)

	require.NoError(t, c.Mount(context.Background()))
	assert.Equal(t, StateReady, c.View().State)
	assert.Nil(t, c.View().Failure)
}

func TestHorizonToggleNeverFetches(t *testing.T) {
	src := newMock()
	c := newController(t, src)
	require.NoError(t, c.Mount(context.Background()))
	require.Equal(t, 1, src.TotalFetches())

	require.NoError(t, c.SetHorizon(48))
	v := c.View()
	assert.Equal(t, 48, v.Horizon)
	assert.Equal(t, 48, v.Band.Len())
	assert.Equal(t, 1, src.TotalFetches())
	assert.Equal(t, 1, c.Fetches())

	require.NoError(t, c.SetHorizon(24))
	assert.Equal(t, 24, c.View().Band.Len())

	err := c.SetHorizon(36)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
	assert.Equal(t, 24, c.View().Horizon)
	assert.Equal(t, 1, src.TotalFetches())
}

func TestHorizonShorterSeries(t *testing.T) {
	g := newGatedSource()
	c := newController(t, g, func(o *Options) { o.Horizon = 48 })

	done := make(chan struct{})
	go func() { c.Refresh(context.Background()); close(done) }()
	g.next(t).reply <- gatedResult{series: seriesWithTotal("lagos", 1, 30)}
	<-done

	v := c.View()
	assert.Equal(t, 30, v.Band.Len())
	// Metrics always cover the first 24 hours
	assert.Equal(t, 24.0, v.Metrics.DailyTotalKWh)
}

func TestMetricsInView(t *testing.T) {
	src := newMock()
	c := newController(t, src, func(o *Options) { o.LocationID = "london" })
	require.NoError(t, c.Mount(context.Background()))

	v := c.View()
	series := mocks.Synthetic("london", fixedNow)
	var total float64
	for _, p := range series.PredKWh[:24] {
		total += p
	}
	assert.InDelta(t, total, v.Metrics.DailyTotalKWh, 1e-9)
	assert.Equal(t, "£", v.Metrics.CurrencySymbol)
	assert.InDelta(t, total*0.34, v.Metrics.DailySavings, 1e-9)
	assert.Equal(t, "UTC", v.Timezone)
}

func TestWarmingUpFailure(t *testing.T) {
	src := newMock()
	src.SetFailure("lagos", &fetchers.FetchError{Kind: fetchers.ServiceWarmingUp, Location: "lagos", Status: 503})
	c := newController(t, src)

	require.NoError(t, c.Mount(context.Background()))

	v := c.View()
	require.Equal(t, StateError, v.State)
	require.NotNil(t, v.Failure)
	assert.False(t, v.HasData)
	assert.Equal(t, fetchers.ServiceWarmingUp, v.Failure.Kind)
	assert.Equal(t, WarmingUpTitle, v.Failure.Title)
	assert.Equal(t, "Inference pending... The system is warming up its models for this location.", v.Failure.Message)
	assert.Equal(t, v.Failure.Message, v.Failure.Body)
	assert.True(t, v.Failure.CanRetry)
	assert.True(t, v.Failure.CanReload)
	assert.Equal(t, "LAGOS | STATUS_503_WARMING_UP", v.Failure.Diagnostic)
}

func TestFailureCopy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		title      string
		message    string
		body       string
		diagnostic string
		raw        string
	}{
		{
			name:       "warming up with detail",
			err:        &fetchers.FetchError{Kind: fetchers.ServiceWarmingUp, Status: 503, Detail: "Model cold start"},
			title:      WarmingUpTitle,
			message:    "Model cold start",
			body:       "Model cold start",
			diagnostic: "PARIS | STATUS_503_WARMING_UP",
		},
		{
			name:       "rate limited without detail",
			err:        &fetchers.FetchError{Kind: fetchers.RateLimited, Status: 429},
			title:      RateLimitedTitle,
			message:    RateLimitedMessage,
			body:       ThrottledBody,
			diagnostic: "PARIS | STATUS_429_LIMIT_THROTTLED",
		},
		{
			name:       "rate limited with detail",
			err:        &fetchers.FetchError{Kind: fetchers.RateLimited, Status: 429, Detail: "Open-Meteo busy"},
			title:      RateLimitedTitle,
			message:    "Open-Meteo busy",
			body:       ThrottledBody,
			diagnostic: "PARIS | STATUS_429_LIMIT_THROTTLED",
		},
		{
			name:       "rate limited with own wording",
			err:        &fetchers.FetchError{Kind: fetchers.RateLimited, Status: 429, Detail: "Daily quota exceeded, try tomorrow"},
			title:      RateLimitedTitle,
			message:    "Daily quota exceeded, try tomorrow",
			body:       "Daily quota exceeded, try tomorrow",
			diagnostic: "PARIS | STATUS_429_LIMIT_THROTTLED",
		},
		{
			name:       "not found",
			err:        &fetchers.FetchError{Kind: fetchers.UnclassifiedServerError, Status: 404, Detail: "Location not found"},
			title:      UnavailableTitle,
			message:    "request failed with status code 404: Location not found",
			body:       "request failed with status code 404: Location not found",
			diagnostic: "PARIS | STATUS_SERVICE_UNAVAILABLE",
			raw:        "request failed with status code 404: Location not found",
		},
		{
			name:       "network",
			err:        errors.New("dial tcp: connection refused"),
			title:      UnavailableTitle,
			message:    "dial tcp: connection refused",
			body:       "dial tcp: connection refused",
			diagnostic: "PARIS | STATUS_SERVICE_UNAVAILABLE",
			raw:        "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFailure("paris", tt.err)
			assert.Equal(t, tt.title, f.Title)
			assert.Equal(t, tt.message, f.Message)
			assert.Equal(t, tt.body, f.Body)
			assert.Equal(t, tt.diagnostic, f.Diagnostic)
			assert.Equal(t, tt.raw, f.RawError)
			assert.True(t, f.CanRetry)
			assert.True(t, f.CanReload)
		})
	}

	assert.Equal(t, FetchFailedMessage, newFailure("paris", nil).Message)
}

func TestRetryFromError(t *testing.T) {
	src := newMock()
	src.SetFailure("lagos", &fetchers.FetchError{Kind: fetchers.RateLimited, Status: 429})
	c := newController(t, src)
	require.NoError(t, c.Mount(context.Background()))
	require.Equal(t, StateError, c.View().State)

	src.SetFailure("lagos", nil)
	c.Retry(context.Background())

	v := c.View()
	assert.Equal(t, StateReady, v.State)
	assert.Nil(t, v.Failure)
	assert.Equal(t, 2, c.Fetches())
	assert.Equal(t, 2, src.Fetches("lagos"))
}

func TestRetryEntersLoading(t *testing.T) {
	g := newGatedSource()
	c := newController(t, g)

	done := make(chan struct{})
	go func() { c.Retry(context.Background()); close(done) }()
	call := g.next(t)

	assert.Equal(t, StateLoading, c.View().State)
	call.reply <- gatedResult{err: errors.New("boom")}
	<-done
	assert.Equal(t, StateError, c.View().State)
}

func TestSelectLocation(t *testing.T) {
	src := newMock()
	c := newController(t, src)
	require.NoError(t, c.Mount(context.Background()))

	err := c.SelectLocation(context.Background(), "atlantis")
	assert.ErrorIs(t, err, catalog.ErrUnknownLocation)
	assert.Equal(t, 1, c.Fetches())
	assert.Equal(t, "lagos", c.View().Location.ID)

	require.NoError(t, c.SelectLocation(context.Background(), "paris"))
	v := c.View()
	assert.Equal(t, "paris", v.Location.ID)
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, 1, src.Fetches("paris"))
	assert.Equal(t, "€", v.Metrics.CurrencySymbol)

	require.NoError(t, c.SelectLocation(context.Background(), "paris"))
	assert.Equal(t, 1, src.Fetches("paris"), "reselecting the current location does not refetch")
}

func TestStaleResponseDiscarded(t *testing.T) {
	g := newGatedSource()
	c := newController(t, g)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); c.Refresh(context.Background()) }()
	first := g.next(t)

	wg.Add(1)
	go func() { defer wg.Done(); assert.NoError(t, c.SelectLocation(context.Background(), "tokyo")) }()
	second := g.next(t)
	assert.Equal(t, "lagos", first.location)
	assert.Equal(t, "tokyo", second.location)
	assert.Equal(t, uint64(2), c.Seq())

	// The newer request resolves first, then the older one arrives late.
	second.reply <- gatedResult{series: seriesWithTotal("tokyo", 2, 24)}
	assert.Eventually(t, func() bool { return c.View().State == StateReady }, time.Second, 5*time.Millisecond)
	first.reply <- gatedResult{series: seriesWithTotal("lagos", 1, 24)}
	wg.Wait()

	v := c.View()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, "tokyo", v.Location.ID)
	assert.Equal(t, 48.0, v.Metrics.DailyTotalKWh)
}

func TestStaleFailureDiscarded(t *testing.T) {
	g := newGatedSource()
	c := newController(t, g)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Refresh(context.Background()) }()
	first := g.next(t)
	go func() { defer wg.Done(); c.Retry(context.Background()) }()
	second := g.next(t)

	second.reply <- gatedResult{series: seriesWithTotal("lagos", 1, 24)}
	assert.Eventually(t, func() bool { return c.View().State == StateReady }, time.Second, 5*time.Millisecond)
	first.reply <- gatedResult{err: &fetchers.FetchError{Kind: fetchers.ServiceWarmingUp, Status: 503}}
	wg.Wait()

	v := c.View()
	assert.Equal(t, StateReady, v.State)
	assert.Nil(t, v.Failure)
}

func TestTimerRefetchesUntilClosed(t *testing.T) {
	src := newMock()
	c := newController(t, src, func(o *Options) { o.RefreshInterval = 10 * time.Millisecond })

	require.NoError(t, c.Mount(context.Background()))
	assert.Eventually(t, func() bool { return c.Fetches() >= 3 }, 2*time.Second, 5*time.Millisecond)

	c.Close()
	after := c.Fetches()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, c.Fetches(), "no fetches after close")
	assert.True(t, c.Closed())
}

func TestTimerFetchesFromErrorState(t *testing.T) {
	src := newMock()
	src.SetFailure("lagos", errors.New("offline"))
	c := newController(t, src, func(o *Options) { o.RefreshInterval = 10 * time.Millisecond })
	require.NoError(t, c.Mount(context.Background()))
	require.Equal(t, StateError, c.View().State)

	src.SetFailure("lagos", nil)
	assert.Eventually(t, func() bool { return c.View().State == StateReady }, 2*time.Second, 5*time.Millisecond)
}

func TestCloseDropsInFlightResult(t *testing.T) {
	g := newGatedSource()
	c := newController(t, g)

	done := make(chan struct{})
	go func() { c.Refresh(context.Background()); close(done) }()
	call := g.next(t)

	c.Close()
	c.Close() // idempotent
	call.reply <- gatedResult{series: seriesWithTotal("lagos", 1, 24)}
	<-done

	assert.Equal(t, StateLoading, c.View().State)
	assert.ErrorIs(t, c.Mount(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.SelectLocation(context.Background(), "paris"), ErrClosed)

	c.Refresh(context.Background())
	assert.Equal(t, 1, c.Fetches(), "closed controller issues no fetches")
}

func TestViewIsSnapshot(t *testing.T) {
	c := newController(t, newMock())
	require.NoError(t, c.Mount(context.Background()))

	v := c.View()
	v.Band.Mean[0] = 999
	v.Locations[0].DisplayName = "changed"

	fresh := c.View()
	assert.NotEqual(t, 999.0, fresh.Band.Mean[0])
	assert.Equal(t, "Lagos, Nigeria", fresh.Locations[0].DisplayName)
}
