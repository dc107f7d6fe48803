// Package dashboard holds the per-session view controller: the state
// machine that fetches forecasts, keeps the latest result and derives what
// the page shows.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"solarsight/internal/catalog"
	"solarsight/internal/fetchers"
	"solarsight/internal/logger"
	"solarsight/internal/models"
)

// State is the controller's fetch state.
type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateReady   State = "ready"
)

// Supported forecast horizons in hours
const (
	Horizon24 = 24
	Horizon48 = 48
)

// DefaultRefreshInterval is the periodic refetch cadence.
const DefaultRefreshInterval = 15 * time.Minute

// ErrInvalidHorizon is returned by SetHorizon for values other than 24 or 48.
var ErrInvalidHorizon = errors.New("horizon must be 24 or 48 hours")

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("controller is closed")

// Source provides prediction series and accepts impression beacons.
type Source interface {
	FetchPredictions(ctx context.Context, locationID string) (*models.PredictionSeries, error)
	RecordImpression(ctx context.Context)
}

// Options configures a Controller.
type Options struct {
	Source          Source
	Catalog         *catalog.Catalog
	LocationID      string
	Horizon         int
	RefreshInterval time.Duration
	Logger          *logger.Logger
	Now             func() time.Time
}

// Controller is one dashboard session's state cell. All methods are safe
// for concurrent use. Fetches are not cancelled by later calls; each fetch
// takes a sequence number and only the latest issued one may change state.
type Controller struct {
	src      Source
	cat      *catalog.Catalog
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    State
	location models.Location
	horizon  int
	series   *models.PredictionSeries
	failure  *Failure
	lastSync time.Time
	issued   uint64
	fetches  int
	mounted  bool
	closed   bool

	stopTimer context.CancelFunc
	timerDone chan struct{}
}

// NewController validates opts and returns an unmounted controller in the loading state.
func NewController(opts Options) (*Controller, error) {
	if opts.Source == nil {
		return nil, errors.New("dashboard: source is required")
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Horizon == 0 {
		opts.Horizon = Horizon24
	}
	if !validHorizon(opts.Horizon) {
		return nil, ErrInvalidHorizon
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Component("dashboard")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	loc := opts.Catalog.First()
	if opts.LocationID != "" {
		var err error
		if loc, err = opts.Catalog.Lookup(opts.LocationID); err != nil {
			return nil, err
		}
	}

	return &Controller{
		src:      opts.Source,
		cat:      opts.Catalog,
		interval: opts.RefreshInterval,
		log:      opts.Logger,
		now:      opts.Now,
		state:    StateLoading,
		location: loc,
		horizon:  opts.Horizon,
	}, nil
}

// Mount fires the impression beacon, starts the refresh timer and performs
// the initial fetch. Calling it more than once has no effect.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	timerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.stopTimer = cancel
	c.timerDone = make(chan struct{})
	c.mu.Unlock()

	go c.src.RecordImpression(context.WithoutCancel(ctx))
	go c.runTimer(timerCtx)

	c.fetch(ctx, "mount")
	return nil
}

func (c *Controller) runTimer(ctx context.Context) {
	defer close(c.timerDone)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.fetch(ctx, "timer")
		}
	}
}

// Refresh refetches the current location.
func (c *Controller) Refresh(ctx context.Context) {
	c.fetch(ctx, "refresh")
}

// Retry re-invokes the same fetch after a failure.
func (c *Controller) Retry(ctx context.Context) {
	c.fetch(ctx, "retry")
}

// SelectLocation switches location and fetches it immediately. Selecting
// the current location again is a no-op.
func (c *Controller) SelectLocation(ctx context.Context, id string) error {
	loc, err := c.cat.Lookup(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	closed, same := c.closed, c.location.ID == loc.ID
	c.mu.Unlock()
	switch {
	case closed:
		return ErrClosed
	case same:
		return nil
	}

	c.fetchFor(ctx, "location", &loc)
	return nil
}

// SetHorizon changes how many hours the chart shows. It never fetches.
func (c *Controller) SetHorizon(hours int) error {
	if !validHorizon(hours) {
		return fmt.Errorf("%w: got %d", ErrInvalidHorizon, hours)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.horizon = hours
	return nil
}

// Close stops the refresh timer and waits for it to exit. Fetches that
// resolve afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stop, done := c.stopTimer, c.timerDone
	c.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

// Fetches returns the number of fetches issued so far.
func (c *Controller) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// Seq returns the sequence number of the latest issued fetch.
func (c *Controller) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) fetch(ctx context.Context, trigger string) {
	c.fetchFor(ctx, trigger, nil)
}

// fetchFor enters loading, optionally switching location in the same step,
// calls the source and applies the outcome if no newer fetch was issued in
// the meantime.
func (c *Controller) fetchFor(ctx context.Context, trigger string, switchTo *models.Location) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if switchTo != nil {
		c.location = *switchTo
	}
	c.issued++
	c.fetches++
	seq := c.issued
	loc := c.location
	c.state = StateLoading
	c.failure = nil
	c.mu.Unlock()

	series, err := c.src.FetchPredictions(ctx, loc.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.issued {
		c.log.Debug("discarding superseded fetch result", map[string]interface{}{
			"location": loc.ID,
			"seq":      seq,
			"latest":   c.issued,
			"trigger":  trigger,
		})
		return
	}

	if err != nil {
		c.failure = newFailure(loc.ID, err)
		c.state = StateError
		c.log.Warn("forecast fetch failed", map[string]interface{}{
			"location": loc.ID,
			"kind":     c.failure.Kind.String(),
			"trigger":  trigger,
			"error":    err.Error(),
		})
		return
	}

	c.series = series.Clone()
	c.lastSync = c.now()
	if generated, perr := series.GeneratedTime(); perr == nil {
		c.lastSync = generated
	}
	c.state = StateReady
	c.log.Debug("forecast applied", map[string]interface{}{
		"location": loc.ID,
		"seq":      seq,
		"samples":  series.Len(),
		"trigger":  trigger,
	})
}

func validHorizon(h int) bool {
	return h == Horizon24 || h == Horizon48
}

func asFetchError(err error) (*fetchers.FetchError, bool) {
	var fe *fetchers.FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}
