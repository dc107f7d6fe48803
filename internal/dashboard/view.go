package dashboard

import (
	"time"

	"solarsight/internal/charts"
	"solarsight/internal/insights"
	"solarsight/internal/models"
)

// View is a read-only snapshot of a controller.
type View struct {
	State     State
	Location  models.Location
	Locations []models.Location
	Horizon   int
	Horizons  []int

	// Populated only in the ready state
	HasData      bool
	Band         charts.Band
	Metrics      insights.Metrics
	Timezone     string
	TimezoneAbbr string
	LastSync     time.Time

	Failure *Failure
	Seq     uint64
}

// View returns a snapshot of the controller's state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:     c.state,
		Location:  c.location,
		Locations: c.cat.All(),
		Horizon:   c.horizon,
		Horizons:  []int{Horizon24, Horizon48},
		Seq:       c.issued,
	}
	if c.failure != nil {
		f := *c.failure
		v.Failure = &f
	}

	if c.state != StateReady || c.series == nil {
		return v
	}

	window := c.series.Window(c.horizon)
	v.HasData = true
	v.Band = charts.BuildBand(window.Hours, window.PredKWh, window.Confidence, window.CO2KgPerHour)
	v.Metrics = insights.Compute(insights.FromSeries(c.series, c.location))
	v.Timezone = c.series.Timezone
	v.TimezoneAbbr = c.series.TimezoneAbbr
	v.LastSync = c.lastSync
	return v
}
