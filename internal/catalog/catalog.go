// Package catalog holds the static table of forecast locations.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"solarsight/internal/models"
)

// ErrUnknownLocation is returned by Lookup for ids outside the catalog.
var ErrUnknownLocation = errors.New("unknown location")

// Catalog is an ordered, immutable set of locations keyed by id.
type Catalog struct {
	locations []models.Location
	byID      map[string]int
}

var defaultLocations = []models.Location{
	{ID: "lagos", DisplayName: "Lagos, Nigeria", CurrencySymbol: "₦", TariffRate: 225.0},
	{ID: "nairobi", DisplayName: "Nairobi, Kenya", CurrencySymbol: "KSh", TariffRate: 28.0},
	{ID: "cape_town", DisplayName: "Cape Town, South Africa", CurrencySymbol: "R", TariffRate: 3.50},
	{ID: "london", DisplayName: "London, UK", CurrencySymbol: "£", TariffRate: 0.34},
	{ID: "berlin", DisplayName: "Berlin, Germany", CurrencySymbol: "€", TariffRate: 0.42},
	{ID: "paris", DisplayName: "Paris, France", CurrencySymbol: "€", TariffRate: 0.28},
	{ID: "tokyo", DisplayName: "Tokyo, Japan", CurrencySymbol: "¥", TariffRate: 32.0},
	{ID: "new_york", DisplayName: "New York, USA", CurrencySymbol: "$", TariffRate: 0.24},
	{ID: "dubai", DisplayName: "Dubai, UAE", CurrencySymbol: "AED", TariffRate: 0.45},
	{ID: "sydney", DisplayName: "Sydney, Australia", CurrencySymbol: "A$", TariffRate: 0.38},
}

// Default returns the built-in ten-city catalog.
func Default() *Catalog {
	c, err := New(defaultLocations)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in table is invalid: %v", err))
	}
	return c
}

// New validates locations and builds a catalog preserving their order.
func New(locations []models.Location) (*Catalog, error) {
	if len(locations) == 0 {
		return nil, errors.New("catalog must contain at least one location")
	}
	c := &Catalog{
		locations: make([]models.Location, 0, len(locations)),
		byID:      make(map[string]int, len(locations)),
	}
	for i, loc := range locations {
		loc.ID = strings.TrimSpace(loc.ID)
		switch {
		case loc.ID == "":
			return nil, fmt.Errorf("location %d: id is empty", i)
		case strings.TrimSpace(loc.DisplayName) == "":
			return nil, fmt.Errorf("location %q: name is empty", loc.ID)
		case loc.TariffRate < 0:
			return nil, fmt.Errorf("location %q: negative tariff %v", loc.ID, loc.TariffRate)
		}
		if _, dup := c.byID[loc.ID]; dup {
			return nil, fmt.Errorf("location %q: duplicate id", loc.ID)
		}
		c.byID[loc.ID] = len(c.locations)
		c.locations = append(c.locations, loc)
	}
	return c, nil
}

// Load reads a YAML, JSON or TOML file with a top-level `locations` list.
// An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read locations file %s: %w", path, err)
	}

	var locations []models.Location
	if err := v.UnmarshalKey("locations", &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations from %s: %w", path, err)
	}

	c, err := New(locations)
	if err != nil {
		return nil, fmt.Errorf("invalid locations file %s: %w", path, err)
	}
	return c, nil
}

// Lookup returns the location with the given id.
func (c *Catalog) Lookup(id string) (models.Location, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, id)
	}
	return c.locations[i], nil
}

// Contains reports whether id is in the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns the locations in declared order.
func (c *Catalog) All() []models.Location {
	return append([]models.Location(nil), c.locations...)
}

// IDs returns the location ids in declared order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.locations))
	for i, loc := range c.locations {
		ids[i] = loc.ID
	}
	return ids
}

// First returns the first declared location.
func (c *Catalog) First() models.Location {
	return c.locations[0]
}

// Len returns the number of locations.
func (c *Catalog) Len() int {
	return len(c.locations)
}
