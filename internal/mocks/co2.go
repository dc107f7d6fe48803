package mocks

import "strings"

// DefaultGridIntensity is used for locations without a regional factor (gCO2eq/kWh).
const DefaultGridIntensity = 450.0

// gridIntensity holds regional grid emission factors in gCO2eq per kWh.
var gridIntensity = map[string]float64{
	"lagos":     480.0,
	"nairobi":   120.0,
	"cape_town": 850.0,
	"london":    180.0,
	"berlin":    350.0,
	"paris":     55.0,
	"tokyo":     450.0,
	"new_york":  220.0,
	"dubai":     580.0,
	"sydney":    650.0,
}

// GridIntensity returns the emission factor for a location.
func GridIntensity(locationID string) float64 {
	if v, ok := gridIntensity[strings.ToLower(locationID)]; ok {
		return v
	}
	return DefaultGridIntensity
}

// CO2AvoidedKg converts generated energy into avoided grid emissions.
func CO2AvoidedKg(kwh float64, locationID string) float64 {
	return kwh * GridIntensity(locationID) / 1000.0
}
