package models

// Location is one entry of the dashboard's city catalog.
type Location struct {
	ID             string  `json:"id" mapstructure:"id"`
	DisplayName    string  `json:"name" mapstructure:"name"`
	CurrencySymbol string  `json:"currency" mapstructure:"currency"`
	TariffRate     float64 `json:"rate" mapstructure:"rate"`
}
