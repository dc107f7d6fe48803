package insights

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders v with thousands separators and a fixed number of decimals.
func FormatMoney(symbol string, v float64, decimals int) string {
	amount := printer.Sprint(number.Decimal(finite(v),
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
	if symbol == "" {
		return amount
	}
	return symbol + " " + amount
}

// FormatNumber renders v with thousands separators and a fixed number of decimals.
func FormatNumber(v float64, decimals int) string {
	return FormatMoney("", v, decimals)
}

// DryingSummary describes the crop-drying hours, listing at most three.
func DryingSummary(windows []int) string {
	if len(windows) == 0 {
		return "No ideal windows - expect cloud cover"
	}
	shown := windows
	if len(shown) > 3 {
		shown = shown[:3]
	}
	labels := make([]string, len(shown))
	for i, h := range shown {
		labels[i] = fmt.Sprintf("%d:00", h)
	}
	more := ""
	if len(windows) > 3 {
		more = "..."
	}
	return fmt.Sprintf("%d optimal hours today (%s%s)", len(windows), strings.Join(labels, ", "), more)
}

// RiskTone maps a UV risk level to the severity used for styling.
func RiskTone(level string) string {
	switch level {
	case "Extreme", "Very High":
		return "severe"
	case "High":
		return "high"
	default:
		return "moderate"
	}
}
