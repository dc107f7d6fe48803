package dashboard

import (
	"strings"

	"solarsight/internal/fetchers"
)

// User-facing copy for classified fetch failures
const (
	WarmingUpTitle   = "Models Warming Up"
	WarmingUpMessage = "Inference pending... The system is warming up its models for this location."

	RateLimitedTitle   = "Service Temporarily Saturated"
	RateLimitedMessage = "The weather data provider is temporarily busy. Please try again shortly."
	ThrottledBody      = "The high volume of global requests has temporarily throttled our weather data stream. We are recalibrating for your region."

	UnavailableTitle   = "Forecast Unavailable"
	FetchFailedMessage = "Failed to fetch prediction data."

	RetryLabel  = "Attempt Reconnection"
	ReloadLabel = "Refresh Application"
)

// Failure is the classified, displayable form of a fetch error.
type Failure struct {
	Kind  fetchers.ErrorKind
	Title string
	// Message is the classified message: the server detail or the default copy.
	Message string
	// Body is what the error panel shows.
	Body string
	// Diagnostic is the "LOCATION | STATUS_..." context line.
	Diagnostic string
	// RawError is the underlying error string, set for unclassified failures.
	RawError  string
	CanRetry  bool
	CanReload bool
}

func newFailure(locationID string, err error) *Failure {
	f := &Failure{
		Kind:      fetchers.KindOf(err),
		CanRetry:  true,
		CanReload: true,
	}

	var detail string
	if fe, ok := asFetchError(err); ok {
		detail = fe.Detail
	}

	status := "SERVICE_UNAVAILABLE"
	switch f.Kind {
	case fetchers.ServiceWarmingUp:
		f.Title = WarmingUpTitle
		f.Message = firstNonEmpty(detail, WarmingUpMessage)
		f.Body = f.Message
		status = "503_WARMING_UP"
	case fetchers.RateLimited:
		f.Title = RateLimitedTitle
		f.Message = firstNonEmpty(detail, RateLimitedMessage)
		f.Body = f.Message
		if strings.Contains(f.Message, "429") || strings.Contains(strings.ToLower(f.Message), "busy") {
			f.Body = ThrottledBody
		}
		status = "429_LIMIT_THROTTLED"
	default:
		f.Title = UnavailableTitle
		if err != nil {
			f.RawError = err.Error()
		}
		f.Message = firstNonEmpty(f.RawError, FetchFailedMessage)
		f.Body = f.Message
	}

	f.Diagnostic = strings.ToUpper(locationID) + " | STATUS_" + status
	return f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
