package fetchers

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed prediction fetch.
type ErrorKind int

const (
	// NetworkFailure means no HTTP response was received.
	NetworkFailure ErrorKind = iota
	// ServiceWarmingUp is HTTP 503: the backend has not finished its first inference.
	ServiceWarmingUp
	// RateLimited is HTTP 429: the upstream weather provider is throttling.
	RateLimited
	// UnclassifiedServerError is any other non-2xx status.
	UnclassifiedServerError
	// MalformedPayload is a 2xx response that does not decode or is inconsistent.
	MalformedPayload
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case ServiceWarmingUp:
		return "service_warming_up"
	case RateLimited:
		return "rate_limited"
	case UnclassifiedServerError:
		return "unclassified_server_error"
	case MalformedPayload:
		return "malformed_payload"
	default:
		return "unknown"
	}
}

// FetchError describes why a prediction fetch failed.
type FetchError struct {
	Kind     ErrorKind
	Location string
	// Status is the HTTP status code, zero for network failures.
	Status int
	// Detail is the server's `detail` string when the error body carried one.
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case NetworkFailure, MalformedPayload:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.String()
	default:
		msg := fmt.Sprintf("request failed with status code %d", e.Status)
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed later without user action.
func (e *FetchError) Retryable() bool {
	return e.Kind == ServiceWarmingUp || e.Kind == RateLimited || e.Kind == NetworkFailure
}

// KindOf returns the ErrorKind carried by err. Errors that are not a
// FetchError are treated as network failures.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return NetworkFailure
}

// classifyStatus maps a non-2xx status to its ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusServiceUnavailable:
		return ServiceWarmingUp
	case http.StatusTooManyRequests:
		return RateLimited
	default:
		return UnclassifiedServerError
	}
}
