package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"solarsight/internal/logger"
	"solarsight/internal/models"
)

const (
	predictionsPath = "/api/predictions/{location}"
	analyticsPath   = "/api/analytics/hit"
)

// PredictionFetcher is the client for the SolarSight prediction API
type PredictionFetcher struct {
	client *resty.Client
	log    *logger.Logger
}

// NewPredictionFetcher creates a client for the API at baseURL. A zero
// timeout leaves the transport default in place. Requests are never retried
// automatically; retry is a user decision.
func NewPredictionFetcher(baseURL string, timeout time.Duration) *PredictionFetcher {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &PredictionFetcher{
		client: client,
		log:    logger.Component("fetcher"),
	}
}

// errorBody is the FastAPI error envelope. Detail is only used when it is a string.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// FetchPredictions retrieves the forecast series for a location
func (f *PredictionFetcher) FetchPredictions(ctx context.Context, locationID string) (*models.PredictionSeries, error) {
	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("location", locationID).
		Get(predictionsPath)

	if err != nil {
		f.log.Warn("prediction fetch failed", map[string]interface{}{
			"location": locationID,
			"error":    err.Error(),
		})
		return nil, &FetchError{Kind: NetworkFailure, Location: locationID, Err: err}
	}

	if !resp.IsSuccess() {
		fe := &FetchError{
			Kind:     classifyStatus(resp.StatusCode()),
			Location: locationID,
			Status:   resp.StatusCode(),
			Detail:   extractDetail(resp.Body()),
		}
		f.log.Warn("prediction API returned error status", map[string]interface{}{
			"location": locationID,
			"status":   fe.Status,
			"kind":     fe.Kind.String(),
		})
		return nil, fe
	}

	var series models.PredictionSeries
	if err := json.Unmarshal(resp.Body(), &series); err != nil {
		return nil, &FetchError{
			Kind:     MalformedPayload,
			Location: locationID,
			Status:   resp.StatusCode(),
			Err:      fmt.Errorf("failed to parse prediction payload: %w", err),
		}
	}
	if err := series.Validate(); err != nil {
		return nil, &FetchError{
			Kind:     MalformedPayload,
			Location: locationID,
			Status:   resp.StatusCode(),
			Err:      fmt.Errorf("inconsistent prediction payload: %w", err),
		}
	}

	f.log.Debug("fetched predictions", map[string]interface{}{
		"location": locationID,
		"samples":  series.Len(),
		"duration": time.Since(start).String(),
	})
	return &series, nil
}

// RecordImpression posts an analytics hit. Failures are logged and dropped.
func (f *PredictionFetcher) RecordImpression(ctx context.Context) {
	resp, err := f.client.R().
		SetContext(ctx).
		Post(analyticsPath)
	if err != nil {
		f.log.Debug("analytics hit failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if !resp.IsSuccess() {
		f.log.Debug("analytics hit rejected", map[string]interface{}{"status": resp.StatusCode()})
	}
}

func extractDetail(body []byte) string {
	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil || len(eb.Detail) == 0 {
		return ""
	}
	var detail string
	if json.Unmarshal(eb.Detail, &detail) != nil {
		return ""
	}
	return detail
}
