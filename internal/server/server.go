package server

import (
	"errors"
	"net/http"
	"time"

	"solarsight/internal/catalog"
	"solarsight/internal/config"
	"solarsight/internal/dashboard"
	"solarsight/internal/logger"
)

// SessionCookie names the cookie that carries the dashboard session id.
const SessionCookie = "solarsight_session"

// loadingRefreshSeconds is the meta refresh used while a fetch is pending.
const loadingRefreshSeconds = 2

// Server represents the dashboard HTTP surface
type Server struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Sessions *dashboard.Registry
	Version  string

	log   *logger.Logger
	start time.Time
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, cat *catalog.Catalog, sessions *dashboard.Registry) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if sessions == nil {
		return nil, errors.New("server: session registry is required")
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &Server{
		Config:   cfg,
		Catalog:  cat,
		Sessions: sessions,
		Version:  config.GetVersion(),
		log:      logger.Component("server"),
		start:    time.Now(),
	}, nil
}

// SetupRoutes configures HTTP routes for the server
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/location", s.HandleLocation)
	mux.HandleFunc("/horizon", s.HandleHorizon)
	mux.HandleFunc("/retry", s.HandleRetry)
	mux.HandleFunc("/api/view", s.HandleViewJSON)
	mux.HandleFunc("/charts/forecast.png", s.HandleForecastPNG)
	mux.HandleFunc("/charts/co2", s.HandleCO2Page)

	// Handle root path last (catch-all)
	mux.HandleFunc("/", s.HandleRoot)

	return mux
}

// Handler returns the routes wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.SetupRoutes())
}

// Close cleans up server resources
func (s *Server) Close() error {
	s.Sessions.Close()
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		fields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"bytes":       rec.bytes,
			"duration_ms": time.Since(started).Milliseconds(),
		}
		if rec.status >= http.StatusInternalServerError {
			s.log.Warn("request failed", fields)
			return
		}
		s.log.Debug("request served", fields)
	})
}
