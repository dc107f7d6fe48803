package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"solarsight/internal/catalog"
	"solarsight/internal/charts"
	"solarsight/internal/dashboard"
	"solarsight/internal/shell"
)

// HandleRoot serves the dashboard page
func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	if r.URL.Query().Get("reload") == "1" {
		if _, err := s.resetSession(w, r); err != nil {
			s.sessionError(w, err)
			return
		}
		redirectHome(w, r)
		return
	}

	_, ctrl, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}

	var overlay *shell.Topic
	if slug := r.URL.Query().Get("info"); slug != "" {
		if topic, ok := shell.LookupTopic(slug); ok {
			overlay = &topic
		}
	}

	var buf bytes.Buffer
	if err := s.renderDashboard(&buf, ctrl.View(), overlay); err != nil {
		s.log.Error("failed to render dashboard", err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// HandleLocation switches the session to another catalog location and refetches
func (s *Server) HandleLocation(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	id := r.FormValue("location")
	if !s.Catalog.Contains(id) {
		http.Error(w, "Unknown location", http.StatusBadRequest)
		return
	}

	_, ctrl, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if err := ctrl.SelectLocation(context.WithoutCancel(r.Context()), id); err != nil {
		if errors.Is(err, catalog.ErrUnknownLocation) {
			http.Error(w, "Unknown location", http.StatusBadRequest)
			return
		}
		s.log.Warn("location change ignored", map[string]interface{}{
			"location": id,
			"error":    err.Error(),
		})
	}
	redirectHome(w, r)
}

// HandleHorizon changes the displayed horizon without fetching
func (s *Server) HandleHorizon(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	hours, err := strconv.Atoi(r.FormValue("hours"))
	if err != nil {
		http.Error(w, dashboard.ErrInvalidHorizon.Error(), http.StatusBadRequest)
		return
	}

	_, ctrl, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if err := ctrl.SetHorizon(hours); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	redirectHome(w, r)
}

// HandleRetry re-runs the session's fetch
func (s *Server) HandleRetry(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	_, ctrl, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	ctrl.Retry(context.WithoutCancel(r.Context()))
	redirectHome(w, r)
}

// HandleViewJSON returns the session view as JSON
func (s *Server) HandleViewJSON(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	_, ctrl, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newViewResponse(ctrl.View()))
}

// HandleForecastPNG renders the current horizon as a static PNG
func (s *Server) HandleForecastPNG(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	v, ok := s.readyView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	title := v.Location.DisplayName + " | " + strconv.Itoa(v.Horizon) + "h Generation Forecast"
	if err := charts.RenderPNG(&buf, v.Band, title); err != nil {
		s.log.Error("failed to render forecast png", err, map[string]interface{}{"location": v.Location.ID})
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// HandleCO2Page renders the hourly CO₂ offset chart page
func (s *Server) HandleCO2Page(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	v, ok := s.readyView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	title := v.Location.DisplayName + " | Hourly CO₂ Offset"
	if err := charts.RenderCO2Page(&buf, v.Band, title); err != nil {
		s.log.Error("failed to render co2 page", err, map[string]interface{}{"location": v.Location.ID})
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Write(buf.Bytes())
}

// HandleHealth provides health check endpoint
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	health := map[string]interface{}{
		"status":    "healthy",
		"version":   s.Version,
		"sessions":  s.Sessions.Len(),
		"mockup":    s.Config.MockupMode,
		"uptime_s":  int64(time.Since(s.start).Seconds()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, http.StatusOK, health)
}

// readyView returns the session view when it holds data, answering 404 otherwise.
func (s *Server) readyView(w http.ResponseWriter, r *http.Request) (dashboard.View, bool) {
	_, ctrl, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return dashboard.View{}, false
	}
	v := ctrl.View()
	if !v.HasData {
		http.Error(w, "No forecast data available", http.StatusNotFound)
		return v, false
	}
	return v, true
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, dashboard.ErrRegistryClosed) {
		http.Error(w, "Service shutting down", http.StatusServiceUnavailable)
		return
	}
	s.log.Error("failed to create session", err)
	http.Error(w, "Failed to create session", http.StatusInternalServerError)
}
