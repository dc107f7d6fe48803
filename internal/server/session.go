package server

import (
	"context"
	"net/http"

	"solarsight/internal/dashboard"
)

// session returns the caller's controller, creating and mounting a new one
// when the cookie is missing or no longer known. Creation performs the
// initial fetch on a context detached from the request.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *dashboard.Controller, error) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if ctrl, ok := s.Sessions.Get(c.Value); ok && !ctrl.Closed() {
			return c.Value, ctrl, nil
		}
	}
	return s.newSession(w, r)
}

func (s *Server) newSession(w http.ResponseWriter, r *http.Request) (string, *dashboard.Controller, error) {
	id, ctrl, err := s.Sessions.Create(context.WithoutCancel(r.Context()))
	if err != nil {
		return "", nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.Config.SessionIdleTTL.Seconds()),
	})
	return id, ctrl, nil
}

// resetSession tears the caller's session down and mounts a fresh one.
func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) (*dashboard.Controller, error) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		s.Sessions.Remove(c.Value)
	}
	_, ctrl, err := s.newSession(w, r)
	return ctrl, err
}
