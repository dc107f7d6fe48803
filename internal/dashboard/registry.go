package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"solarsight/internal/logger"
)

// Factory builds a fresh, unmounted controller for a new session.
type Factory func() (*Controller, error)

// RegistryOptions configures session retention.
type RegistryOptions struct {
	IdleTTL     time.Duration
	MaxSessions int
	Logger      *logger.Logger
	Now         func() time.Time
}

type session struct {
	ctrl     *Controller
	order    uint64
	lastSeen time.Time
}

// Registry maps browser session ids to their controllers.
type Registry struct {
	factory Factory
	ttl     time.Duration
	max     int
	log     *logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	created  uint64
	closed   bool
}

// ErrRegistryClosed is returned by Create after Close.
var ErrRegistryClosed = errors.New("session registry is closed")

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, opts RegistryOptions) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = time.Hour
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 500
	}
	if opts.Logger == nil {
		opts.Logger = logger.Component("sessions")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		factory:  factory,
		ttl:      opts.IdleTTL,
		max:      opts.MaxSessions,
		log:      opts.Logger,
		now:      opts.Now,
		sessions: make(map[string]*session),
	}
}

// Create builds, registers and mounts a controller under a new session id.
// Mount performs the initial fetch, so Create blocks until it resolves.
func (r *Registry) Create(ctx context.Context) (string, *Controller, error) {
	ctrl, err := r.factory()
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	now := r.now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ctrl.Close()
		return "", nil, ErrRegistryClosed
	}
	r.created++
	r.sessions[id] = &session{ctrl: ctrl, order: r.created, lastSeen: now}
	evicted := r.evictOverflowLocked()
	r.mu.Unlock()

	closeAll(evicted)
	if err := ctrl.Mount(ctx); err != nil {
		return "", nil, err
	}

	r.log.Debug("session created", map[string]interface{}{"session": id})
	return id, ctrl, nil
}

// Get returns the session's controller and marks it as recently used.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.ctrl, true
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.ctrl.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many it removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Controller
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s.ctrl)
			delete(r.sessions, id)
		}
	}
	expired = append(expired, r.evictOverflowLocked()...)
	r.mu.Unlock()

	closeAll(expired)
	if len(expired) > 0 {
		r.log.Info("swept idle sessions", map[string]interface{}{"removed": len(expired)})
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every session. Later Create calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	all := make([]*Controller, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s.ctrl)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	closeAll(all)
}

// evictOverflowLocked drops the least recently seen sessions above the cap.
func (r *Registry) evictOverflowLocked() []*Controller {
	over := len(r.sessions) - r.max
	if over <= 0 {
		return nil
	}

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.sessions[ids[i]], r.sessions[ids[j]]
		if a.lastSeen.Equal(b.lastSeen) {
			return a.order < b.order
		}
		return a.lastSeen.Before(b.lastSeen)
	})

	evicted := make([]*Controller, 0, over)
	for _, id := range ids[:over] {
		evicted = append(evicted, r.sessions[id].ctrl)
		delete(r.sessions, id)
	}
	return evicted
}

func closeAll(ctrls []*Controller) {
	for _, c := range ctrls {
		c.Close()
	}
}
