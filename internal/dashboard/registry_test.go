package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarsight/internal/catalog"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newRegistry(t *testing.T, ttl time.Duration, max int) (*Registry, *fakeClock) {
	t.Helper()
	src := newMock()
	clock := &fakeClock{now: fixedNow}
	r := NewRegistry(func() (*Controller, error) {
		return NewController(Options{Source: src, Catalog: catalog.Default(), RefreshInterval: time.Hour})
	}, RegistryOptions{IdleTTL: ttl, MaxSessions: max, Now: clock.Now})
	t.Cleanup(r.Close)
	return r, clock
}

func TestRegistryCreateGetRemove(t *testing.T) {
	r, _ := newRegistry(t, time.Hour, 10)

	id, ctrl, err := r.Create(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "session ids are UUIDs")
	assert.Equal(t, StateReady, ctrl.View().State, "create mounts the controller")

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, ctrl, got)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Remove(id))
	assert.True(t, ctrl.Closed())
	assert.False(t, r.Remove(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestRegistrySweepIdle(t *testing.T) {
	r, clock := newRegistry(t, 30*time.Minute, 10)

	idle, idleCtrl, err := r.Create(context.Background())
	require.NoError(t, err)
	active, _, err := r.Create(context.Background())
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	_, ok := r.Get(active)
	require.True(t, ok)
	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, r.Sweep())
	assert.True(t, idleCtrl.Closed())
	_, ok = r.Get(idle)
	assert.False(t, ok)
	_, ok = r.Get(active)
	assert.True(t, ok)
}

func TestRegistryEvictsLeastRecentlySeen(t *testing.T) {
	r, clock := newRegistry(t, time.Hour, 2)

	first, firstCtrl, err := r.Create(context.Background())
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, _, err := r.Create(context.Background())
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, ok := r.Get(first)
	require.True(t, ok)
	clock.Advance(time.Minute)

	third, _, err := r.Create(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	_, ok = r.Get(second)
	assert.False(t, ok, "least recently seen session is evicted")
	_, ok = r.Get(first)
	assert.True(t, ok)
	_, ok = r.Get(third)
	assert.True(t, ok)
	assert.False(t, firstCtrl.Closed())
}

func TestRegistryEvictionTieBreaksOnAge(t *testing.T) {
	r, _ := newRegistry(t, time.Hour, 1)

	_, oldCtrl, err := r.Create(context.Background())
	require.NoError(t, err)
	newID, _, err := r.Create(context.Background())
	require.NoError(t, err)

	assert.True(t, oldCtrl.Closed())
	_, ok := r.Get(newID)
	assert.True(t, ok)
}

func TestRegistryClose(t *testing.T) {
	r, _ := newRegistry(t, time.Hour, 10)

	_, a, err := r.Create(context.Background())
	require.NoError(t, err)
	_, b, err := r.Create(context.Background())
	require.NoError(t, err)

	r.Close()
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, r.Len())

	_, _, err = r.Create(context.Background())
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistryRunStopsWithContext(t *testing.T) {
	r, clock := newRegistry(t, time.Minute, 10)
	_, ctrl, err := r.Create(context.Background())
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx, 5*time.Millisecond); close(done) }()

	assert.Eventually(t, ctrl.Closed, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
