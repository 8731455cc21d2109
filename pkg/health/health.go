// Package health serves liveness and readiness probes.
//
// Checks run in the background on a fixed interval. A check flips to
// unhealthy only after failureThreshold consecutive failures and back to
// healthy after successThreshold consecutive successes, so a single slow
// storage round trip does not take the storefront out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports whether a component is healthy.
type CheckFunc func(ctx context.Context) error

// Thresholds controls when a check changes state.
type Thresholds struct {
	Failure int
	Success int
}

// DefaultThresholds are applied to checks registered without explicit ones.
var DefaultThresholds = Thresholds{Failure: 3, Success: 1}

// check is the state of one registered check. run is only ever called from
// the goroutine that owns the check, so the counters need no locking; the
// outcome is published through atomics for the HTTP handlers.
type check struct {
	name       string
	timeout    time.Duration
	fn         CheckFunc
	thresholds Thresholds

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails, oks int
}

func newCheck(name string, timeout time.Duration, fn CheckFunc, th Thresholds) *check {
	c := &check{name: name, timeout: timeout, fn: fn, thresholds: th}
	c.healthy.Store(true)
	return c
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= c.thresholds.Failure {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.oks++
	if c.oks >= c.thresholds.Success {
		c.healthy.Store(true)
	}
}

// failure returns the reason c is unhealthy, or "" when it is healthy.
func (c *check) failure() string {
	if c.healthy.Load() {
		return ""
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error()
	}
	return "check is unhealthy"
}

// group is a set of checks answering one probe.
type group struct {
	mu     sync.RWMutex
	checks []*check
}

func (g *group) add(c *check) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks = append(g.checks, c)
}

func (g *group) snapshot() []*check {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*check(nil), g.checks...)
}

func (g *group) failures() map[string]string {
	out := make(map[string]string)
	for _, c := range g.snapshot() {
		if reason := c.failure(); reason != "" {
			out[c.name] = reason
		}
	}
	return out
}

// Health owns the liveness and readiness probes of a service.
type Health struct {
	ready     atomic.Bool
	liveness  group
	readiness group

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true) is called.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check answering whether the process works at all.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.liveness.add(newCheck(name, timeout, fn, DefaultThresholds))
}

// AddReadinessCheck registers a check answering whether the service can take
// traffic, e.g. whether cart storage is reachable.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.AddReadinessCheckWithThresholds(name, timeout, fn, DefaultThresholds)
}

// AddReadinessCheckWithThresholds is AddReadinessCheck with custom thresholds.
func (h *Health) AddReadinessCheckWithThresholds(name string, timeout time.Duration, fn CheckFunc, th Thresholds) {
	h.readiness.add(newCheck(name, timeout, fn, th))
}

// Start runs every registered check every interval until Stop is called or
// ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = cancel
	h.mu.Unlock()

	checks := append(h.liveness.snapshot(), h.readiness.snapshot()...)
	for _, c := range checks {
		go loop(ctx, c, interval)
	}
}

func loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels the background checks. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the service as (not) ready. Servers set it once startup is
// done and clear it when shutdown begins.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.readiness.failures()) == 0
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.liveness.failures())
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.readiness.failures()
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// writeStatus responds 200 {"status":"ok"} or 503 with the failing checks.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	var e jx.Encoder
	status := http.StatusOK
	e.Obj(func(e *jx.Encoder) {
		if len(failures) == 0 {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			return
		}
		status = http.StatusServiceUnavailable
		e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })
		e.Field("checks", func(e *jx.Encoder) {
			names := make([]string, 0, len(failures))
			for name := range failures {
				names = append(names, name)
			}
			sort.Strings(names)
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failures[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; a failed body write means the client left.
	_, _ = w.Write(e.Bytes())
}
