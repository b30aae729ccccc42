// Package health implements periodic health check monitoring for
// teracodecd's subsystems. main registers checks for the schema registry,
// the schema directory and, when enabled, the telemetry connection; the
// audit store is not checked.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/teracodec-project/teracodec/internal/events"
	"github.com/teracodec-project/teracodec/internal/util"
)

var log = util.ComponentLogger("health")

// CheckFunc performs one health check, returning a non-nil error if the
// subsystem is unhealthy.
type CheckFunc func(ctx context.Context) error

// Result is the most recently observed outcome of one named check.
type Result struct {
	Name      string    `json:"name"`
	OK        bool      `json:"ok"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type registeredCheck struct {
	name     string
	interval time.Duration
	fn       CheckFunc
}

// Manager runs periodic health checks and keeps the latest result for
// each one, queryable synchronously by the debug API's /api/health route.
type Manager struct {
	eventBus *events.EventBus

	mu      sync.RWMutex
	checks  []registeredCheck
	results map[string]Result
}

// NewManager creates a health check manager. Register checks with
// Register before calling Start.
func NewManager(eventBus *events.EventBus) *Manager {
	return &Manager{
		eventBus: eventBus,
		results:  make(map[string]Result),
	}
}

// Register adds a named check that will be run immediately on Start and
// then every interval. interval <= 0 disables periodic re-running but
// the check still participates in RunNow.
func (m *Manager) Register(name string, interval time.Duration, fn CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, registeredCheck{name: name, interval: interval, fn: fn})
}

// Start launches one ticker goroutine per registered check and blocks
// until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.RLock()
	checks := append([]registeredCheck(nil), m.checks...)
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range checks {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.run(ctx, c)

			if c.interval <= 0 {
				return
			}
			ticker := time.NewTicker(c.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					m.run(ctx, c)
				}
			}
		}()
	}

	log.Info().Int("checks", len(checks)).Msg("health check manager started")
	<-ctx.Done()
	wg.Wait()
	log.Info().Msg("health check manager stopped")
}

func (m *Manager) run(ctx context.Context, c registeredCheck) {
	res := Result{Name: c.name, CheckedAt: time.Now()}
	if err := c.fn(ctx); err != nil {
		res.OK = false
		res.Message = err.Error()
		log.Warn().Str("check", c.name).Err(err).Msg("health check failed")
	} else {
		res.OK = true
	}

	m.mu.Lock()
	m.results[c.name] = res
	m.mu.Unlock()
}

// Snapshot returns the most recently observed result for every
// registered check, without running anything.
func (m *Manager) Snapshot() []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Result, 0, len(m.checks))
	for _, c := range m.checks {
		if r, ok := m.results[c.name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// RunNow synchronously executes every registered check and returns the
// fresh results, used by /api/health so callers don't have to wait for
// the next ticker tick.
func (m *Manager) RunNow(ctx context.Context) []Result {
	m.mu.RLock()
	checks := append([]registeredCheck(nil), m.checks...)
	m.mu.RUnlock()

	for _, c := range checks {
		m.run(ctx, c)
	}
	return m.Snapshot()
}

// Healthy reports whether every known check last reported OK.
func (m *Manager) Healthy() bool {
	for _, r := range m.Snapshot() {
		if !r.OK {
			return false
		}
	}
	return true
}
