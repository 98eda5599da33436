// Package health runs the periodic session checks: traffic rate
// updates, the idle-connection watchdog and host resource sampling.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/metrics"
	"github.com/manawire-project/manawire/internal/network"
	"github.com/manawire-project/manawire/internal/util"
)

// Target is the session state the checks operate on.
type Target interface {
	Counters() *metrics.Counters
	Registry() *network.ConnectionRegistry
}

// Manager runs periodic health checks.
type Manager struct {
	cfg      *config.Config
	eventBus *events.EventBus
	target   Target
	logger   zerolog.Logger

	mu        sync.RWMutex
	resources util.ResourceUsage
	lastIdle  time.Time
}

// NewManager creates a health check manager. eventBus may be nil.
func NewManager(cfg *config.Config, eventBus *events.EventBus, target Target) *Manager {
	return &Manager{
		cfg:      cfg,
		eventBus: eventBus,
		target:   target,
		logger:   util.ComponentLogger("health"),
	}
}

// Start runs every check on its own ticker until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	n := m.cfg.GetNetwork()
	interval := time.Duration(n.HealthIntervalSec) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	checks := []struct {
		name     string
		interval time.Duration
		fn       func(context.Context)
	}{
		{"counters", time.Second, m.updateCounters},
		{"idle_connections", interval, m.checkIdle},
		{"resources", interval, m.sampleResources},
	}

	var wg sync.WaitGroup
	for _, check := range checks {
		check := check
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(check.interval)
			defer ticker.Stop()

			check.fn(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					check.fn(ctx)
				}
			}
		}()
	}

	m.logger.Info().Int("checks", len(checks)).Msg("health check manager started")
	<-ctx.Done()
	wg.Wait()
	m.logger.Info().Msg("health check manager stopped")
}

func (m *Manager) updateCounters(context.Context) {
	m.target.Counters().Update(time.Now())
}

// checkIdle disconnects connections that received nothing within the
// idle timeout. A zero timeout disables the check.
func (m *Manager) checkIdle(ctx context.Context) {
	timeout := time.Duration(m.cfg.GetNetwork().IdleTimeoutSec) * time.Second
	if timeout <= 0 {
		return
	}
	removed := m.target.Registry().CleanStale(timeout)
	if removed == 0 {
		return
	}

	m.mu.Lock()
	m.lastIdle = time.Now()
	m.mu.Unlock()

	m.logger.Warn().Int("connections", removed).Dur("timeout", timeout).Msg("idle connections closed")
	if m.eventBus != nil {
		m.eventBus.Emit(ctx, events.Event{
			Type:   events.EventNotify,
			Source: "health",
			Payload: events.NotifyPayload{
				Kind:  "idle_disconnect",
				Text:  fmt.Sprintf("Disconnected %d idle connection(s).", removed),
				Level: "warning",
			},
		})
	}
}

func (m *Manager) sampleResources(context.Context) {
	usage, err := util.GetResourceUsage()
	if err != nil {
		m.logger.Debug().Err(err).Msg("resource sample incomplete")
	}
	m.mu.Lock()
	m.resources = usage
	m.mu.Unlock()

	m.logger.Trace().
		Float64("cpu", usage.CPUPercent).
		Float64("memory", usage.MemoryPercent).
		Uint64("rss_mb", usage.ProcessRSS).
		Msg("resource sample")
}

// Resources returns the most recent resource sample.
func (m *Manager) Resources() util.ResourceUsage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resources
}

// LastIdleDisconnect returns when the watchdog last closed a connection.
func (m *Manager) LastIdleDisconnect() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastIdle
}
