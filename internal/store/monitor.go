package store

import (
	"context"
	"sync/atomic"
	"time"

	"folio/api/internal/logging"
)

// Pinger reports whether a backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks whether the remote store is reachable. The flag is read on
// every request and refreshed by Run.
type Monitor struct {
	pinger    Pinger
	interval  time.Duration
	timeout   time.Duration
	onRecover func(ctx context.Context) error
	available atomic.Bool
}

// NewMonitor builds a monitor. onRecover, when set, runs on the first
// successful ping and after every outage; the store only counts as
// available once it succeeds.
func NewMonitor(p Pinger, interval time.Duration, onRecover func(ctx context.Context) error) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{pinger: p, interval: interval, timeout: 5 * time.Second, onRecover: onRecover}
}

func (m *Monitor) Available() bool {
	return m.available.Load()
}

// Check probes once and returns the new availability.
func (m *Monitor) Check(ctx context.Context) bool {
	logger := logging.New("store")
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.pinger.Ping(probeCtx); err != nil {
		if m.available.Swap(false) {
			logger.Warn("remote store unavailable", "error", err)
		}
		return false
	}
	if m.available.Load() {
		return true
	}
	if m.onRecover != nil {
		if err := m.onRecover(ctx); err != nil {
			logger.Error("remote store recovery failed", "error", err)
			return false
		}
	}
	m.available.Store(true)
	logger.Info("remote store available")
	return true
}

// Run checks immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
