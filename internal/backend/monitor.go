package backend

import (
	"context"
	"log"
	"sync"
	"time"
)

// Health states reported by the monitor.
const (
	HealthUnknown  = "unknown"
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// HealthStatus is a snapshot of the last connectivity check.
type HealthStatus struct {
	Status    string     `json:"status"`
	LastCheck *time.Time `json:"last_check,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Monitor probes the backend connection periodically. A probe is a
// row-count HEAD request on the products table; no data is transferred.
type Monitor struct {
	client *Client

	mu        sync.Mutex
	status    string
	lastCheck time.Time
	lastErr   error
}

func NewMonitor(client *Client) *Monitor {
	return &Monitor{client: client, status: HealthUnknown}
}

// Check probes the backend once, retrying with backoff before declaring
// the connection degraded.
func (m *Monitor) Check(ctx context.Context) error {
	err := Retry(ctx, func() error {
		_, countErr := m.client.From("produtos").Count(ctx)
		return countErr
	})

	m.mu.Lock()
	m.lastCheck = time.Now()
	m.lastErr = err
	if err != nil {
		m.status = HealthDegraded
	} else {
		m.status = HealthHealthy
	}
	m.mu.Unlock()

	if err != nil {
		log.Printf("WARN: backend degraded: %v", err)
	}
	return err
}

// Run repeats Check until the context is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx) //nolint:errcheck
		}
	}
}

// Status returns a snapshot for the health endpoint.
func (m *Monitor) Status() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	hs := HealthStatus{Status: m.status}
	if !m.lastCheck.IsZero() {
		t := m.lastCheck
		hs.LastCheck = &t
	}
	if m.lastErr != nil {
		hs.Error = m.lastErr.Error()
	}
	return hs
}
