package monitoring

import (
	"fmt"
	"sync"
	"time"

	"video-kb/shared/logger"
)

// Ingest outcomes counted by RecordIngest.
const (
	OutcomeCreated       = "created"
	OutcomeDuplicate     = "duplicate"
	OutcomeUnprocessable = "unprocessable"
	OutcomeFailed        = "failed"
)

type IngestCounts struct {
	Created       int `json:"created"`
	Duplicate     int `json:"duplicate"`
	Unprocessable int `json:"unprocessable"`
	Failed        int `json:"failed"`
}

// Status is a point-in-time copy of the monitor state.
type Status struct {
	Healthy     bool         `json:"healthy"`
	LastRun     *time.Time   `json:"last_run,omitempty"`
	LastSummary string       `json:"last_summary,omitempty"`
	Summary     string       `json:"summary"`
	Ingested    IngestCounts `json:"ingested"`
	Uptime      string       `json:"uptime"`
}

// Monitor tracks run health and ingestion counts for the status endpoints.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	counts         IngestCounts
	startedAt      time.Time
	log            *logger.Logger
}

// NewMonitor returns a healthy monitor with no runs recorded.
func NewMonitor(log *logger.Logger) *Monitor {
	return &Monitor{startedAt: time.Now(), log: log}
}

// RecordSuccess marks the service healthy and stores the run summary.
func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	m.log.Info("Run completed successfully", "summary", summary, "duration", duration)
}

// RecordPartialFailure logs without changing health.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.log.Warn("Partial failure", "error", err, "duration", duration)
}

// RecordCriticalFailure marks the service unhealthy.
func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.log.Error("Critical failure", "error", err, "duration", duration)
}

// RecordIngest counts one ingestion outcome. Unknown outcomes count as failed.
func (m *Monitor) RecordIngest(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch outcome {
	case OutcomeCreated:
		m.counts.Created++
	case OutcomeDuplicate:
		m.counts.Duplicate++
	case OutcomeUnprocessable:
		m.counts.Unprocessable++
	default:
		m.counts.Failed++
	}
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isHealthy()
}

func (m *Monitor) isHealthy() bool {
	if m.lastRunTime.IsZero() {
		return true // No runs yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusSummary()
}

func (m *Monitor) statusSummary() string {
	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}

func (m *Monitor) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Status{
		Healthy:     m.isHealthy(),
		LastSummary: m.lastSummary,
		Summary:     m.statusSummary(),
		Ingested:    m.counts,
		Uptime:      time.Since(m.startedAt).Round(time.Second).String(),
	}
	if !m.lastRunTime.IsZero() {
		t := m.lastRunTime
		s.LastRun = &t
	}
	return s
}
