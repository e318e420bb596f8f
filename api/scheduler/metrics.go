package scheduler

import (
	"sync"
	"time"
)

// Metrics counts scheduler runs and per-case outcomes since start
type Metrics struct {
	mu             sync.Mutex
	runsStarted    int64
	runsSkipped    int64
	runsFailed     int64
	runsCompleted  int64
	casesSucceeded int64
	casesFailed    int64
	lastRunID      string
	lastDuration   time.Duration
}

// MetricsSnapshot is a copy of the counters safe to serialize
type MetricsSnapshot struct {
	RunsStarted     int64  `json:"runsStarted"`
	RunsSkipped     int64  `json:"runsSkipped"`
	RunsFailed      int64  `json:"runsFailed"`
	RunsCompleted   int64  `json:"runsCompleted"`
	CasesSucceeded  int64  `json:"casesSucceeded"`
	CasesFailed     int64  `json:"casesFailed"`
	LastRunID       string `json:"lastRunId,omitempty"`
	LastRunDuration string `json:"lastRunDuration,omitempty"`
}

func (m *Metrics) runStarted() {
	m.mu.Lock()
	m.runsStarted++
	m.mu.Unlock()
}

func (m *Metrics) runSkipped() {
	m.mu.Lock()
	m.runsSkipped++
	m.mu.Unlock()
}

func (m *Metrics) runFailed() {
	m.mu.Lock()
	m.runsFailed++
	m.mu.Unlock()
}

func (m *Metrics) runCompleted(r *RunReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runsCompleted++
	m.casesSucceeded += int64(r.Succeeded())
	m.casesFailed += int64(r.Failed())
	m.lastRunID = r.RunID
	m.lastDuration = r.FinishedAt.Sub(r.StartedAt)
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{
		RunsStarted:    m.runsStarted,
		RunsSkipped:    m.runsSkipped,
		RunsFailed:     m.runsFailed,
		RunsCompleted:  m.runsCompleted,
		CasesSucceeded: m.casesSucceeded,
		CasesFailed:    m.casesFailed,
		LastRunID:      m.lastRunID,
	}
	if m.lastRunID != "" {
		snap.LastRunDuration = m.lastDuration.String()
	}
	return snap
}
