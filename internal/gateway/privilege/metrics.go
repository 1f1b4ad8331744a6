package privilege

import (
	"sync"
	"time"
)

// Metrics contains operational counters for elevation negotiation
type Metrics struct {
	mu              sync.RWMutex
	cacheHits       int64
	probeGrants     int64
	promptGrants    int64
	denials         int64
	totalPromptTime time.Duration
	maxPromptTime   time.Duration
	lastGrantTime   time.Time
	lastError       string
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	CacheHits         int64         `json:"cache_hits"`
	ProbeGrants       int64         `json:"probe_grants"`
	PromptGrants      int64         `json:"prompt_grants"`
	Denials           int64         `json:"denials"`
	AveragePromptTime time.Duration `json:"average_prompt_time"`
	MaxPromptTime     time.Duration `json:"max_prompt_time"`
	LastGrantTime     time.Time     `json:"last_grant_time"`
	LastError         string        `json:"last_error,omitempty"`
}

// RecordCacheHit records a request served from the cached grant
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cacheHits++
}

// RecordProbeGrant records a grant obtained from the non-interactive probe
func (m *Metrics) RecordProbeGrant(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.probeGrants++
	m.lastGrantTime = at
}

// RecordPromptGrant records a grant obtained from the interactive prompt
func (m *Metrics) RecordPromptGrant(at time.Time, waited time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.promptGrants++
	m.lastGrantTime = at
	m.totalPromptTime += waited
	if waited > m.maxPromptTime {
		m.maxPromptTime = waited
	}
}

// RecordDenial records a failed negotiation
func (m *Metrics) RecordDenial(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.denials++
	if err != nil {
		m.lastError = err.Error()
	}
}

// GetSnapshot returns a thread-safe copy of the current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		CacheHits:     m.cacheHits,
		ProbeGrants:   m.probeGrants,
		PromptGrants:  m.promptGrants,
		Denials:       m.denials,
		MaxPromptTime: m.maxPromptTime,
		LastGrantTime: m.lastGrantTime,
		LastError:     m.lastError,
	}
	if m.promptGrants > 0 {
		snapshot.AveragePromptTime = m.totalPromptTime / time.Duration(m.promptGrants)
	}
	return snapshot
}
