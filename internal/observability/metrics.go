package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	authOutcomes map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		authOutcomes: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAuthOutcome counts terminal callback reconciliation states per flow.
// Provider faults and anonymous visitors share a redirect target, so the
// counter is the place the distinction survives.
func (m *Metrics) RecordAuthOutcome(flow, state string) {
	if m == nil {
		return
	}
	key := flow + "|" + state
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authOutcomes[key]++
}

// AuthOutcomeCount returns the counter for a flow/state pair.
func (m *Metrics) AuthOutcomeCount(flow, state string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authOutcomes[flow+"|"+state]
}
