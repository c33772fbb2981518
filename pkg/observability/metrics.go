package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names.
const (
	MetricBookingTransitions = "booking.transitions"
	MetricBookingRejected    = "booking.transitions.rejected"
	MetricSweepRuns          = "booking.sweep.runs"
	MetricSweepCancelled     = "booking.sweep.auto_cancelled"
	MetricSweepElapsed       = "booking.sweep.elapsed"
	MetricSweepFailures      = "booking.sweep.failures"
	MetricSweepDuration      = "booking.sweep.duration"
	MetricHTTPRequests       = "http.requests"
	MetricHTTPDuration       = "http.duration"
)

// Tag is a metric dimension.
type Tag struct {
	Key   string
	Value string
}

// T builds a Tag.
func T(key, value string) Tag { return Tag{Key: key, Value: value} }

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, d time.Duration, tags ...Tag)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps values in maps keyed by name and sorted tags.
// It backs the /metrics endpoint and tests.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: map[string]int64{},
		gauges:   map[string]float64{},
		timings:  map[string][]time.Duration{},
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	m.counters[key(name, tags)] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	m.gauges[key(name, tags)] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, d time.Duration, tags ...Tag) {
	m.mu.Lock()
	k := key(name, tags)
	m.timings[k] = append(m.timings[k], d)
	m.mu.Unlock()
}

// CounterValue returns a counter.
func (m *InMemoryMetrics) CounterValue(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[key(name, tags)]
}

// Snapshot is a copy of all recorded values; timings are reported as counts
// and mean milliseconds.
type Snapshot struct {
	Counters map[string]int64   `json:"counters"`
	Gauges   map[string]float64 `json:"gauges"`
	Timings  map[string]Timing  `json:"timings"`
}

// Timing summarizes recorded durations.
type Timing struct {
	Count  int     `json:"count"`
	MeanMS float64 `json:"mean_ms"`
}

// Snapshot copies the current values.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timings:  make(map[string]Timing, len(m.timings)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for k, ds := range m.timings {
		var total time.Duration
		for _, d := range ds {
			total += d
		}
		t := Timing{Count: len(ds)}
		if len(ds) > 0 {
			t.MeanMS = float64(total.Microseconds()) / 1000 / float64(len(ds))
		}
		s.Timings[k] = t
	}
	return s
}

func key(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	var b strings.Builder
	b.WriteString(name)
	for _, t := range sorted {
		b.WriteString(",")
		b.WriteString(t.Key)
		b.WriteString("=")
		b.WriteString(t.Value)
	}
	return b.String()
}
