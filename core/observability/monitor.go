package observability

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor records per-route request counts, errors and latencies
type Monitor struct {
	handlers sync.Map // route name -> *HandlerMetrics
	global   struct {
		totalRequests atomic.Uint64
		totalErrors   atomic.Uint64
		totalDuration atomic.Uint64
	}
}

// HandlerMetrics stores per-route metrics
type HandlerMetrics struct {
	Name           string
	Count          atomic.Uint64
	Errors         atomic.Uint64
	TotalDuration  atomic.Uint64
	MinDuration    atomic.Uint64
	MaxDuration    atomic.Uint64
	latencyBuckets [len(bucketBounds) + 1]atomic.Uint64
}

// bucketBounds are the upper bounds of the latency histogram buckets
var bucketBounds = [...]time.Duration{
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	5 * time.Second,
	10 * time.Second,
}

// Stats is a point-in-time copy of HandlerMetrics
type Stats struct {
	Name    string
	Count   uint64
	Errors  uint64
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Buckets []uint64
}

// Bottleneck represents a performance issue
type Bottleneck struct {
	Type     string
	Location string
	Severity int
	Impact   float64
	Details  string
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordRequest records one request against a route name
func (m *Monitor) RecordRequest(name string, duration time.Duration, isError bool) {
	val, _ := m.handlers.LoadOrStore(name, &HandlerMetrics{Name: name})
	metrics := val.(*HandlerMetrics)

	metrics.Count.Add(1)
	if isError {
		metrics.Errors.Add(1)
		m.global.totalErrors.Add(1)
	}

	d := uint64(duration.Nanoseconds())
	metrics.TotalDuration.Add(d)
	updateMinMax(metrics, d)
	metrics.latencyBuckets[bucketFor(duration)].Add(1)

	m.global.totalRequests.Add(1)
	m.global.totalDuration.Add(d)
}

func updateMinMax(m *HandlerMetrics, d uint64) {
	for {
		min := m.MinDuration.Load()
		if min != 0 && d >= min {
			break
		}
		if m.MinDuration.CompareAndSwap(min, d) {
			break
		}
	}
	for {
		max := m.MaxDuration.Load()
		if d <= max {
			break
		}
		if m.MaxDuration.CompareAndSwap(max, d) {
			break
		}
	}
}

func bucketFor(d time.Duration) int {
	for i, bound := range bucketBounds {
		if d < bound {
			return i
		}
	}
	return len(bucketBounds)
}

// Stats returns a snapshot for a route name
func (m *Monitor) Stats(name string) (Stats, bool) {
	val, ok := m.handlers.Load(name)
	if !ok {
		return Stats{}, false
	}
	return snapshot(val.(*HandlerMetrics)), true
}

// All returns snapshots of every route, sorted by name
func (m *Monitor) All() []Stats {
	var all []Stats
	m.handlers.Range(func(_, value any) bool {
		all = append(all, snapshot(value.(*HandlerMetrics)))
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Totals returns global request and error counts
func (m *Monitor) Totals() (requests, errors uint64) {
	return m.global.totalRequests.Load(), m.global.totalErrors.Load()
}

func snapshot(h *HandlerMetrics) Stats {
	s := Stats{
		Name:    h.Name,
		Count:   h.Count.Load(),
		Errors:  h.Errors.Load(),
		Min:     time.Duration(h.MinDuration.Load()),
		Max:     time.Duration(h.MaxDuration.Load()),
		Buckets: make([]uint64, len(h.latencyBuckets)),
	}
	if s.Count > 0 {
		s.Avg = time.Duration(h.TotalDuration.Load() / s.Count)
	}
	for i := range h.latencyBuckets {
		s.Buckets[i] = h.latencyBuckets[i].Load()
	}
	return s
}

// Bottlenecks reports routes with high average latency or error rate
func (m *Monitor) Bottlenecks() []Bottleneck {
	bottlenecks := make([]Bottleneck, 0)

	for _, s := range m.All() {
		if s.Count == 0 {
			continue
		}

		// High latency
		if s.Avg > 100*time.Millisecond {
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:     "latency",
				Location: s.Name,
				Severity: 8,
				Impact:   100.0,
				Details:  fmt.Sprintf("High latency (%v avg)", s.Avg),
			})
		}

		// High error rate
		rate := float64(s.Errors) / float64(s.Count)
		if s.Errors > 0 && rate > 0.05 {
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:     "errors",
				Location: s.Name,
				Severity: 10,
				Impact:   rate * 100,
				Details:  fmt.Sprintf("%.1f%% error rate", rate*100),
			})
		}
	}

	return bottlenecks
}
