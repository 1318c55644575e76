// Package metrics provides performance instrumentation for treeview.
//
// Timing metrics cover the hot paths of the tree core: index rebuilds,
// search filtering and selection changes, plus data loading and rendering
// in the host. Collection is enabled by default but can be disabled via
// TREEVIEW_METRICS=0.
//
// Usage:
//
//	func (t *Treeview) Search(q string) error {
//	    defer metrics.Timer(metrics.SearchFilter)()
//	    // ...
//	}
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TREEVIEW_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates durations of one named operation. Safe for
// concurrent use: LoadAll records DataLoad from several goroutines.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64 // ns
	max   atomic.Int64 // ns
	min   atomic.Int64 // ns, 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)

	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

// Stats returns a snapshot of the metric.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.total.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: ms(total),
		AvgMs:   ms(avg),
		MaxMs:   ms(m.max.Load()),
		MinMs:   ms(m.min.Load()),
	}
}

func ms(ns int64) float64 { return float64(ns) / 1e6 }

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records elapsed time when called.
//
//	defer metrics.Timer(metrics.IndexBuild)()
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Global timing metrics.
var (
	IndexBuild      = newTimingMetric("index_build")
	SearchFilter    = newTimingMetric("search_filter")
	SelectionChange = newTimingMetric("selection_change")
	DataLoad        = newTimingMetric("data_load")
	UIRender        = newTimingMetric("ui_render")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{IndexBuild, SearchFilter, SelectionChange, DataLoad, UIRender}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for the metrics that have data.
func AllTimingStats() []TimingStats {
	all := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(all))
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// WriteTable prints AllTimingStats as an aligned table.
func WriteTable(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-18s %8s %10s %10s %10s\n", "metric", "count", "total ms", "avg ms", "max ms"); err != nil {
		return err
	}
	for _, s := range AllTimingStats() {
		if _, err := fmt.Fprintf(w, "%-18s %8d %10.2f %10.3f %10.3f\n", s.Name, s.Count, s.TotalMs, s.AvgMs, s.MaxMs); err != nil {
			return err
		}
	}
	return nil
}
