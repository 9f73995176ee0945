// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the feature pipeline.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) for counters and timing data.
//   - It keeps a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the registration pattern used by the storage package: the
//     rest of the codebase depends only on this interface, with concrete
//     metric systems isolated in subpackages.
//
// The primary use case is instrumenting pipeline stages (fetch, parse, fit,
// transform, load) without coupling core logic to a specific metrics system.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g.
	// Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing
// backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency plus success/failure for one pipeline step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("feateng_step_total", 1, lbls)
	backend.ObserveHistogram("feateng_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job and kind.
//
// Typical kinds mirror the run summary fields:
//   - "parsed"
//   - "skipped"
//   - "written"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("feateng_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordFeatures counts derived feature columns emitted for a job.
func RecordFeatures(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("feateng_features_total", float64(delta), Labels{
		"job": job,
	})
}
