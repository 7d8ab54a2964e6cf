// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package metrics exposes engine counters and gauges through Prometheus.
//
// All Recorder methods are safe on a nil receiver, so components record
// unconditionally and hosts opt in by passing a Recorder.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "slidecanvas"

// Recorder holds the engine's collectors.
type Recorder struct {
	Passes       prometheus.Counter
	Operations   *prometheus.CounterVec
	Failures     prometheus.Counter
	StaleLoads   prometheus.Counter
	ImageLoads   *prometheus.CounterVec
	ImageLatency prometheus.Histogram
	EditEvents   *prometheus.CounterVec
	FrameRate    *prometheus.GaugeVec
	Degraded     *prometheus.GaugeVec
	Generation   *prometheus.GaugeVec
	Surfaces     prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		Passes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_passes_total",
			Help:      "Reconciliation passes run.",
		}),
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_operations_total",
			Help:      "Structural display object operations by kind.",
		}, []string{"op"}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_failures_total",
			Help:      "Reconciliation passes that failed.",
		}),
		StaleLoads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_completions_total",
			Help:      "Async completions discarded for a stale surface generation.",
		}),
		ImageLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_loads_total",
			Help:      "Image loads by source scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		ImageLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_load_seconds",
			Help:      "Image fetch and decode latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		EditEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edit_events_total",
			Help:      "Manipulation events by outcome.",
		}, []string{"outcome"}),
		FrameRate: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_rate",
			Help:      "Frames per second over the rolling window.",
		}, []string{"mount"}),
		Degraded: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "degraded",
			Help:      "1 while rendering is degraded.",
		}, []string{"mount"}),
		Generation: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "surface_generation",
			Help:      "Current surface generation per mount.",
		}, []string{"mount"}),
		Surfaces: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_surfaces",
			Help:      "Live surfaces.",
		}),
	}
}

// Pass records one reconciliation pass and its operation counts.
func (r *Recorder) Pass(created, updated, moved, removed int) {
	if r == nil {
		return
	}
	r.Passes.Inc()
	r.Operations.WithLabelValues("create").Add(float64(created))
	r.Operations.WithLabelValues("update").Add(float64(updated))
	r.Operations.WithLabelValues("move").Add(float64(moved))
	r.Operations.WithLabelValues("remove").Add(float64(removed))
}

// Failure records a failed pass.
func (r *Recorder) Failure() {
	if r == nil {
		return
	}
	r.Failures.Inc()
}

// Stale records a discarded async completion.
func (r *Recorder) Stale() {
	if r == nil {
		return
	}
	r.StaleLoads.Inc()
}

// ImageLoad records an image load outcome.
func (r *Recorder) ImageLoad(scheme string, ok bool, seconds float64) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.ImageLoads.WithLabelValues(scheme, outcome).Inc()
	r.ImageLatency.Observe(seconds)
}

// Edit records a manipulation event outcome ("applied", "dropped",
// "rejected").
func (r *Recorder) Edit(outcome string) {
	if r == nil {
		return
	}
	r.EditEvents.WithLabelValues(outcome).Inc()
}

// Frames records the measured frame rate and degrade state of a mount.
func (r *Recorder) Frames(mount string, fps float64, degraded bool) {
	if r == nil {
		return
	}
	r.FrameRate.WithLabelValues(mount).Set(fps)
	v := 0.0
	if degraded {
		v = 1
	}
	r.Degraded.WithLabelValues(mount).Set(v)
}

// SurfaceGeneration records the generation of a mount.
func (r *Recorder) SurfaceGeneration(mount string, gen uint64) {
	if r == nil {
		return
	}
	r.Generation.WithLabelValues(mount).Set(float64(gen))
}

// SurfaceAcquired increments the live surface gauge.
func (r *Recorder) SurfaceAcquired() {
	if r == nil {
		return
	}
	r.Surfaces.Inc()
}

// SurfaceDisposed decrements the live surface gauge.
func (r *Recorder) SurfaceDisposed() {
	if r == nil {
		return
	}
	r.Surfaces.Dec()
}

// Forget drops per-mount series when a mount goes away.
func (r *Recorder) Forget(mount string) {
	if r == nil {
		return
	}
	r.FrameRate.DeleteLabelValues(mount)
	r.Degraded.DeleteLabelValues(mount)
	r.Generation.DeleteLabelValues(mount)
}
