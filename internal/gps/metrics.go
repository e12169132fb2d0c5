// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors updated by cache loads and transactions.
type Metrics struct {
	runs       *prometheus.CounterVec
	failures   *prometheus.CounterVec
	steps      prometheus.Histogram
	phase      *prometheus.HistogramVec
	packages   prometheus.Gauge
	loadErrors prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smart",
			Name:      "transactions_total",
			Help:      "Transactions run, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smart",
			Name:      "request_failures_total",
			Help:      "Requests which could not be honored, by failure kind.",
		}, []string{"kind"}),
		steps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "smart",
			Name:      "transaction_steps",
			Help:      "Resolution steps taken per transaction.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		phase: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smart",
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each phase of loading and resolution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		packages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smart",
			Name:      "cache_packages",
			Help:      "Packages in the cache after the last load.",
		}),
		loadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smart",
			Name:      "cache_load_errors_total",
			Help:      "Cache load passes aborted by a loader error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.failures, m.steps, m.phase, m.packages, m.loadErrors)
	}
	return m
}

// phaseTimer attributes wall time to a stack of named phases. Time spent
// while a phase is on top of the stack is charged to that phase.
type phaseTimer struct {
	stack []string
	times map[string]time.Duration
	last  time.Time
}

func newPhaseTimer() *phaseTimer {
	return &phaseTimer{
		stack: []string{"other"},
		times: map[string]time.Duration{
			"other": 0,
		},
		last: time.Now(),
	}
}

func (t *phaseTimer) push(name string) {
	cn := t.stack[len(t.stack)-1]
	t.times[cn] = t.times[cn] + time.Since(t.last)

	t.stack = append(t.stack, name)
	t.last = time.Now()
}

func (t *phaseTimer) pop() {
	on := t.stack[len(t.stack)-1]
	t.times[on] = t.times[on] + time.Since(t.last)

	t.stack = t.stack[:len(t.stack)-1]
	t.last = time.Now()
}

// observe flushes the accumulated phase times into m.
func (t *phaseTimer) observe(m *Metrics) {
	if m == nil {
		return
	}
	for name, d := range t.times {
		m.phase.WithLabelValues(name).Observe(d.Seconds())
	}
}
