// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus collectors exported by sinks
// and live servers.
//
// A nil *Metrics is valid and records nothing, so components can be
// built without a registry in tests and embedded uses. Collectors are
// labelled by sink or server name; New is idempotent per registry, so
// several registries in one process may share a Prometheus registerer.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "telecap"

// Metrics holds every telecap collector.
type Metrics struct {
	written       *prometheus.CounterVec
	writeErrors   *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	queueDepth    *prometheus.GaugeVec
	flushDuration *prometheus.HistogramVec

	clients       *prometheus.GaugeVec
	framesSent    *prometheus.CounterVec
	framesDropped *prometheus.CounterVec
}

// New registers the collectors with registerer. A nil registerer
// returns nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		return nil
	}
	return &Metrics{
		written: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sink", Name: "messages_written_total",
			Help: "Messages handed to the container or live server.",
		}, []string{"sink", "kind"})),
		writeErrors: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sink", Name: "write_errors_total",
			Help: "Messages dropped because the container or live server rejected them.",
		}, []string{"sink"})),
		dropped: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sink", Name: "dropped_total",
			Help: "Samples dropped before reaching the writer, by reason.",
		}, []string{"sink", "reason"})),
		queueDepth: register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "sink", Name: "queue_depth",
			Help: "Items waiting for the sink worker.",
		}, []string{"sink"})),
		flushDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sink", Name: "flush_duration_seconds",
			Help:    "Time spent by the worker draining one batch.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"sink"})),
		clients: register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "live", Name: "clients",
			Help: "Connected viewer clients.",
		}, []string{"server"})),
		framesSent: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "live", Name: "frames_sent_total",
			Help: "Message frames queued to subscribed clients.",
		}, []string{"server"})),
		framesDropped: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "live", Name: "frames_dropped_total",
			Help: "Message frames dropped because a client send buffer was full.",
		}, []string{"server"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic("metrics: registering collector: " + err.Error())
	}
	return collector
}

// MessageWritten counts one message of kind ("file" or "network")
// written by sink.
func (m *Metrics) MessageWritten(sink, kind string) {
	if m == nil {
		return
	}
	m.written.WithLabelValues(sink, kind).Inc()
}

// WriteError counts one writer failure.
func (m *Metrics) WriteError(sink string) {
	if m == nil {
		return
	}
	m.writeErrors.WithLabelValues(sink).Inc()
}

// Dropped counts one sample dropped for reason.
func (m *Metrics) Dropped(sink, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(sink, reason).Inc()
}

// QueueDepth records the pending item count.
func (m *Metrics) QueueDepth(sink string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(sink).Set(float64(depth))
}

// ObserveFlush records the duration of one drain cycle.
func (m *Metrics) ObserveFlush(sink string, seconds float64) {
	if m == nil {
		return
	}
	m.flushDuration.WithLabelValues(sink).Observe(seconds)
}

// ForgetSink removes the per-sink series after the sink closes.
func (m *Metrics) ForgetSink(sink string) {
	if m == nil {
		return
	}
	m.queueDepth.DeleteLabelValues(sink)
}

// ClientConnected and ClientDisconnected track live viewers.
func (m *Metrics) ClientConnected(server string) {
	if m == nil {
		return
	}
	m.clients.WithLabelValues(server).Inc()
}

func (m *Metrics) ClientDisconnected(server string) {
	if m == nil {
		return
	}
	m.clients.WithLabelValues(server).Dec()
}

// FrameSent counts one frame queued to a client.
func (m *Metrics) FrameSent(server string) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(server).Inc()
}

// FrameDropped counts one frame dropped for a slow client.
func (m *Metrics) FrameDropped(server string) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(server).Inc()
}
