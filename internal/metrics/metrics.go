// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package metrics provides Prometheus instrumentation for the ingestion
// pipeline, the batch writer, and the session manager. Counters are
// registered on the default registry; an embedding process decides
// whether and where to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camwatch_events_ingested_total",
			Help: "Total number of messages accepted by the ingestion worker",
		},
		[]string{"kind"}, // "event", "status", "alert", "control"
	)

	EventsMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_events_malformed_total",
			Help: "Total number of payloads dropped because they failed to parse",
		},
	)

	// Persistence Metrics
	EventsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_events_persisted_total",
			Help: "Total number of events written to the durable store",
		},
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_persist_failures_total",
			Help: "Total number of events that failed to insert and were skipped",
		},
	)

	BatchesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_batches_written_total",
			Help: "Total number of persistence batches drained",
		},
	)

	// Session Metrics
	ConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camwatch_connect_attempts_total",
			Help: "Total number of stream connection attempts per outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	SessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camwatch_session_active",
			Help: "1 when a stream session is live, 0 otherwise",
		},
	)

	// Transport Metrics
	StatusPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_status_published_total",
			Help: "Total number of client status messages published",
		},
	)

	StatusPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_status_publish_errors_total",
			Help: "Total number of client status publish failures",
		},
	)
)
