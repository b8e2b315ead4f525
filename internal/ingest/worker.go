// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package ingest contains the ingestion worker that classifies and
// routes raw pub/sub messages. Transport callbacks only enqueue; all
// parsing and routing happens on the worker goroutine so a slow store
// or a burst of traffic never blocks the subscriber.
package ingest

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tomtom215/camwatch/internal/event"
	"github.com/tomtom215/camwatch/internal/logging"
	"github.com/tomtom215/camwatch/internal/metrics"
	"github.com/tomtom215/camwatch/internal/queue"
	"github.com/tomtom215/camwatch/internal/readmodel"
)

// Message is a raw inbound pub/sub message.
type Message struct {
	Subject string
	Payload []byte
}

// EventSink receives parsed events for persistence.
type EventSink interface {
	Enqueue(e *event.CameraEvent) error
}

// SessionController is the slice of the session manager the control
// path needs.
type SessionController interface {
	Connect(cameraType string) error
	Disconnect()
}

// Worker drains the ingestion queue. Malformed payloads are logged and
// dropped; this is an event feed, not a transaction log, and a replayed
// parse failure would fail identically.
type Worker struct {
	q    *queue.Queue[Message]
	ser  *event.Serializer
	rm   *readmodel.ReadModel
	sink EventSink
	ctrl SessionController

	// onCameraStatus surfaces camera liveness reports to the
	// presentation layer. May be nil.
	onCameraStatus func(cameraType string, payload []byte)

	cancel  context.CancelFunc
	doneCh  chan struct{}
	running atomic.Bool

	processed atomic.Uint64
	dropped   atomic.Uint64
}

// NewWorker creates an ingestion worker. ctrl and onCameraStatus may be
// nil when no session manager or front end is attached.
func NewWorker(
	q *queue.Queue[Message],
	rm *readmodel.ReadModel,
	sink EventSink,
	ctrl SessionController,
	onCameraStatus func(cameraType string, payload []byte),
) *Worker {
	return &Worker{
		q:              q,
		ser:            event.NewSerializer(),
		rm:             rm,
		sink:           sink,
		ctrl:           ctrl,
		onCameraStatus: onCameraStatus,
	}
}

// Enqueue puts a raw message on the ingestion queue without blocking.
// Safe to call from transport callbacks.
func (w *Worker) Enqueue(msg Message) error {
	return w.q.Push(msg)
}

// Start launches the worker goroutine. Idempotent.
func (w *Worker) Start() {
	if w.running.Swap(true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	go w.consumeLoop(ctx)

	logging.Info().Msg("Ingestion worker started")
}

// Stop terminates the worker and waits for the loop to exit. Stopping
// takes priority over draining: messages still queued are dropped and
// will redeliver from the broker's durable stream. Idempotent.
func (w *Worker) Stop() {
	if !w.running.Swap(false) {
		return
	}
	w.cancel()
	<-w.doneCh

	logging.Info().
		Uint64("processed", w.processed.Load()).
		Uint64("dropped", w.dropped.Load()).
		Int("unprocessed", w.q.Len()).
		Msg("Ingestion worker stopped")
}

// IsRunning reports whether the consume loop is active.
func (w *Worker) IsRunning() bool {
	return w.running.Load()
}

// Stats returns the processed and dropped message counts.
func (w *Worker) Stats() (processed, dropped uint64) {
	return w.processed.Load(), w.dropped.Load()
}

func (w *Worker) consumeLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		// Stop wins over queued work.
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := w.q.Pop(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, queue.ErrClosed) {
				logging.Err(err).Msg("Ingestion queue pop failed")
			}
			return
		}

		w.handle(msg)
	}
}

func (w *Worker) handle(msg Message) {
	kind, cameraType := event.Classify(msg.Subject)

	switch kind {
	case event.KindEvent:
		w.handleEvent(msg)
	case event.KindAlert:
		w.handleAlert(msg, cameraType)
	case event.KindStatus:
		w.handleStatus(msg, cameraType)
	case event.KindControl:
		w.handleControl(msg)
	default:
		w.dropped.Add(1)
		logging.Debug().Str("subject", msg.Subject).Msg("Unhandled subject, dropping")
	}
}

// handleEvent parses a motion event and feeds it to the read model and
// the persistence sink. The payload names the camera; wildcard
// subscriptions carry no usable camera token in the subject.
func (w *Worker) handleEvent(msg Message) {
	e, err := w.ser.DeserializeEvent(msg.Payload)
	if err != nil {
		w.dropped.Add(1)
		metrics.EventsMalformed.Inc()
		logging.Warn().Err(err).
			Str("subject", msg.Subject).
			Msg("Malformed event payload, dropping")
		return
	}

	metrics.EventsIngested.WithLabelValues("event").Inc()

	// Cache first so the display updates ahead of the batch writer.
	w.rm.Prepend(e)
	if err := w.sink.Enqueue(e); err != nil {
		logging.Err(err).Str("camera", e.CameraType).Msg("Persistence enqueue failed")
	}
	w.processed.Add(1)
}

// handleAlert surfaces a camera alert at elevated severity. Alerts
// update the presentation status only; they are never persisted and
// never touch the event counters.
func (w *Worker) handleAlert(msg Message, cameraType string) {
	metrics.EventsIngested.WithLabelValues("alert").Inc()
	logging.Warn().
		Str("camera", cameraType).
		Int("bytes", len(msg.Payload)).
		Msg("Camera alert")

	if w.onCameraStatus != nil {
		w.onCameraStatus(cameraType, msg.Payload)
	}
	w.processed.Add(1)
}

func (w *Worker) handleStatus(msg Message, cameraType string) {
	metrics.EventsIngested.WithLabelValues("status").Inc()
	logging.Debug().
		Str("camera", cameraType).
		Int("bytes", len(msg.Payload)).
		Msg("Camera status report")

	if w.onCameraStatus != nil {
		w.onCameraStatus(cameraType, msg.Payload)
	}
	w.processed.Add(1)
}

func (w *Worker) handleControl(msg Message) {
	ctrl, err := w.ser.DeserializeControl(msg.Payload)
	if err != nil {
		w.dropped.Add(1)
		metrics.EventsMalformed.Inc()
		logging.Warn().Err(err).Msg("Malformed control payload, dropping")
		return
	}

	metrics.EventsIngested.WithLabelValues("control").Inc()
	if w.ctrl == nil {
		logging.Warn().Str("action", ctrl.Action).Msg("Control message but no session manager attached")
		return
	}

	switch ctrl.Action {
	case event.ActionConnect:
		if err := w.ctrl.Connect(ctrl.Camera); err != nil {
			logging.Err(err).Str("camera", ctrl.Camera).Msg("Control connect failed")
		}
	case event.ActionDisconnect:
		w.ctrl.Disconnect()
	}
	w.processed.Add(1)
}
