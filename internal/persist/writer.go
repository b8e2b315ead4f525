// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package persist contains the batch writer that drains the persistence
// queue into the durable store.
package persist

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/camwatch/internal/event"
	"github.com/tomtom215/camwatch/internal/logging"
	"github.com/tomtom215/camwatch/internal/metrics"
	"github.com/tomtom215/camwatch/internal/queue"
	"github.com/tomtom215/camwatch/internal/store"
)

// insertTimeout bounds a single store insert. Detached from the worker
// context so an in-flight batch completes during shutdown.
const insertTimeout = 10 * time.Second

// Config holds batch writer tuning.
type Config struct {
	// BatchSize is the maximum number of events drained per pass.
	BatchSize int

	// WriteDelay is the pause between passes. It yields the store to
	// readers so a burst of events cannot starve the display queries.
	WriteDelay time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:  10,
		WriteDelay: 100 * time.Millisecond,
	}
}

// Writer drains the persistence queue into the store in bounded batches.
//
// Each event is inserted individually: a failing insert is logged and
// skipped, never retried, so one poisoned event cannot wedge the queue.
// After every successful insert the notify callback fires, letting the
// read model refresh while later events are still queued.
type Writer struct {
	q      *queue.Queue[*event.CameraEvent]
	st     store.EventStore
	cfg    Config
	notify func()

	cancel  context.CancelFunc
	doneCh  chan struct{}
	running atomic.Bool

	eventsWritten atomic.Uint64
	eventsFailed  atomic.Uint64
}

// NewWriter creates a batch writer. notify may be nil; when set it is
// called after each successful insert (wired to the UI dispatcher).
func NewWriter(q *queue.Queue[*event.CameraEvent], st store.EventStore, cfg Config, notify func()) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.WriteDelay < 0 {
		cfg.WriteDelay = DefaultConfig().WriteDelay
	}
	return &Writer{
		q:      q,
		st:     st,
		cfg:    cfg,
		notify: notify,
	}
}

// Enqueue puts an event on the persistence queue without blocking.
func (w *Writer) Enqueue(e *event.CameraEvent) error {
	return w.q.Push(e)
}

// Start launches the writer goroutine. Idempotent.
func (w *Writer) Start() {
	if w.running.Swap(true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	go w.writeLoop(ctx)

	logging.Info().
		Int("batch_size", w.cfg.BatchSize).
		Dur("write_delay", w.cfg.WriteDelay).
		Msg("Batch writer started")
}

// Stop terminates the writer and waits for the loop to exit. Events
// still queued are dropped; they remain on the broker's durable stream
// and redeliver on the next run. Idempotent.
func (w *Writer) Stop() {
	if !w.running.Swap(false) {
		return
	}
	w.cancel()
	<-w.doneCh

	logging.Info().
		Uint64("events_written", w.eventsWritten.Load()).
		Uint64("events_failed", w.eventsFailed.Load()).
		Int("events_dropped", w.q.Len()).
		Msg("Batch writer stopped")
}

// IsRunning reports whether the write loop is active.
func (w *Writer) IsRunning() bool {
	return w.running.Load()
}

// Stats returns the number of events written and failed so far.
func (w *Writer) Stats() (written, failed uint64) {
	return w.eventsWritten.Load(), w.eventsFailed.Load()
}

func (w *Writer) writeLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		first, err := w.q.Pop(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, queue.ErrClosed) {
				logging.Err(err).Msg("Persistence queue pop failed")
			}
			return
		}

		batch := make([]*event.CameraEvent, 0, w.cfg.BatchSize)
		batch = append(batch, first)
		for len(batch) < w.cfg.BatchSize {
			e, ok := w.q.TryPop()
			if !ok {
				break
			}
			batch = append(batch, e)
		}

		w.writeBatch(batch)
		metrics.BatchesWritten.Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.WriteDelay):
		}
	}
}

// writeBatch inserts each event individually. Per-event failures are
// logged and skipped; the rest of the batch still lands.
func (w *Writer) writeBatch(batch []*event.CameraEvent) {
	for _, e := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		err := w.st.InsertEvent(ctx, e)
		cancel()

		if err != nil {
			w.eventsFailed.Add(1)
			metrics.PersistFailures.Inc()
			logging.Err(err).
				Str("camera", e.CameraType).
				Str("timestamp", e.Timestamp).
				Msg("Event insert failed, skipping")
			continue
		}

		w.eventsWritten.Add(1)
		metrics.EventsPersisted.Inc()
		if w.notify != nil {
			w.notify()
		}
	}
}
