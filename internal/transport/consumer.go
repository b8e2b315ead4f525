// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package transport

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/camwatch/internal/event"
	"github.com/tomtom215/camwatch/internal/ingest"
)

// SubjectPatterns are the subscriptions this client consumes. Camera
// subjects are wildcards: the concrete camera is identified by the
// payload, not the subject, so a new camera needs no client change.
var SubjectPatterns = []string{
	"camera.*.events",
	"camera.*.status",
	"camera.*.alert",
	event.ControlSubject,
}

// MessageSink receives raw messages off the wire. Enqueue must not
// block; the ingestion worker owns all processing.
type MessageSink interface {
	Enqueue(msg ingest.Message) error
}

// Consumer subscribes to all camera subjects and hands messages to the
// ingestion queue. Messages are acked once enqueued: from the broker's
// point of view delivery succeeded, and the queue owns them from there.
type Consumer struct {
	sub    *Subscriber
	sink   MessageSink
	logger watermill.LoggerAdapter

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	received atomic.Uint64
}

// NewConsumer creates a consumer feeding the given sink.
func NewConsumer(sub *Subscriber, sink MessageSink, logger watermill.LoggerAdapter) *Consumer {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return &Consumer{
		sub:    sub,
		sink:   sink,
		logger: logger,
	}
}

// Start subscribes to every subject pattern and launches one pump
// goroutine per subscription. Idempotent.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for _, pattern := range SubjectPatterns {
		messages, err := c.sub.Subscribe(runCtx, pattern)
		if err != nil {
			cancel()
			c.running.Store(false)
			return fmt.Errorf("subscribe %s: %w", pattern, err)
		}

		c.wg.Add(1)
		go c.pump(runCtx, pattern, messages)
	}

	c.logger.Info("Consumer started", watermill.LogFields{
		"patterns": len(SubjectPatterns),
	})
	return nil
}

// pump moves messages from one subscription into the sink.
func (c *Consumer) pump(ctx context.Context, pattern string, messages <-chan *message.Message) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.received.Add(1)

			err := c.sink.Enqueue(ingest.Message{
				Subject: pattern,
				Payload: msg.Payload,
			})
			if err != nil {
				// Queue closed: shutting down. Nack so the broker
				// redelivers on the next run.
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}

// Shutdown stops the pumps and closes the subscriber. Idempotent.
func (c *Consumer) Shutdown(ctx context.Context) error {
	if !c.running.Swap(false) {
		return nil
	}
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("consumer shutdown: %w", ctx.Err())
	}

	return c.sub.Close()
}

// IsRunning reports whether the pumps are active.
func (c *Consumer) IsRunning() bool {
	return c.running.Load()
}

// Received returns the number of messages taken off the wire.
func (c *Consumer) Received() uint64 {
	return c.received.Load()
}
