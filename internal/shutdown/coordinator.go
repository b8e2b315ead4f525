// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package shutdown coordinates bounded, idempotent process teardown.
//
// The coordinator runs registered steps in order under a deadline. A
// hung step cannot wedge shutdown: when the deadline passes the process
// terminates forcibly. A second trigger while teardown is in progress
// (an impatient operator hitting Ctrl-C again) also terminates
// immediately instead of deadlocking.
package shutdown

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/camwatch/internal/logging"
)

// DefaultTimeout is the graceful shutdown deadline.
const DefaultTimeout = 5 * time.Second

// Step is one named teardown action. Steps run in registration order.
type Step struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Coordinator owns process teardown.
type Coordinator struct {
	timeout time.Duration
	steps   []Step

	// exit is os.Exit in production, replaceable in tests.
	exit func(code int)

	triggered atomic.Bool
	doneCh    chan struct{}
}

// New creates a coordinator with the given deadline. exit may be nil,
// defaulting to os.Exit.
func New(timeout time.Duration, exit func(code int)) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if exit == nil {
		exit = osExit
	}
	return &Coordinator{
		timeout: timeout,
		exit:    exit,
		doneCh:  make(chan struct{}),
	}
}

// Add registers a teardown step. Not safe to call after Trigger.
func (c *Coordinator) Add(name string, fn func(ctx context.Context) error) {
	c.steps = append(c.steps, Step{Name: name, Fn: fn})
}

// Trigger starts teardown and blocks until it completes or the deadline
// passes. The first call runs the steps; any later call, from any
// goroutine, forces immediate termination. Neither path deadlocks.
func (c *Coordinator) Trigger(reason string) {
	if c.triggered.Swap(true) {
		logging.Warn().Str("reason", reason).Msg("Shutdown already in progress, forcing exit")
		c.exit(1)
		return
	}

	logging.Info().
		Str("reason", reason).
		Dur("deadline", c.timeout).
		Msg("Shutdown starting")

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	go c.run(ctx)

	select {
	case <-c.doneCh:
		logging.Info().Msg("Shutdown complete")
	case <-ctx.Done():
		logging.Error().Dur("deadline", c.timeout).Msg("Shutdown deadline exceeded, forcing exit")
		c.exit(1)
	}
}

// Triggered reports whether shutdown has started.
func (c *Coordinator) Triggered() bool {
	return c.triggered.Load()
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.doneCh)

	for _, step := range c.steps {
		start := time.Now()
		if err := step.Fn(ctx); err != nil {
			logging.Err(err).Str("step", step.Name).Msg("Shutdown step failed")
			continue
		}
		logging.Debug().
			Str("step", step.Name).
			Dur("took", time.Since(start)).
			Msg("Shutdown step done")
	}
}
