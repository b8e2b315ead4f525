// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package ui is the presentation boundary. Camwatch itself is headless;
// a front end embeds the daemon and receives every cross-goroutine
// callback on a single dispatcher goroutine, the way GUI toolkits
// require updates marshaled onto their main loop.
package ui

import (
	"sync"
	"sync/atomic"

	"github.com/tomtom215/camwatch/internal/logging"
)

// StatusObserver receives human-readable connection status changes.
// Implementations run on the dispatcher goroutine and must not block.
type StatusObserver interface {
	OnStatus(text string, connected bool)
}

// Refresher is notified when the read model has new data to display.
type Refresher interface {
	RefreshEvents()
}

// Dispatcher serializes callbacks onto a single goroutine. Background
// components never touch presentation state directly; they submit a
// closure and the dispatcher runs it in submission order.
type Dispatcher struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	stopCh  chan struct{}
	doneCh  chan struct{}
	running atomic.Bool
}

// NewDispatcher creates a dispatcher. Call Start before dispatching.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the dispatch loop. Calling Start on a running
// dispatcher is a no-op.
func (d *Dispatcher) Start() {
	if d.running.Swap(true) {
		return
	}
	go d.loop()
}

// Dispatch queues fn for execution on the dispatcher goroutine.
// It never blocks. After Stop, submissions are silently discarded.
func (d *Dispatcher) Dispatch(fn func()) {
	if fn == nil || !d.running.Load() {
		return
	}

	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Stop terminates the dispatch loop. Queued callbacks that have not run
// yet are dropped; the display is about to go away with them.
func (d *Dispatcher) Stop() {
	if !d.running.Swap(false) {
		return
	}
	close(d.stopCh)
	<-d.doneCh
}

func (d *Dispatcher) loop() {
	defer close(d.doneCh)

	for {
		select {
		case <-d.stopCh:
			return
		case <-d.wake:
			for _, fn := range d.drain() {
				d.run(fn)
			}
		}
	}
}

func (d *Dispatcher) drain() []func() {
	d.mu.Lock()
	fns := d.pending
	d.pending = nil
	d.mu.Unlock()
	return fns
}

// run executes one callback, isolating the loop from panics in
// presentation code.
func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("Dispatched callback panicked")
		}
	}()
	fn()
}

// NopObserver is a StatusObserver that logs status changes. It stands in
// when no front end is attached.
type NopObserver struct{}

// OnStatus implements StatusObserver.
func (NopObserver) OnStatus(text string, connected bool) {
	logging.Info().Str("status", text).Bool("connected", connected).Msg("Connection status")
}
