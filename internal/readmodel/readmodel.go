// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package readmodel maintains the derived per-camera view the
// presentation layer renders: the full event list newest first, plus
// unviewed and recent-activity counters.
//
// The cache is advisory. The durable store is the source of truth;
// Refresh replaces the cache wholesale from it, and the ingestion
// worker prepends events optimistically so the display updates before
// the batch writer gets to them.
package readmodel

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/camwatch/internal/event"
	"github.com/tomtom215/camwatch/internal/store"
)

// DefaultRecentWindow is the activity window the presentation layer
// shows by default.
const DefaultRecentWindow = 24 * time.Hour

// ReadModel is a thread-safe cache of camera events with derived counters.
type ReadModel struct {
	st store.EventStore

	mu     sync.RWMutex
	events []*event.CameraEvent

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a read model backed by the given store. Call Seed to
// populate it before first use.
func New(st store.EventStore) *ReadModel {
	return &ReadModel{st: st, now: time.Now}
}

// Seed loads the cache from the store. Typically called once at startup.
func (r *ReadModel) Seed(ctx context.Context) error {
	return r.Refresh(ctx)
}

// Refresh replaces the cache with the store's current contents.
func (r *ReadModel) Refresh(ctx context.Context) error {
	stored, err := r.st.ListEvents(ctx)
	if err != nil {
		return err
	}

	events := make([]*event.CameraEvent, len(stored))
	for i, s := range stored {
		e := s.CameraEvent
		events[i] = &e
	}

	r.mu.Lock()
	r.events = events
	r.mu.Unlock()
	return nil
}

// Prepend inserts an event at the head of the cache (newest first).
// Used by the ingestion worker so new events show up immediately,
// before the batch writer has persisted them.
func (r *ReadModel) Prepend(e *event.CameraEvent) {
	if e == nil {
		return
	}
	r.mu.Lock()
	r.events = append([]*event.CameraEvent{e}, r.events...)
	r.mu.Unlock()
}

// Events returns a snapshot of the cached events, newest first.
func (r *ReadModel) Events() []*event.CameraEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*event.CameraEvent, len(r.events))
	copy(out, r.events)
	return out
}

// UnviewedCount returns the number of unviewed events for a camera.
func (r *ReadModel) UnviewedCount(cameraType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.events {
		if e.CameraType == cameraType && !e.Viewed {
			count++
		}
	}
	return count
}

// RecentCount returns the number of events for a camera whose timestamp
// falls within the given window ending now. Events with timestamps that
// do not parse are excluded rather than guessed at.
func (r *ReadModel) RecentCount(cameraType string, window time.Duration) int {
	cutoff := r.now().UTC().Add(-window)

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.events {
		if e.CameraType != cameraType {
			continue
		}
		t, ok := e.Time()
		if !ok {
			continue
		}
		if !t.Before(cutoff) {
			count++
		}
	}
	return count
}

// MarkViewed flips the viewed flag in the store and refreshes the cache.
func (r *ReadModel) MarkViewed(ctx context.Context, cameraType, timestamp, videoPath string) error {
	if err := r.st.MarkViewed(ctx, cameraType, timestamp, videoPath); err != nil {
		return err
	}
	return r.Refresh(ctx)
}
