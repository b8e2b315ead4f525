// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package store provides the durable camera event store.
//
// The implementation uses modernc.org/sqlite (pure Go, no CGO) via
// database/sql, so the binary stays fully static and runs on the small
// ARM boxes these clients are deployed to.
package store

import (
	"context"

	"github.com/tomtom215/camwatch/internal/event"
)

// EventStore is the persistence boundary for camera events. The batch
// writer appends through it and the read model queries through it.
type EventStore interface {
	// InsertEvent appends one event. Inserting the same logical event
	// twice creates two rows; deduplication is not this layer's job.
	InsertEvent(ctx context.Context, e *event.CameraEvent) error

	// ListEvents returns all events ordered newest first
	// (timestamp descending, then row id descending).
	ListEvents(ctx context.Context) ([]*event.StoredEvent, error)

	// MarkViewed flips the viewed flag on every row matching the
	// logical identity (camera_type, timestamp, video_path).
	MarkViewed(ctx context.Context, cameraType, timestamp, videoPath string) error

	// Close releases the underlying database handle.
	Close() error
}
