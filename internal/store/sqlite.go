// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tomtom215/camwatch/internal/event"
)

// DB implements EventStore using SQLite via database/sql.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// SQLite serialises writes; one connection avoids SQLITE_BUSY on writes.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate applies the schema. New versions should only ADD statements
// here so existing databases keep working without a migration tool.
func (s *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type  TEXT    NOT NULL DEFAULT 'motion_detected',
			camera_name TEXT    NOT NULL DEFAULT '',
			camera_type TEXT    NOT NULL,
			timestamp   TEXT    NOT NULL,
			video_path  TEXT    NOT NULL,
			confidence  REAL    NOT NULL DEFAULT 0,
			duration    REAL    NOT NULL DEFAULT 0,
			viewed      INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL
		)`,

		// The read model filters on camera_type and viewed, and orders
		// on timestamp; timestamps sort lexicographically.
		`CREATE INDEX IF NOT EXISTS idx_events_camera
			ON events(camera_type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp
			ON events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_viewed
			ON events(camera_type, viewed)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// InsertEvent appends one event row.
func (s *DB) InsertEvent(ctx context.Context, e *event.CameraEvent) error {
	if e == nil {
		return event.ErrNilEvent
	}

	viewed := 0
	if e.Viewed {
		viewed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (event_type, camera_name, camera_type, timestamp,
		                    video_path, confidence, duration, viewed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Type, e.CameraName, e.CameraType, e.Timestamp,
		e.VideoPath, e.Confidence, e.Duration, viewed,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.Identity(), err)
	}
	return nil
}

// ListEvents returns all events ordered newest first.
func (s *DB) ListEvents(ctx context.Context) ([]*event.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, camera_name, camera_type, timestamp,
		       video_path, confidence, duration, viewed, created_at
		  FROM events
		 ORDER BY timestamp DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*event.StoredEvent
	for rows.Next() {
		var ev event.StoredEvent
		var viewed int
		var createdAt string
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.CameraName, &ev.CameraType,
			&ev.Timestamp, &ev.VideoPath, &ev.Confidence, &ev.Duration,
			&viewed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Viewed = viewed != 0
		ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// MarkViewed flips the viewed flag on rows matching the logical identity.
func (s *DB) MarkViewed(ctx context.Context, cameraType, timestamp, videoPath string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET viewed = 1
		 WHERE camera_type = ? AND timestamp = ? AND video_path = ?
	`, cameraType, timestamp, videoPath)
	if err != nil {
		return fmt.Errorf("mark viewed: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *DB) Close() error { return s.db.Close() }
