// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tomtom215/camwatch/internal/event"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) = %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func insert(t *testing.T, db *DB, cameraType, timestamp, videoPath string) {
	t.Helper()
	e := &event.CameraEvent{
		Type:       event.TypeMotionDetected,
		CameraName: "Front Door",
		CameraType: cameraType,
		Timestamp:  timestamp,
		VideoPath:  videoPath,
		Confidence: 0.8,
	}
	if err := db.InsertEvent(context.Background(), e); err != nil {
		t.Fatalf("InsertEvent(%s) = %v", videoPath, err)
	}
}

func TestInsertAndListOrdering(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	// Inserted out of chronological order; listing sorts newest first.
	insert(t, db, "picam", "2026-08-30 10:00:00", "/v/a.mp4")
	insert(t, db, "picam", "2026-08-30 12:00:00", "/v/c.mp4")
	insert(t, db, "picam", "2026-08-30 11:00:00", "/v/b.mp4")

	events, err := db.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents() = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}

	want := []string{"/v/c.mp4", "/v/b.mp4", "/v/a.mp4"}
	for i, w := range want {
		if events[i].VideoPath != w {
			t.Errorf("events[%d].VideoPath = %q, want %q", i, events[i].VideoPath, w)
		}
	}
	if events[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", events[0].Confidence)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want insertion time")
	}
}

func TestListTiesBreakOnRowID(t *testing.T) {
	db, _ := openTestDB(t)

	insert(t, db, "picam", "2026-08-30 10:00:00", "/v/first.mp4")
	insert(t, db, "picam", "2026-08-30 10:00:00", "/v/second.mp4")

	events, err := db.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents() = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	// Equal timestamps: the later insert (higher id) lists first.
	if events[0].VideoPath != "/v/second.mp4" {
		t.Errorf("events[0].VideoPath = %q, want /v/second.mp4", events[0].VideoPath)
	}
}

func TestMarkViewed(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	insert(t, db, "picam", "2026-08-30 10:00:00", "/v/a.mp4")
	insert(t, db, "picam", "2026-08-30 11:00:00", "/v/b.mp4")

	if err := db.MarkViewed(ctx, "picam", "2026-08-30 10:00:00", "/v/a.mp4"); err != nil {
		t.Fatalf("MarkViewed() = %v", err)
	}

	events, err := db.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents() = %v", err)
	}
	for _, e := range events {
		want := e.VideoPath == "/v/a.mp4"
		if e.Viewed != want {
			t.Errorf("Viewed for %s = %v, want %v", e.VideoPath, e.Viewed, want)
		}
	}
}

func TestInsertNilEvent(t *testing.T) {
	db, _ := openTestDB(t)
	if err := db.InsertEvent(context.Background(), nil); !errors.Is(err, event.ErrNilEvent) {
		t.Errorf("InsertEvent(nil) = %v, want ErrNilEvent", err)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	db, path := openTestDB(t)
	insert(t, db, "picam", "2026-08-30 10:00:00", "/v/a.mp4")
	if err := db.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen = %v", err)
	}
	defer reopened.Close()

	events, err := reopened.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents() = %v", err)
	}
	if len(events) != 1 || events[0].VideoPath != "/v/a.mp4" {
		t.Errorf("events after reopen = %v, want the persisted row", events)
	}
}
