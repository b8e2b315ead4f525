// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPushPopOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d) = %v, want nil", i, err)
		}
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if got != i {
			t.Errorf("Pop() = %d, want %d (FIFO order)", got, i)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Len() = %d after draining, want 0", q.Len())
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New[string]()

	got := make(chan string, 1)
	go func() {
		v, err := q.Pop(context.Background())
		if err != nil {
			t.Errorf("Pop() error = %v", err)
		}
		got <- v
	}()

	// Give the consumer time to block.
	time.Sleep(20 * time.Millisecond)
	if err := q.Push("hello"); err != nil {
		t.Fatalf("Push() = %v", err)
	}

	select {
	case v := <-got:
		if v != "hello" {
			t.Errorf("Pop() = %q, want %q", v, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after Push")
	}
}

func TestPopContextCancel(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Pop() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after context cancel")
	}
}

func TestCloseSemantics(t *testing.T) {
	q := New[int]()
	if err := q.Push(1); err != nil {
		t.Fatalf("Push() = %v", err)
	}

	q.Close()

	// Queued items survive Close.
	got, err := q.Pop(context.Background())
	if err != nil {
		t.Fatalf("Pop() after Close error = %v", err)
	}
	if got != 1 {
		t.Errorf("Pop() = %d, want 1", got)
	}

	// Empty and closed: ErrClosed.
	if _, err := q.Pop(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Pop() on drained closed queue = %v, want ErrClosed", err)
	}

	// New pushes rejected.
	if err := q.Push(2); !errors.Is(err, ErrClosed) {
		t.Errorf("Push() after Close = %v, want ErrClosed", err)
	}

	// Close is idempotent.
	q.Close()
}

func TestTryPop(t *testing.T) {
	q := New[int]()

	if _, ok := q.TryPop(); ok {
		t.Error("TryPop() on empty queue = true, want false")
	}

	if err := q.Push(7); err != nil {
		t.Fatalf("Push() = %v", err)
	}
	got, ok := q.TryPop()
	if !ok || got != 7 {
		t.Errorf("TryPop() = (%d, %v), want (7, true)", got, ok)
	}
}

func TestPushNeverBlocks(t *testing.T) {
	q := New[int]()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// No consumer at all; every push must return immediately.
		for i := 0; i < 10000; i++ {
			if err := q.Push(i); err != nil {
				t.Errorf("Push(%d) = %v", i, err)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Push blocked without a consumer")
	}

	if q.Len() != 10000 {
		t.Errorf("Len() = %d, want 10000", q.Len())
	}
}
