// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package ui

import (
	"sync"
	"testing"
	"time"
)

func TestDispatchRunsInOrder(t *testing.T) {
	d := NewDispatcher()
	d.Start()
	defer d.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 0; i < 10; i++ {
		i := i
		d.Dispatch(func() {
			mu.Lock()
			order = append(order, i)
			if len(order) == 10 {
				close(done)
			}
			mu.Unlock()
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatched callbacks did not all run")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("callback order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestDispatchAfterStopIsDropped(t *testing.T) {
	d := NewDispatcher()
	d.Start()
	d.Stop()

	ran := make(chan struct{})
	d.Dispatch(func() { close(ran) })

	select {
	case <-ran:
		t.Error("callback ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopIsIdempotent(t *testing.T) {
	d := NewDispatcher()
	d.Start()

	done := make(chan struct{})
	go func() {
		d.Stop()
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("double Stop deadlocked")
	}
}

func TestPanicInCallbackDoesNotKillLoop(t *testing.T) {
	d := NewDispatcher()
	d.Start()
	defer d.Stop()

	d.Dispatch(func() { panic("presentation bug") })

	ran := make(chan struct{})
	d.Dispatch(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("dispatcher stopped running callbacks after a panic")
	}
}
