// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// exitRecorder captures exit codes instead of terminating the process.
type exitRecorder struct {
	mu    sync.Mutex
	codes []int
}

func (r *exitRecorder) exit(code int) {
	r.mu.Lock()
	r.codes = append(r.codes, code)
	r.mu.Unlock()
}

func (r *exitRecorder) Codes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.codes))
	copy(out, r.codes)
	return out
}

func TestStepsRunInRegistrationOrder(t *testing.T) {
	rec := &exitRecorder{}
	c := New(time.Second, rec.exit)

	var mu sync.Mutex
	var order []string
	step := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	c.Add("first", step("first"))
	c.Add("second", step("second"))
	c.Add("third", step("third"))

	c.Trigger("test")

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("step order = %v, want [first second third]", order)
	}
	if codes := rec.Codes(); len(codes) != 0 {
		t.Errorf("exit codes = %v, want none on clean shutdown", codes)
	}
	if !c.Triggered() {
		t.Error("Triggered() = false after Trigger")
	}
}

func TestFailingStepDoesNotBlockLaterSteps(t *testing.T) {
	c := New(time.Second, (&exitRecorder{}).exit)

	var mu sync.Mutex
	ranLast := false
	c.Add("broken", func(context.Context) error { return errors.New("cannot flush") })
	c.Add("last", func(context.Context) error {
		mu.Lock()
		ranLast = true
		mu.Unlock()
		return nil
	})

	c.Trigger("test")

	mu.Lock()
	defer mu.Unlock()
	if !ranLast {
		t.Error("step after failing step did not run")
	}
}

func TestSecondTriggerForcesExit(t *testing.T) {
	rec := &exitRecorder{}
	c := New(time.Second, rec.exit)

	stepEntered := make(chan struct{})
	releaseStep := make(chan struct{})
	c.Add("slow", func(context.Context) error {
		close(stepEntered)
		<-releaseStep
		return nil
	})

	firstDone := make(chan struct{})
	go func() {
		c.Trigger("signal")
		close(firstDone)
	}()

	<-stepEntered

	// A second trigger while teardown is in flight must exit(1)
	// immediately, not deadlock behind the running step.
	done := make(chan struct{})
	go func() {
		c.Trigger("second signal")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Trigger did not return")
	}
	if codes := rec.Codes(); len(codes) != 1 || codes[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", codes)
	}

	close(releaseStep)
	<-firstDone
}

func TestDeadlineExceededForcesExit(t *testing.T) {
	rec := &exitRecorder{}
	c := New(50*time.Millisecond, rec.exit)

	release := make(chan struct{})
	defer close(release)
	c.Add("hung", func(context.Context) error {
		<-release
		return nil
	})

	c.Trigger("test")

	if codes := rec.Codes(); len(codes) != 1 || codes[0] != 1 {
		t.Errorf("exit codes = %v, want [1] after deadline", codes)
	}
}

func TestStepSeesDeadlineContext(t *testing.T) {
	c := New(time.Second, (&exitRecorder{}).exit)

	var mu sync.Mutex
	hadDeadline := false
	c.Add("check", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		mu.Lock()
		hadDeadline = ok
		mu.Unlock()
		return nil
	})

	c.Trigger("test")

	mu.Lock()
	defer mu.Unlock()
	if !hadDeadline {
		t.Error("step context has no deadline")
	}
}
