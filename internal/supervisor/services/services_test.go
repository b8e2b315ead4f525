// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockRunner scripts the ContextRunner lifecycle.
type mockRunner struct {
	mu          sync.Mutex
	startErr    error
	shutdownErr error
	started     int
	shutdowns   int
	shutdownCtx context.Context
}

func (m *mockRunner) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
	return m.startErr
}

func (m *mockRunner) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdowns++
	m.shutdownCtx = ctx
	return m.shutdownErr
}

func (m *mockRunner) IsRunning() bool { return false }

// mockLoop scripts the Loop lifecycle.
type mockLoop struct {
	mu      sync.Mutex
	started int
	stopped int
}

func (m *mockLoop) Start() {
	m.mu.Lock()
	m.started++
	m.mu.Unlock()
}

func (m *mockLoop) Stop() {
	m.mu.Lock()
	m.stopped++
	m.mu.Unlock()
}

func (m *mockLoop) IsRunning() bool { return false }

func TestConsumerServiceLifecycle(t *testing.T) {
	runner := &mockRunner{}
	svc := NewConsumerService(runner, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	// Serve blocks on the context after a successful start.
	select {
	case err := <-errCh:
		t.Fatalf("Serve returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.started != 1 || runner.shutdowns != 1 {
		t.Errorf("started=%d shutdowns=%d, want 1/1", runner.started, runner.shutdowns)
	}
	// Shutdown runs under a fresh bounded context, not the canceled one.
	if _, ok := runner.shutdownCtx.Deadline(); !ok {
		t.Error("shutdown context has no deadline")
	}
}

func TestConsumerServiceStartFailurePropagates(t *testing.T) {
	runner := &mockRunner{startErr: errors.New("broker unreachable")}
	svc := NewConsumerService(runner, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, runner.startErr) {
		t.Errorf("Serve() = %v, want wrapped start error", err)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.shutdowns != 0 {
		t.Errorf("shutdowns = %d, want 0 after failed start", runner.shutdowns)
	}
}

func TestConsumerServiceShutdownFailurePropagates(t *testing.T) {
	runner := &mockRunner{shutdownErr: errors.New("drain timed out")}
	svc := NewConsumerService(runner, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Serve(ctx)
	if err == nil || !errors.Is(err, runner.shutdownErr) {
		t.Errorf("Serve() = %v, want wrapped shutdown error", err)
	}
}

func TestLoopServiceLifecycle(t *testing.T) {
	loop := &mockLoop{}
	svc := NewLoopService("batch-writer", loop)

	if svc.String() != "batch-writer" {
		t.Errorf("String() = %q, want batch-writer", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	loop.mu.Lock()
	defer loop.mu.Unlock()
	if loop.started != 1 || loop.stopped != 1 {
		t.Errorf("started=%d stopped=%d, want 1/1", loop.started, loop.stopped)
	}
}
