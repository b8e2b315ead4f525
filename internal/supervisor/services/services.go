// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package services adapts Camwatch components to suture's Serve
// lifecycle. Wrappers stay interface-typed so they never import the
// concrete component packages.
package services

import (
	"context"
	"fmt"
	"time"
)

// ContextRunner is the lifecycle of context-driven components like the
// broker consumer.
type ContextRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// ConsumerService wraps the broker consumer as a supervised service.
// If Start fails (broker unreachable), the error propagates and suture
// restarts the service under its backoff policy, which doubles as the
// reconnect loop.
type ConsumerService struct {
	runner          ContextRunner
	shutdownTimeout time.Duration
	name            string
}

// NewConsumerService creates a consumer service wrapper.
func NewConsumerService(runner ContextRunner, shutdownTimeout time.Duration) *ConsumerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &ConsumerService{
		runner:          runner,
		shutdownTimeout: shutdownTimeout,
		name:            "broker-consumer",
	}
}

// Serve implements suture.Service: start, block on ctx, shut down with
// a fresh bounded context (the original is already canceled).
func (s *ConsumerService) Serve(ctx context.Context) error {
	if err := s.runner.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.runner.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (s *ConsumerService) String() string {
	return s.name
}

// Loop is the lifecycle of self-managed loop components like the
// ingestion worker and the batch writer.
type Loop interface {
	Start()
	Stop()
	IsRunning() bool
}

// LoopService wraps a Start/Stop loop as a supervised service.
type LoopService struct {
	loop Loop
	name string
}

// NewLoopService creates a loop service wrapper with the given name.
func NewLoopService(name string, loop Loop) *LoopService {
	return &LoopService{loop: loop, name: name}
}

// Serve implements suture.Service.
func (s *LoopService) Serve(ctx context.Context) error {
	s.loop.Start()
	<-ctx.Done()
	s.loop.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (s *LoopService) String() string {
	return s.name
}
