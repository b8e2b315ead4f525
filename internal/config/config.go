// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package config loads and validates Camwatch configuration from
// layered sources: struct defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `koanf:"nats"`
	Database DatabaseConfig `koanf:"database"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Session  SessionConfig  `koanf:"session"`
	Cameras  []CameraConfig `koanf:"cameras"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// NATSConfig holds pub/sub transport settings.
type NATSConfig struct {
	// URL is the NATS server address.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server for single-box
	// deployments where no external broker exists.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`

	// DurableName identifies this client's JetStream consumer so event
	// delivery resumes where it left off after a restart.
	DurableName string `koanf:"durable_name"`

	// ClientID identifies this client in published status messages.
	// Auto-generated when empty.
	ClientID string `koanf:"client_id"`

	// ConnectTimeout bounds the initial broker connection.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// StatusInterval is how often this client publishes a liveness
	// status message. Zero disables periodic status.
	StatusInterval time.Duration `koanf:"status_interval"`
}

// DatabaseConfig holds durable store settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `koanf:"path"`
}

// PipelineConfig holds ingestion and persistence tuning.
type PipelineConfig struct {
	// BatchSize is the maximum number of events the writer drains per pass.
	BatchSize int `koanf:"batch_size"`

	// WriteDelay is the pause between writer drain passes, yielding the
	// store to readers between batches.
	WriteDelay time.Duration `koanf:"write_delay"`

	// ShutdownTimeout bounds graceful shutdown; past it the process
	// terminates forcibly.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SessionConfig holds stream session settings.
type SessionConfig struct {
	// ProbeTimeout bounds each connection candidate attempt.
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
}

// CameraConfig describes one camera this client can stream from.
type CameraConfig struct {
	Name        string `koanf:"name"`
	Type        string `koanf:"type"`
	URL         string `koanf:"url"`
	FallbackURL string `koanf:"fallback_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for internally inconsistent or
// unusable values. It is called by Load after all layers are applied.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch_size must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.WriteDelay < 0 {
		return fmt.Errorf("pipeline.write_delay must not be negative")
	}
	if c.Pipeline.ShutdownTimeout <= 0 {
		return fmt.Errorf("pipeline.shutdown_timeout must be positive")
	}

	seen := make(map[string]struct{}, len(c.Cameras))
	for i, cam := range c.Cameras {
		if cam.Type == "" {
			return fmt.Errorf("cameras[%d]: type is required", i)
		}
		if cam.URL == "" {
			return fmt.Errorf("cameras[%d] (%s): url is required", i, cam.Type)
		}
		if _, dup := seen[cam.Type]; dup {
			return fmt.Errorf("cameras[%d]: duplicate camera type %q", i, cam.Type)
		}
		seen[cam.Type] = struct{}{}
	}
	return nil
}

// Camera returns the camera with the given type identifier.
func (c *Config) Camera(cameraType string) (CameraConfig, bool) {
	for _, cam := range c.Cameras {
		if cam.Type == cameraType {
			return cam, true
		}
	}
	return CameraConfig{}, false
}
