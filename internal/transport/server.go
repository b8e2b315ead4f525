// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats-server/v2/server"
)

// StreamName is the JetStream stream carrying every Camwatch subject.
const StreamName = "CAMWATCH"

// EmbeddedServer wraps an in-process NATS server with lifecycle
// management, for single-box deployments with no external broker.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// EmbeddedServerConfig holds embedded server settings.
type EmbeddedServerConfig struct {
	// StoreDir is the JetStream storage directory.
	StoreDir string
}

// NewEmbeddedServer creates and starts an embedded NATS server with
// JetStream enabled. Returns an error if the server does not come up
// within 30 seconds.
func NewEmbeddedServer(cfg EmbeddedServerConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "camwatch",
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		MaxPayload: 1 << 20, // Events are small; cap messages at 1MB
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server, bounded by ctx.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns server health status.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// EnsureStream creates the Camwatch stream if it does not exist yet.
// Subscriptions bind to this stream, so it must exist before the
// consumer starts, whether the broker is embedded or external.
func EnsureStream(url string, connectTimeout time.Duration) error {
	nc, err := natsgo.Connect(url, natsgo.Timeout(connectTimeout))
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, natsgo.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}

	_, err = js.AddStream(&natsgo.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{"camera.>", "client.>"},
		Retention:  natsgo.LimitsPolicy,
		Storage:    natsgo.FileStorage,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}
	return nil
}
