// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package transport

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/camwatch/internal/event"
	"github.com/tomtom215/camwatch/internal/metrics"
)

// PublisherConfig holds status publisher settings.
type PublisherConfig struct {
	// URL is the NATS server address.
	URL string

	// ClientID identifies this client in status payloads.
	// Auto-generated when empty.
	ClientID string

	// ConnectTimeout bounds the initial connection.
	ConnectTimeout time.Duration
}

// Publisher publishes this client's status messages with JetStream
// acknowledgement. A circuit breaker sheds publishes while the broker
// is unreachable instead of stacking up blocked callers; status
// messages are periodic, so dropped ones are superseded anyway.
type Publisher struct {
	pub      message.Publisher
	breaker  *gobreaker.CircuitBreaker[any]
	ser      *event.Serializer
	clientID string
	logger   watermill.LoggerAdapter
}

// NewPublisher creates a status publisher.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.New().String()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.Timeout(cfg.ConnectTimeout),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.MaxReconnects(-1),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is provisioned at startup
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "status-publisher",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Publisher circuit breaker state change", watermill.LogFields{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	return &Publisher{
		pub:      pub,
		breaker:  breaker,
		ser:      event.NewSerializer(),
		clientID: cfg.ClientID,
		logger:   logger,
	}, nil
}

// ClientID returns the identifier used in status payloads.
func (p *Publisher) ClientID() string {
	return p.clientID
}

// PublishStatus publishes a client status message on the status subject.
func (p *Publisher) PublishStatus(status string, activeCameras []string) error {
	msg := event.NewStatusMessage(p.clientID, status, activeCameras)

	payload, err := p.ser.SerializeStatus(msg)
	if err != nil {
		return fmt.Errorf("serialize status: %w", err)
	}

	wmMsg := message.NewMessage(watermill.NewUUID(), payload)
	// JetStream deduplicates on Nats-Msg-Id within its dedup window.
	wmMsg.Metadata.Set("Nats-Msg-Id", wmMsg.UUID)

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.pub.Publish(event.StatusSubject, wmMsg)
	})
	if err != nil {
		metrics.StatusPublishErrors.Inc()
		return fmt.Errorf("publish status: %w", err)
	}

	metrics.StatusPublished.Inc()
	return nil
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}
