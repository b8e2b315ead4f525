// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package transport is the pub/sub boundary. It connects to NATS
// JetStream through Watermill, feeds raw messages to the ingestion
// queue, and publishes this client's status messages.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// SubscriberConfig holds JetStream subscription settings.
type SubscriberConfig struct {
	// URL is the NATS server address.
	URL string

	// StreamName is the JetStream stream the camera subjects live on.
	// Subscriptions bind to it because wildcard subjects cannot
	// auto-provision a stream named after themselves.
	StreamName string

	// DurableName prefixes durable consumer names so delivery resumes
	// after a restart instead of replaying or skipping.
	DurableName string

	// QueueGroup enables load balancing when multiple clients share a
	// durable. Empty for a single-client deployment.
	QueueGroup string

	// SubscribersCount is the number of parallel subscribers per subject.
	SubscribersCount int

	// AckWaitTimeout is how long JetStream waits for an ack before
	// redelivering.
	AckWaitTimeout time.Duration

	// CloseTimeout bounds subscriber shutdown.
	CloseTimeout time.Duration

	// MaxReconnects and ReconnectWait tune the underlying NATS
	// connection's reconnect behavior.
	MaxReconnects int
	ReconnectWait time.Duration

	// MaxDeliver caps redelivery attempts per message.
	MaxDeliver int

	// MaxAckPending caps in-flight unacked messages.
	MaxAckPending int
}

// DefaultSubscriberConfig returns production defaults.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		StreamName:       StreamName,
		DurableName:      "camwatch-client",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1, // Retry forever; cameras outlive broker restarts
		ReconnectWait:    2 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    256,
	}
}

// Subscriber wraps a Watermill NATS subscriber with durable JetStream
// consumption.
type Subscriber struct {
	subscriber message.Subscriber
	config     SubscriberConfig
	logger     watermill.LoggerAdapter
}

// NewSubscriber creates a durable JetStream subscriber.
func NewSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		// Deliver everything on first creation; the durable consumer
		// resumes from its last ack afterwards, so events published
		// while this client was offline still arrive.
		natsgo.DeliverAll(),
	}

	// Bind to the pre-provisioned stream. AutoProvision cannot work for
	// wildcard subjects like camera.>.
	autoProvision := true
	if cfg.StreamName != "" {
		subOpts = append(subOpts, natsgo.BindStream(cfg.StreamName))
		autoProvision = false
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    autoProvision,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{
		subscriber: sub,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Subscribe returns a channel of messages for the given subject pattern.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.subscriber.Subscribe(ctx, topic)
}

// Close gracefully shuts down the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
