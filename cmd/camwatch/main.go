// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Command camwatch runs the camera event monitoring client: it consumes
// camera events from NATS JetStream, persists them to SQLite, keeps the
// per-camera counters fresh for an attached front end, and manages the
// single live stream session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/camwatch/internal/config"
	"github.com/tomtom215/camwatch/internal/event"
	"github.com/tomtom215/camwatch/internal/ingest"
	"github.com/tomtom215/camwatch/internal/logging"
	"github.com/tomtom215/camwatch/internal/persist"
	"github.com/tomtom215/camwatch/internal/queue"
	"github.com/tomtom215/camwatch/internal/readmodel"
	"github.com/tomtom215/camwatch/internal/session"
	"github.com/tomtom215/camwatch/internal/shutdown"
	"github.com/tomtom215/camwatch/internal/store"
	"github.com/tomtom215/camwatch/internal/supervisor"
	"github.com/tomtom215/camwatch/internal/supervisor/services"
	"github.com/tomtom215/camwatch/internal/transport"
	"github.com/tomtom215/camwatch/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Configuration load failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("cameras", len(cfg.Cameras)).
		Str("database", cfg.Database.Path).
		Msg("Camwatch starting")

	// Optional embedded broker for single-box deployments.
	natsURL := cfg.NATS.URL
	var embedded *transport.EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		embedded, err = transport.NewEmbeddedServer(transport.EmbeddedServerConfig{
			StoreDir: cfg.NATS.StoreDir,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Embedded NATS server failed to start")
		}
		natsURL = embedded.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server ready")
	}

	if err := transport.EnsureStream(natsURL, cfg.NATS.ConnectTimeout); err != nil {
		logging.Fatal().Err(err).Msg("JetStream stream provisioning failed")
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Event store open failed")
	}

	rm := readmodel.New(st)
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := rm.Seed(seedCtx); err != nil {
		seedCancel()
		logging.Fatal().Err(err).Msg("Read model seed failed")
	}
	seedCancel()

	dispatcher := ui.NewDispatcher()
	dispatcher.Start()
	var observer ui.StatusObserver = ui.NopObserver{}

	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger())

	publisher, err := transport.NewPublisher(transport.PublisherConfig{
		URL:            natsURL,
		ClientID:       cfg.NATS.ClientID,
		ConnectTimeout: cfg.NATS.ConnectTimeout,
	}, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Status publisher init failed")
	}

	// Persistence pipeline: queue -> batch writer -> store, with a
	// read-model refresh dispatched to the UI goroutine per insert.
	persistQ := queue.New[*event.CameraEvent]()
	writer := persist.NewWriter(persistQ, st, persist.Config{
		BatchSize:  cfg.Pipeline.BatchSize,
		WriteDelay: cfg.Pipeline.WriteDelay,
	}, func() {
		dispatcher.Dispatch(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rm.Refresh(ctx); err != nil {
				logging.Err(err).Msg("Read model refresh failed")
			}
		})
	})

	// Session manager: status changes go to the UI goroutine and out on
	// the status subject.
	mgr := session.NewManager(cfg, session.NewProbeDialer(cfg.Session.ProbeTimeout), func(s session.Status) {
		dispatcher.Dispatch(func() {
			observer.OnStatus(s.Text, s.Connected())
		})
		go func() {
			state := "disconnected"
			var active []string
			if s.Connected() {
				state = "connected"
				active = []string{s.Camera}
			}
			if err := publisher.PublishStatus(state, active); err != nil {
				logging.Err(err).Msg("Session status publish failed")
			}
		}()
	})

	// Ingestion pipeline: broker -> queue -> worker.
	ingestQ := queue.New[ingest.Message]()
	worker := ingest.NewWorker(ingestQ, rm, writer, mgr, func(cameraType string, payload []byte) {
		_, _, connected := mgr.Active()
		dispatcher.Dispatch(func() {
			observer.OnStatus(fmt.Sprintf("Report from camera %s", cameraType), connected)
		})
	})

	subCfg := transport.DefaultSubscriberConfig(natsURL)
	subCfg.DurableName = cfg.NATS.DurableName
	subscriber, err := transport.NewSubscriber(subCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Subscriber init failed")
	}
	consumer := transport.NewConsumer(subscriber, worker, wmLogger)

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	if err != nil {
		logging.Fatal().Err(err).Msg("Supervisor tree init failed")
	}
	tree.AddMessagingService(services.NewConsumerService(consumer, subCfg.CloseTimeout))
	tree.AddPipelineService(services.NewLoopService("ingestion-worker", worker))
	tree.AddPipelineService(services.NewLoopService("batch-writer", writer))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	if err := publisher.PublishStatus("online", nil); err != nil {
		logging.Err(err).Msg("Startup status publish failed")
	}
	if cfg.NATS.StatusInterval > 0 {
		go statusLoop(ctx, cfg, publisher, mgr, rm)
	}

	coord := buildCoordinator(cfg, cancel, errCh, mgr, publisher, dispatcher, st, embedded)

	// First signal triggers graceful shutdown; a second one, or a stuck
	// teardown past the deadline, exits forcibly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var reason string
	select {
	case sig := <-sigCh:
		reason = sig.String()
	case err := <-errCh:
		if err != nil {
			logging.Err(err).Msg("Supervisor tree exited")
		}
		reason = "supervisor exited"
	}

	go func() {
		<-sigCh
		coord.Trigger("second signal")
	}()

	coord.Trigger(reason)

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop")
		}
	}

	logging.Info().Msg("Camwatch stopped")
}

// buildCoordinator registers the teardown order: announce offline, stop
// the supervised pipeline, drop the session, then close the transport,
// the dispatcher, the store, and finally the embedded broker.
func buildCoordinator(
	cfg *config.Config,
	cancel context.CancelFunc,
	errCh <-chan error,
	mgr *session.Manager,
	publisher *transport.Publisher,
	dispatcher *ui.Dispatcher,
	st store.EventStore,
	embedded *transport.EmbeddedServer,
) *shutdown.Coordinator {
	coord := shutdown.New(cfg.Pipeline.ShutdownTimeout, nil)

	coord.Add("status-offline", func(ctx context.Context) error {
		return publisher.PublishStatus("offline", nil)
	})
	coord.Add("supervisor", func(ctx context.Context) error {
		cancel()
		select {
		case <-errCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	coord.Add("session", func(ctx context.Context) error {
		mgr.Disconnect()
		return nil
	})
	coord.Add("publisher", func(ctx context.Context) error {
		return publisher.Close()
	})
	coord.Add("dispatcher", func(ctx context.Context) error {
		dispatcher.Stop()
		return nil
	})
	coord.Add("store", func(ctx context.Context) error {
		return st.Close()
	})
	if embedded != nil {
		coord.Add("embedded-nats", func(ctx context.Context) error {
			return embedded.Shutdown(ctx)
		})
	}

	return coord
}

// statusLoop periodically publishes liveness and logs the per-camera
// counters the front end renders.
func statusLoop(
	ctx context.Context,
	cfg *config.Config,
	publisher *transport.Publisher,
	mgr *session.Manager,
	rm *readmodel.ReadModel,
) {
	ticker := time.NewTicker(cfg.NATS.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := "online"
			var active []string
			if camera, _, ok := mgr.Active(); ok {
				state = "connected"
				active = []string{camera}
			}
			if err := publisher.PublishStatus(state, active); err != nil {
				logging.Err(err).Msg("Periodic status publish failed")
			}

			for _, cam := range cfg.Cameras {
				logging.Debug().
					Str("camera", cam.Type).
					Int("unviewed", rm.UnviewedCount(cam.Type)).
					Int("recent_24h", rm.RecentCount(cam.Type, readmodel.DefaultRecentWindow)).
					Msg("Camera counters")
			}
		}
	}
}
