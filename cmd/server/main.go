// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package main is the entry point for the AuroraSensa map server.
//
// AuroraSensa fuses position feeds from a distributed sensor fleet (field
// clients with GPS and Starlink terminals, ADS-B and AIS receivers, APRS
// and EPIRB decoders, wireless survey radios) into a single tracked-entity
// view for a live map dashboard.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables, config file, defaults (Koanf v2)
//  2. Upstream client: fleet API client with circuit breaker and rate limiter
//  3. Event bus (optional): NATS-backed live position updates via Watermill
//  4. WebSocket hub: real-time push to connected dashboards
//  5. Tracking engine: polling, fusion and reconciliation
//  6. HTTP server: REST API, WebSocket upgrade and Prometheus metrics
//
// All long-running components run under a suture/v4 supervision tree and
// restart independently on failure.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (AURORASENSA_ prefix, see config package)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes bus publisher/subscriber and the embedded NATS server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/api"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/config"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/eventbus"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/feeds"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/fusion"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/supervisor"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/supervisor/services"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/tracker"
	ws "github.com/tophatsecurity/aurorasensa-sub006/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config not yet available.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Dur("refresh_interval", cfg.Refresh.Interval).
		Bool("eventbus", cfg.EventBus.Enabled).
		Msg("Configuration loaded")

	// Upstream fleet API client, wrapped in a circuit breaker so a flapping
	// backend trips open instead of stalling every polling cycle.
	source := feeds.NewBreakerClient(feeds.NewClient(&cfg.Upstream))

	// Context for graceful shutdown; canceled on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional event bus for live position updates between polling cycles.
	var (
		busServer  *eventbus.EmbeddedServer
		publisher  *eventbus.Publisher
		subscriber *eventbus.Subscriber
	)
	if cfg.EventBus.Enabled {
		busURL := cfg.EventBus.URL
		if cfg.EventBus.Embedded {
			busServer, err = eventbus.NewEmbeddedServer()
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
			}
			busURL = busServer.ClientURL()
			logging.Info().Str("url", busURL).Msg("Embedded NATS server started")
		}

		publisher, err = eventbus.NewPublisher(busURL, cfg.EventBus.SubjectPrefix, nil)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create bus publisher")
		}
		subscriber, err = eventbus.NewSubscriber(busURL, cfg.EventBus.SubjectPrefix, nil)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create bus subscriber")
		}
	} else {
		logging.Info().Msg("Event bus disabled, running pure polling")
	}

	// WebSocket hub for dashboard push, created before the engine so the
	// engine can broadcast into it.
	wsHub := ws.NewHub()

	var reportPublisher tracker.ReportPublisher
	if publisher != nil {
		reportPublisher = publisher
	}
	engine := tracker.NewEngine(cfg, source, wsHub, reportPublisher)

	// Supervisor tree; sutureslog bridges supervision events into zerolog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if subscriber != nil {
		tree.AddIngestService(services.NewBusSubscriberService(subscriber,
			func(ctx context.Context, report fusion.PositionReport) {
				engine.ApplyLiveReport(ctx, report)
			}))
		logging.Info().Msg("Bus subscriber added to supervisor tree")
	}

	tree.AddFusionService(services.NewWebSocketHubService(wsHub))
	tree.AddFusionService(engine)

	router := api.NewRouter(cfg, engine, wsHub)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Signal handling.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Bus teardown happens after the tree stops so in-flight reports drain.
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing bus publisher")
		}
	}
	if subscriber != nil {
		if err := subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing bus subscriber")
		}
	}
	if busServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := busServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
		shutdownCancel()
	}

	logging.Info().Msg("Application stopped gracefully")
}
