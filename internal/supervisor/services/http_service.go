// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package services wraps the server's long-running components as
// suture.Service implementations so the supervisor tree can restart them
// independently on failure.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
)

// HTTPServer is the subset of *http.Server needed by HTTPServerService,
// abstracted for testing.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService wraps an HTTP server for suture supervision. On context
// cancellation it shuts the server down gracefully, waiting up to
// shutdownTimeout for in-flight requests to drain.
type HTTPServerService struct {
	server          HTTPServer
	addr            string
	shutdownTimeout time.Duration
}

// NewHTTPServerService creates a supervised HTTP server service.
// addr is used for logging only; the listen address lives in the server.
func NewHTTPServerService(server HTTPServer, addr string, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve runs the HTTP server until the context is canceled or the server
// fails. ErrServerClosed is translated to nil since it signals a clean
// shutdown, not a failure suture should restart.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logging.Info().Str("addr", s.addr).Msg("http server listening")
		err := s.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Str("addr", s.addr).Msg("http server failed")
			return err
		}
		return nil
	case <-ctx.Done():
		// Fresh context: the canceled one would abort Shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Str("addr", s.addr).Msg("http server shutdown error")
		} else {
			logging.Info().Str("addr", s.addr).Msg("http server stopped")
		}

		// Wait for ListenAndServe to return before reporting stopped.
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for suture logging.
func (s *HTTPServerService) String() string {
	return "http-server(" + s.addr + ")"
}
