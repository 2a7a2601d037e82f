// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fakeHTTPServer simulates an *http.Server with controllable behavior.
type fakeHTTPServer struct {
	listenErr    error
	listenDone   chan struct{} // closed when ListenAndServe should return
	shutdownErr  error
	shutdownSeen chan struct{}
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{
		listenDone:   make(chan struct{}),
		shutdownSeen: make(chan struct{}, 1),
	}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	<-f.listenDone
	if f.listenErr != nil {
		return f.listenErr
	}
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(ctx context.Context) error {
	select {
	case f.shutdownSeen <- struct{}{}:
	default:
	}
	close(f.listenDone)
	return f.shutdownErr
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newFakeHTTPServer()
	svc := NewHTTPServerService(srv, "127.0.0.1:0", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	// Give the listen goroutine a moment to start, then cancel.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	select {
	case <-srv.shutdownSeen:
	default:
		t.Fatal("Shutdown was never called")
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	srv := newFakeHTTPServer()
	srv.listenErr = errors.New("bind: address already in use")
	close(srv.listenDone)

	svc := NewHTTPServerService(srv, "127.0.0.1:80", time.Second)

	err := svc.Serve(context.Background())
	if err == nil || err.Error() != "bind: address already in use" {
		t.Fatalf("Serve returned %v, want bind error", err)
	}
}

func TestHTTPServerServiceCleanClose(t *testing.T) {
	// ListenAndServe returning ErrServerClosed without a context
	// cancellation (external Shutdown call) must not be treated as a
	// failure.
	srv := newFakeHTTPServer()
	close(srv.listenDone)

	svc := NewHTTPServerService(srv, "127.0.0.1:0", time.Second)
	if err := svc.Serve(context.Background()); err != nil {
		t.Fatalf("Serve returned %v, want nil on ErrServerClosed", err)
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	svc := NewHTTPServerService(newFakeHTTPServer(), "0.0.0.0:8080", 0)
	if got := svc.String(); got != "http-server(0.0.0.0:8080)" {
		t.Fatalf("String() = %q", got)
	}
}
