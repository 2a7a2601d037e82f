// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/websocket"
)

func TestWebSocketHubServiceStopsOnCancel(t *testing.T) {
	svc := NewWebSocketHubService(websocket.NewHub())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub service did not stop after cancellation")
	}
}

func TestWebSocketHubServiceString(t *testing.T) {
	svc := NewWebSocketHubService(websocket.NewHub())
	if got := svc.String(); got != "websocket-hub" {
		t.Fatalf("String() = %q", got)
	}
}
