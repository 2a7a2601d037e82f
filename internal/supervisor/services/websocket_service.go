// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package services

import (
	"context"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/websocket"
)

// WebSocketHubService runs the broadcast hub under supervision. The hub's
// RunWithContext already handles shutdown ordering; this wrapper only gives
// it a suture identity.
type WebSocketHubService struct {
	hub *websocket.Hub
}

// NewWebSocketHubService creates a supervised wrapper around the hub.
func NewWebSocketHubService(hub *websocket.Hub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

// Serve runs the hub until the context is canceled.
func (s *WebSocketHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (s *WebSocketHubService) String() string {
	return "websocket-hub"
}
