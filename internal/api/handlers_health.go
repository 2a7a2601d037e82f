// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package api

import (
	"net/http"
	"time"
)

// healthStatus is the payload of GET /health.
type healthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Entities      int     `json:"entities"`
	Paused        bool    `json:"paused"`
	WSClients     int     `json:"ws_clients"`
}

// Health returns overall service health plus tracking summary counters.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.engine == nil {
		status = "degraded"
	}

	var entities int
	var paused bool
	if h.engine != nil {
		entities = len(h.engine.Snapshot())
		paused = h.engine.Paused()
	}
	var wsClients int
	if h.wsHub != nil {
		wsClients = h.wsHub.ClientCount()
	}

	WriteSuccess(w, r, healthStatus{
		Status:        status,
		Version:       "1.0.0",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Entities:      entities,
		Paused:        paused,
		WSClients:     wsClients,
	})
}

// HealthLive is the Kubernetes-style liveness probe: 200 whenever the
// process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe: 200 once the tracking engine is wired
// up, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		NewResponseWriter(w, r).ServiceUnavailable("tracking engine not ready")
		return
	}
	WriteSuccess(w, r, map[string]interface{}{"ready": true})
}
