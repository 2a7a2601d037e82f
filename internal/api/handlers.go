// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/config"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/fusion"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/tracker"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/validation"
	ws "github.com/tophatsecurity/aurorasensa-sub006/internal/websocket"
)

// Handler serves the map dashboard endpoints.
type Handler struct {
	engine    *tracker.Engine
	wsHub     *ws.Hub
	config    *config.Config
	startTime time.Time

	// settings mirrors what has been applied to the engine so the settings
	// endpoint can report effective values.
	settingsMu sync.Mutex
	settings   SettingsResponse
}

// NewHandler creates a handler bound to the tracking engine and hub.
func NewHandler(cfg *config.Config, engine *tracker.Engine, hub *ws.Hub) *Handler {
	visibility := make(map[string]bool)
	for _, class := range []fusion.EntityClass{
		fusion.ClassSensor, fusion.ClassClient, fusion.ClassAircraft,
		fusion.ClassVessel, fusion.ClassWireless,
	} {
		visibility[string(class)] = true
	}

	return &Handler{
		engine:    engine,
		wsHub:     hub,
		config:    cfg,
		startTime: time.Now(),
		settings: SettingsResponse{
			RetentionMinutes:         cfg.Trails.RetentionMinutes,
			AircraftRetentionMinutes: cfg.Trails.AircraftRetentionMinutes,
			ReplayMinutes:            cfg.Trails.ReplayMinutes,
			Visibility:               visibility,
		},
	}
}

// snapshotResponse is the payload of GET /map/snapshot.
type snapshotResponse struct {
	Entities fusion.Snapshot `json:"entities"`
	Count    int             `json:"count"`
	Paused   bool            `json:"paused"`
}

// MapSnapshot returns the full current entity set, optionally narrowed to
// one class via the class query parameter.
func (h *Handler) MapSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	if class := r.URL.Query().Get("class"); class != "" {
		if verr := validation.ValidateStruct(&snapshotQuery{Class: class}); verr != nil {
			apiErr := verr.ToAPIError()
			NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
			return
		}
		for id, ent := range snap {
			if ent.Class != fusion.EntityClass(class) {
				delete(snap, id)
			}
		}
	}
	WriteSuccess(w, r, snapshotResponse{
		Entities: snap,
		Count:    len(snap),
		Paused:   h.engine.Paused(),
	})
}

// MapDeltas returns the add/update/remove deltas from the latest cycle.
func (h *Handler) MapDeltas(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.engine.LastDeltas())
}

// trailsResponse is the payload of GET /map/trails.
type trailsResponse struct {
	Trails map[string]fusion.Trail `json:"trails"`
	Count  int                     `json:"count"`
}

// MapTrails returns all renderable trails.
func (h *Handler) MapTrails(w http.ResponseWriter, r *http.Request) {
	trails := h.engine.Trails()
	WriteSuccess(w, r, trailsResponse{Trails: trails, Count: len(trails)})
}

// trailResponse is the payload of GET /map/trails/{id}.
type trailResponse struct {
	EntityID string       `json:"entity_id"`
	Points   fusion.Trail `json:"points"`
	Pinned   bool         `json:"pinned"`
}

// MapTrail returns one entity's trail.
func (h *Handler) MapTrail(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "id")
	if entityID == "" {
		NewResponseWriter(w, r).BadRequest("entity ID required")
		return
	}

	trail, ok := h.engine.Trail(entityID)
	if !ok {
		NewResponseWriter(w, r).NotFound("no trail for entity " + entityID)
		return
	}
	WriteSuccess(w, r, trailResponse{
		EntityID: entityID,
		Points:   trail,
		Pinned:   h.engine.TrailPinned(entityID),
	})
}

// MapStats returns aggregate statistics, optionally focused on one client
// via the client_id query parameter.
func (h *Handler) MapStats(w http.ResponseWriter, r *http.Request) {
	clientFilter := r.URL.Query().Get("client_id")
	WriteSuccess(w, r, h.engine.Stats(clientFilter))
}

// pinResponse is the payload of the trail pin endpoints.
type pinResponse struct {
	EntityID string `json:"entity_id"`
	Pinned   bool   `json:"pinned"`
}

// TrailPin exempts an entity's trail from automatic eviction.
func (h *Handler) TrailPin(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "id")
	if entityID == "" {
		NewResponseWriter(w, r).BadRequest("entity ID required")
		return
	}
	h.engine.PinTrail(entityID)
	WriteSuccess(w, r, pinResponse{EntityID: entityID, Pinned: true})
}

// TrailUnpin returns an entity's trail to the automatic population.
func (h *Handler) TrailUnpin(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "id")
	if entityID == "" {
		NewResponseWriter(w, r).BadRequest("entity ID required")
		return
	}
	h.engine.UnpinTrail(entityID)
	WriteSuccess(w, r, pinResponse{EntityID: entityID, Pinned: false})
}

// TrailPinsClear unpins everything and deletes the pinned trails.
func (h *Handler) TrailPinsClear(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearPinnedTrails()
	NewResponseWriter(w, r).NoContent()
}

// UpdateSettings applies trail retention, replay window and class
// visibility changes.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body: " + err.Error())
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	h.settingsMu.Lock()
	defer h.settingsMu.Unlock()

	if req.RetentionMinutes != nil {
		h.engine.SetRetention(time.Duration(*req.RetentionMinutes) * time.Minute)
		h.settings.RetentionMinutes = *req.RetentionMinutes
	}
	if req.AircraftRetentionMinutes != nil {
		h.engine.SetClassRetention(fusion.ClassAircraft, time.Duration(*req.AircraftRetentionMinutes)*time.Minute)
		h.settings.AircraftRetentionMinutes = *req.AircraftRetentionMinutes
	}
	if req.ReplayMinutes != nil {
		h.engine.SetReplayWindow(time.Duration(*req.ReplayMinutes) * time.Minute)
		h.settings.ReplayMinutes = *req.ReplayMinutes
	}
	for class, visible := range req.Visibility {
		h.engine.SetClassVisibility(fusion.EntityClass(class), visible)
		h.settings.Visibility[class] = visible
	}

	logging.Ctx(r.Context()).Info().
		Interface("settings", h.settings).
		Msg("map settings updated")
	WriteSuccess(w, r, h.settings)
}

// GetSettings reports the effective map settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.settingsMu.Lock()
	defer h.settingsMu.Unlock()
	WriteSuccess(w, r, h.settings)
}

// trackingResponse is the payload of the pause/resume endpoints.
type trackingResponse struct {
	Paused bool `json:"paused"`
}

// TrackingPause suspends the polling ticker.
func (h *Handler) TrackingPause(w http.ResponseWriter, r *http.Request) {
	h.engine.Pause()
	WriteSuccess(w, r, trackingResponse{Paused: true})
}

// TrackingResume restarts the polling ticker.
func (h *Handler) TrackingResume(w http.ResponseWriter, r *http.Request) {
	h.engine.Resume()
	WriteSuccess(w, r, trackingResponse{Paused: false})
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins. Browser WebSockets always send Origin; requests
// without one are rejected since they bypass CORS entirely.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	if h.config == nil {
		return true
	}
	for _, allowed := range h.config.API.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades the connection and registers the client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("websocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
