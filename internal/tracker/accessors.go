// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package tracker

import (
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/fusion"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
)

// Snapshot returns a copy of the current entity set, with hidden classes
// filtered out.
func (e *Engine) Snapshot() fusion.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(fusion.Snapshot, len(e.snapshot))
	for id, ent := range e.snapshot {
		if e.hidden[ent.Class] {
			continue
		}
		out[id] = ent
	}
	return out
}

// LastDeltas returns the deltas from the most recent applied cycle. The
// embedded snapshot is omitted; clients wanting full state use Snapshot.
func (e *Engine) LastDeltas() fusion.Reconciliation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return fusion.Reconciliation{
		Added:   append([]fusion.TrackedEntity(nil), e.lastRec.Added...),
		Updated: append([]fusion.TrackedEntity(nil), e.lastRec.Updated...),
		Removed: append([]string(nil), e.lastRec.Removed...),
	}
}

// Stats returns aggregate statistics. A non-empty clientFilter recomputes
// over the matching client's entities only; otherwise the cached cycle
// result is returned.
func (e *Engine) Stats(clientFilter string) fusion.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if clientFilter == "" {
		return e.stats
	}
	return fusion.ComputeStats(e.snapshot, clientFilter)
}

// Trails returns all renderable trails.
func (e *Engine) Trails() map[string]fusion.Trail {
	return e.trails.Renderable()
}

// Trail returns one entity's trail.
func (e *Engine) Trail(entityID string) (fusion.Trail, bool) {
	return e.trails.Get(entityID)
}

// PinTrail exempts an entity's trail from automatic eviction.
func (e *Engine) PinTrail(entityID string) {
	e.trails.Pin(entityID)
	logging.Info().Str("entity_id", entityID).Msg("trail pinned")
}

// UnpinTrail returns an entity's trail to the automatic population.
func (e *Engine) UnpinTrail(entityID string) {
	e.trails.Unpin(entityID)
	logging.Info().Str("entity_id", entityID).Msg("trail unpinned")
}

// TrailPinned reports whether an entity's trail is pinned.
func (e *Engine) TrailPinned(entityID string) bool {
	return e.trails.Pinned(entityID)
}

// ClearPinnedTrails unpins everything and deletes the pinned trails.
func (e *Engine) ClearPinnedTrails() {
	e.trails.ClearPinned()
	logging.Info().Msg("pinned trails cleared")
}

// SetRetention updates the default trail retention window.
func (e *Engine) SetRetention(d time.Duration) {
	e.trails.SetDefaultRetention(d)
}

// SetClassRetention updates the trail retention window for one class.
func (e *Engine) SetClassRetention(class fusion.EntityClass, d time.Duration) {
	e.trails.SetRetention(class, d)
}

// SetReplayWindow updates the aircraft history replay window. A positive
// window triggers re-seeding on the next tick.
func (e *Engine) SetReplayWindow(d time.Duration) {
	e.mu.Lock()
	e.replayWindow = d
	e.mu.Unlock()

	if d > 0 && e.upstream.ADSB {
		e.needsReplay.Store(true)
	}
}

// SetClassVisibility shows or hides an entity class in snapshots. Hidden
// classes are still tracked; only the read surface filters them.
func (e *Engine) SetClassVisibility(class fusion.EntityClass, visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if visible {
		delete(e.hidden, class)
	} else {
		e.hidden[class] = true
	}
}

// ClassVisible reports whether a class is currently shown.
func (e *Engine) ClassVisible(class fusion.EntityClass) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.hidden[class]
}

// Pause suspends the polling ticker. Live bus updates still apply.
func (e *Engine) Pause() {
	if e.paused.CompareAndSwap(false, true) {
		logging.Info().Msg("tracking paused")
	}
}

// Resume restarts the polling ticker.
func (e *Engine) Resume() {
	if e.paused.CompareAndSwap(true, false) {
		logging.Info().Msg("tracking resumed")
	}
}

// Paused reports whether polling is suspended.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}
