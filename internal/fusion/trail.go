// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package fusion

import (
	"sync"
	"time"
)

// TrailPoint is one position sample in an entity's history.
type TrailPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Altitude  *float64  `json:"altitude,omitempty"`
}

// Trail is the time-ordered position history for one entity. Timestamps are
// strictly non-decreasing; a trail with fewer than 2 points is not renderable.
type Trail []TrailPoint

// minRenderablePoints is the shortest trail worth handing to a renderer.
const minRenderablePoints = 2

// TrailBufferConfig parametrizes retention.
type TrailBufferConfig struct {
	// DefaultRetention is the wall-clock window points survive when the
	// entity's class has no override. Default 60 minutes.
	DefaultRetention time.Duration

	// RetentionByClass overrides the window per entity class (aircraft
	// replay windows are typically shorter than GPS trails).
	RetentionByClass map[EntityClass]time.Duration

	// MaxPoints caps the number of points per trail. Oldest points are
	// dropped first. Zero disables the cap.
	MaxPoints int
}

// DefaultTrailBufferConfig returns the standard 60-minute window with no
// point cap.
func DefaultTrailBufferConfig() TrailBufferConfig {
	return TrailBufferConfig{DefaultRetention: 60 * time.Minute}
}

// TrailBuffer accumulates ordered position history per tracked entity with
// bounded memory. It is the only writer to trail contents.
//
// Two populations share the buffer: automatically maintained trails for
// whole entity classes, and user-pinned trails for individually selected
// entities. Pinned trails are exempt from automatic eviction and persist
// until explicitly unpinned or cleared.
type TrailBuffer struct {
	mu     sync.RWMutex
	trails map[string]Trail
	pinned map[string]bool
	cfg    TrailBufferConfig
}

// NewTrailBuffer creates an empty buffer with the given config.
func NewTrailBuffer(cfg TrailBufferConfig) *TrailBuffer {
	if cfg.DefaultRetention <= 0 {
		cfg.DefaultRetention = 60 * time.Minute
	}
	return &TrailBuffer{
		trails: make(map[string]Trail),
		pinned: make(map[string]bool),
		cfg:    cfg,
	}
}

// Append adds a point to an entity's trail. A point whose timestamp is not
// strictly greater than the trail's last point is a no-op — this is the
// safety net against duplicate or out-of-order delivery when a polling
// refresh races a streaming update. Returns whether the point was appended.
func (b *TrailBuffer) Append(entityID string, pt TrailPoint) bool {
	if entityID == "" || pt.Timestamp.IsZero() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	trail := b.trails[entityID]
	if n := len(trail); n > 0 && !pt.Timestamp.After(trail[n-1].Timestamp) {
		return false
	}

	trail = append(trail, pt)
	if b.cfg.MaxPoints > 0 && len(trail) > b.cfg.MaxPoints {
		trail = trail[len(trail)-b.cfg.MaxPoints:]
	}
	b.trails[entityID] = trail
	return true
}

// Prune evicts points older than the retention window and deletes trails
// left with zero points. Pinned trails are skipped. Idempotent: repeated
// calls with the same now are no-ops after the first.
func (b *TrailBuffer) Prune(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, trail := range b.trails {
		if b.pinned[id] {
			continue
		}

		cutoff := now.Add(-b.retentionFor(id))
		// Points are time-ordered, so find the first survivor.
		keep := len(trail)
		for i, pt := range trail {
			if pt.Timestamp.After(cutoff) {
				keep = i
				break
			}
		}
		if keep == 0 {
			continue
		}
		if keep == len(trail) {
			delete(b.trails, id)
			continue
		}
		b.trails[id] = append(Trail(nil), trail[keep:]...)
	}
}

// Get returns a copy of an entity's trail. The second return is false when
// the entity has no trail at all — a pruned-away trail is absent, never an
// empty sequence keyed by a dead ID.
func (b *TrailBuffer) Get(entityID string) (Trail, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	trail, ok := b.trails[entityID]
	if !ok {
		return nil, false
	}
	return append(Trail(nil), trail...), true
}

// Renderable returns copies of all trails long enough to draw, with pinned
// entities always included when they qualify.
func (b *TrailBuffer) Renderable() map[string]Trail {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]Trail)
	for id, trail := range b.trails {
		if len(trail) < minRenderablePoints {
			continue
		}
		out[id] = append(Trail(nil), trail...)
	}
	return out
}

// Pin marks an entity's trail as user-selected: exempt from automatic
// eviction until unpinned.
func (b *TrailBuffer) Pin(entityID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pinned[entityID] = true
}

// Unpin removes the manual selection for one entity. Its trail rejoins the
// automatic population and is pruned on the next cycle like any other.
func (b *TrailBuffer) Unpin(entityID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pinned, entityID)
}

// ClearPinned drops all manual selections and immediately deletes their
// trails, the explicit-clear required by the UI's "clear trails" action.
func (b *TrailBuffer) ClearPinned() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.pinned {
		delete(b.trails, id)
	}
	b.pinned = make(map[string]bool)
}

// Pinned reports whether an entity is currently pinned.
func (b *TrailBuffer) Pinned(entityID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pinned[entityID]
}

// SetRetention updates the retention window for one entity class.
func (b *TrailBuffer) SetRetention(class EntityClass, d time.Duration) {
	if d <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cfg.RetentionByClass == nil {
		b.cfg.RetentionByClass = make(map[EntityClass]time.Duration)
	}
	b.cfg.RetentionByClass[class] = d
}

// SetDefaultRetention updates the default retention window.
func (b *TrailBuffer) SetDefaultRetention(d time.Duration) {
	if d <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.DefaultRetention = d
}

// Len returns the number of points currently held for an entity.
func (b *TrailBuffer) Len(entityID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.trails[entityID])
}

// PointCount returns the total number of points across all trails.
func (b *TrailBuffer) PointCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, trail := range b.trails {
		total += len(trail)
	}
	return total
}

// retentionFor resolves the retention window for an entity ID.
// Must be called with the lock held.
func (b *TrailBuffer) retentionFor(entityID string) time.Duration {
	if d, ok := b.cfg.RetentionByClass[ClassForEntityID(entityID)]; ok && d > 0 {
		return d
	}
	return b.cfg.DefaultRetention
}
