// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package fusion

import (
	"time"
)

// Snapshot is the current set of live markers, keyed by stable entity ID.
// A snapshot is immutable once published: Reconcile builds a complete new
// snapshot before returning, so concurrent readers see either the pre- or
// post-reconciliation state atomically.
type Snapshot map[string]TrackedEntity

// Clone returns a shallow copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, e := range s {
		out[id] = e
	}
	return out
}

// Reconciliation is the result of one registry pass: the new snapshot plus
// the deltas the rendering layer applies to its own visual state.
type Reconciliation struct {
	Snapshot Snapshot        `json:"-"`
	Added    []TrackedEntity `json:"added"`
	Updated  []TrackedEntity `json:"updated"`
	Removed  []string        `json:"removed"`
}

// Registry holds the reconciliation policy. It carries no entity state of
// its own; the caller threads the previous snapshot through each cycle.
type Registry struct {
	// AircraftStaleAfter is the age at which a live aircraft is marked
	// stale instead of active. Default 60s.
	AircraftStaleAfter time.Duration

	// MissThreshold is the number of consecutive cycles an entity may go
	// without a valid report before it is removed. 1 removes on the first
	// missing cycle. Default 1.
	MissThreshold int
}

// NewRegistry returns a registry with default policy.
func NewRegistry() *Registry {
	return &Registry{
		AircraftStaleAfter: 60 * time.Second,
		MissThreshold:      1,
	}
}

// Reconcile compares incoming reports against the previous snapshot and
// produces the new snapshot with add/update/remove deltas.
//
// Every entity ID present in the incoming reports lands in exactly one of
// Added or Updated; previous entities absent from the incoming set are
// carried until MissThreshold consecutive misses, then emitted in Removed.
// A feed that yields zero reports simply produces zero entities of its
// class — there is no error path.
func (r *Registry) Reconcile(now time.Time, prev Snapshot, reports []PositionReport) Reconciliation {
	threshold := r.MissThreshold
	if threshold < 1 {
		threshold = 1
	}

	next := make(Snapshot, len(reports))
	rec := Reconciliation{}

	seen := make(map[string]bool, len(reports))
	for _, report := range reports {
		if report.EntityID == "" {
			continue
		}
		// Last-applicable-result wins when duplicate IDs arrive in one
		// cycle (polling racing a streaming update): keep the newer one.
		if existing, dup := next[report.EntityID]; dup && existing.Location.ObservedAt.After(report.ObservedAt) {
			continue
		}

		class := ClassForEntityID(report.EntityID)
		entity := TrackedEntity{
			ID:         report.EntityID,
			Class:      class,
			Location:   report,
			Status:     r.deriveStatus(now, class, report),
			LastUpdate: now,
		}
		if class == ClassClient {
			entity.LocationSource = report.Source
		}

		if _, dup := next[report.EntityID]; !dup {
			if _, existed := prev[report.EntityID]; existed {
				rec.Updated = append(rec.Updated, entity)
			} else {
				rec.Added = append(rec.Added, entity)
			}
		}
		next[report.EntityID] = entity
		seen[report.EntityID] = true
	}

	// Deduplicated deltas can go stale if a later duplicate replaced the
	// entity; refresh them from the final snapshot.
	for i, e := range rec.Added {
		rec.Added[i] = next[e.ID]
	}
	for i, e := range rec.Updated {
		rec.Updated[i] = next[e.ID]
	}

	for id, entity := range prev {
		if seen[id] {
			continue
		}
		entity.misses++
		if entity.misses >= threshold {
			rec.Removed = append(rec.Removed, id)
			continue
		}
		// Carried entities keep their last location but their status may
		// decay (a live aircraft ages into stale).
		entity.Status = r.deriveStatus(now, entity.Class, entity.Location)
		next[id] = entity
	}

	rec.Snapshot = next
	return rec
}

// deriveStatus computes the class-specific display status for a report.
func (r *Registry) deriveStatus(now time.Time, class EntityClass, report PositionReport) EntityStatus {
	switch class {
	case ClassAircraft:
		if report.Payload.Replay {
			return StatusHistorical
		}
		staleAfter := r.AircraftStaleAfter
		if staleAfter <= 0 {
			staleAfter = 60 * time.Second
		}
		if !report.ObservedAt.IsZero() && now.Sub(report.ObservedAt) >= staleAfter {
			return StatusStale
		}
		return StatusActive

	case ClassSensor:
		// GPS-derived sensors need a full 3D fix to be trustworthy.
		if report.Payload.FixQuality != "" && report.Payload.FixQuality != "3D" {
			return StatusWarning
		}
		return StatusActive

	default:
		return StatusActive
	}
}
