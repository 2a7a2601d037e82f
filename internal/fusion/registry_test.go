// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package fusion

import (
	"testing"
	"time"
)

func TestReconcileDeltaCompleteness(t *testing.T) {
	now := time.Now()
	r := NewRegistry()

	prev := Snapshot{
		"sensor-s1": {ID: "sensor-s1", Class: ClassSensor},
		"sensor-s2": {ID: "sensor-s2", Class: ClassSensor},
	}
	reports := []PositionReport{
		report("sensor-s1", SourceSensor, 47.6, -122.3, now), // existing -> updated
		report("sensor-s3", SourceSensor, 45.5, -122.6, now), // new -> added
	}

	rec := r.Reconcile(now, prev, reports)

	// Every incoming ID lands in exactly one of added/updated.
	inDeltas := map[string]int{}
	for _, e := range rec.Added {
		inDeltas[e.ID]++
	}
	for _, e := range rec.Updated {
		inDeltas[e.ID]++
	}
	for _, rep := range reports {
		if inDeltas[rep.EntityID] != 1 {
			t.Errorf("id %s appears %d times across added/updated, want exactly 1", rep.EntityID, inDeltas[rep.EntityID])
		}
	}

	if len(rec.Added) != 1 || rec.Added[0].ID != "sensor-s3" {
		t.Errorf("added = %v, want [sensor-s3]", rec.Added)
	}
	if len(rec.Updated) != 1 || rec.Updated[0].ID != "sensor-s1" {
		t.Errorf("updated = %v, want [sensor-s1]", rec.Updated)
	}
	if len(rec.Removed) != 1 || rec.Removed[0] != "sensor-s2" {
		t.Errorf("removed = %v, want [sensor-s2]", rec.Removed)
	}

	if len(rec.Snapshot) != 2 {
		t.Errorf("snapshot size = %d, want 2", len(rec.Snapshot))
	}
}

func TestReconcileEmptyIncoming(t *testing.T) {
	now := time.Now()
	r := NewRegistry()

	prev := Snapshot{"adsb-abc123": {ID: "adsb-abc123", Class: ClassAircraft}}
	rec := r.Reconcile(now, prev, nil)

	if len(rec.Added) != 0 || len(rec.Updated) != 0 {
		t.Error("empty incoming set should produce no added/updated entities")
	}
	if len(rec.Removed) != 1 {
		t.Errorf("removed = %v, want the lone previous entity", rec.Removed)
	}
	if len(rec.Snapshot) != 0 {
		t.Errorf("snapshot size = %d, want 0", len(rec.Snapshot))
	}
}

func TestReconcileMissThresholdGrace(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	r.MissThreshold = 3

	snap := Snapshot{}
	rec := r.Reconcile(now, snap, []PositionReport{report("vessel-123", SourceSensor, 58.0, 10.0, now)})
	snap = rec.Snapshot

	// Two missing cycles: carried, not removed.
	for cycle := 1; cycle <= 2; cycle++ {
		rec = r.Reconcile(now.Add(time.Duration(cycle)*time.Minute), snap, nil)
		if len(rec.Removed) != 0 {
			t.Fatalf("cycle %d: entity removed before miss threshold", cycle)
		}
		if _, ok := rec.Snapshot["vessel-123"]; !ok {
			t.Fatalf("cycle %d: entity not carried in snapshot", cycle)
		}
		snap = rec.Snapshot
	}

	// Third miss reaches the threshold.
	rec = r.Reconcile(now.Add(3*time.Minute), snap, nil)
	if len(rec.Removed) != 1 || rec.Removed[0] != "vessel-123" {
		t.Errorf("removed = %v, want [vessel-123] at third miss", rec.Removed)
	}
}

func TestReconcileAircraftStatus(t *testing.T) {
	now := time.Now()
	r := NewRegistry()

	tests := []struct {
		name   string
		report PositionReport
		want   EntityStatus
	}{
		{
			name:   "fresh live aircraft is active",
			report: report("adsb-abc123", SourceSensor, 47.0, -122.0, now.Add(-5*time.Second)),
			want:   StatusActive,
		},
		{
			name:   "aircraft unseen for 60s is stale",
			report: report("adsb-abc123", SourceSensor, 47.0, -122.0, now.Add(-61*time.Second)),
			want:   StatusStale,
		},
		{
			name: "replay-sourced aircraft is historical",
			report: PositionReport{
				EntityID: "adsb-abc123", Source: SourceSensor,
				Lat: 47.0, Lng: -122.0, ObservedAt: now,
				Payload: Payload{Replay: true},
			},
			want: StatusHistorical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := r.Reconcile(now, Snapshot{}, []PositionReport{tt.report})
			got := rec.Snapshot["adsb-abc123"].Status
			if got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReconcileSensorFixQualityStatus(t *testing.T) {
	now := time.Now()
	r := NewRegistry()

	rep3d := report("sensor-s1", SourceSensor, 47.0, -122.0, now)
	rep3d.Payload.FixQuality = "3D"
	rep2d := report("sensor-s2", SourceSensor, 47.0, -122.0, now)
	rep2d.Payload.FixQuality = "2D"

	rec := r.Reconcile(now, Snapshot{}, []PositionReport{rep3d, rep2d})

	if got := rec.Snapshot["sensor-s1"].Status; got != StatusActive {
		t.Errorf("3D fix status = %v, want active", got)
	}
	if got := rec.Snapshot["sensor-s2"].Status; got != StatusWarning {
		t.Errorf("2D fix status = %v, want warning", got)
	}
}

func TestReconcileClientLocationSource(t *testing.T) {
	now := time.Now()
	r := NewRegistry()

	rep := report("client-c1", SourceGPS, 47.601, -122.301, now)
	rec := r.Reconcile(now, Snapshot{}, []PositionReport{rep})

	entity := rec.Snapshot["client-c1"]
	if entity.LocationSource != SourceGPS {
		t.Errorf("location source = %v, want gps", entity.LocationSource)
	}
	if entity.Class != ClassClient {
		t.Errorf("class = %v, want client", entity.Class)
	}
}

func TestReconcileDuplicateIDKeepsNewest(t *testing.T) {
	now := time.Now()
	r := NewRegistry()

	older := report("adsb-abc123", SourceSensor, 40.0, -100.0, now.Add(-10*time.Second))
	newer := report("adsb-abc123", SourceSensor, 41.0, -101.0, now)

	// Newer first, older second: older must not clobber.
	rec := r.Reconcile(now, Snapshot{}, []PositionReport{newer, older})
	if got := rec.Snapshot["adsb-abc123"].Location.Lat; got != 41.0 {
		t.Errorf("lat = %v, want 41.0 (newest report wins)", got)
	}
	if len(rec.Added) != 1 {
		t.Errorf("added count = %d, want 1 despite duplicate reports", len(rec.Added))
	}
	if rec.Added[0].Location.Lat != 41.0 {
		t.Errorf("added delta lat = %v, want 41.0", rec.Added[0].Location.Lat)
	}
}

func TestReconcileCarriedAircraftDecaysToStale(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	r.MissThreshold = 5

	rec := r.Reconcile(now, Snapshot{}, []PositionReport{report("adsb-abc123", SourceSensor, 47.0, -122.0, now)})
	if got := rec.Snapshot["adsb-abc123"].Status; got != StatusActive {
		t.Fatalf("initial status = %v, want active", got)
	}

	// Carried with no new report 2 minutes later: status decays to stale.
	later := now.Add(2 * time.Minute)
	rec = r.Reconcile(later, rec.Snapshot, nil)
	if got := rec.Snapshot["adsb-abc123"].Status; got != StatusStale {
		t.Errorf("carried status = %v, want stale", got)
	}
}
