// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package tracker runs the refresh engine: each tick it fetches all enabled
// feeds, adapts and fuses them into position reports, reconciles the entity
// registry, maintains trails and stats, and publishes an atomic snapshot
// for the API and websocket layers.
//
// The engine owns all mutable tracking state explicitly; nothing here is a
// package-level global.
package tracker

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/config"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/feeds"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/fusion"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/geo"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/metrics"
)

// Broadcaster pushes updates to connected dashboards. Implemented by the
// websocket hub; a no-op implementation serves tests.
type Broadcaster interface {
	BroadcastMapDelta(rec *fusion.Reconciliation)
	BroadcastTrailUpdate(entityID string, pt fusion.TrailPoint)
	BroadcastStatsUpdate(stats fusion.Stats)
}

// ReportPublisher fans accepted reports out on the event bus. Optional.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *fusion.PositionReport) error
}

// Engine is the refresh-cycle service. It implements suture.Service via
// Serve.
type Engine struct {
	source    feeds.Source
	hub       Broadcaster
	publisher ReportPublisher

	registry *fusion.Registry
	resolver fusion.Resolver
	trails   *fusion.TrailBuffer

	interval time.Duration
	upstream config.UpstreamConfig

	mu           sync.RWMutex
	snapshot     fusion.Snapshot
	lastRec      fusion.Reconciliation
	stats        fusion.Stats
	replayWindow time.Duration
	hidden       map[fusion.EntityClass]bool

	paused      atomic.Bool
	cycleSeq    atomic.Uint64
	needsReplay atomic.Bool
}

// NewEngine builds an engine from configuration. hub may not be nil;
// publisher may be nil when the event bus is disabled.
func NewEngine(cfg *config.Config, source feeds.Source, hub Broadcaster, publisher ReportPublisher) *Engine {
	registry := fusion.NewRegistry()
	registry.MissThreshold = cfg.Refresh.MissThreshold
	registry.AircraftStaleAfter = cfg.Refresh.AircraftStaleAfter

	trailCfg := fusion.DefaultTrailBufferConfig()
	trailCfg.DefaultRetention = cfg.Trails.Retention()
	trailCfg.RetentionByClass = map[fusion.EntityClass]time.Duration{
		fusion.ClassAircraft: cfg.Trails.AircraftRetention(),
	}
	trailCfg.MaxPoints = cfg.Trails.MaxPoints

	e := &Engine{
		source:       source,
		hub:          hub,
		publisher:    publisher,
		registry:     registry,
		resolver:     fusion.Resolver{Freshness: cfg.Refresh.Freshness},
		trails:       fusion.NewTrailBuffer(trailCfg),
		interval:     cfg.Refresh.Interval,
		upstream:     cfg.Upstream,
		snapshot:     fusion.Snapshot{},
		replayWindow: cfg.Trails.ReplayWindow(),
		hidden:       map[fusion.EntityClass]bool{},
	}
	if e.replayWindow > 0 && e.upstream.ADSB {
		e.needsReplay.Store(true)
	}
	return e
}

// String names the service in supervisor logs.
func (e *Engine) String() string { return "tracker-engine" }

// Serve runs the refresh loop until the context is canceled. An immediate
// first refresh precedes the ticker so the map is populated at startup.
func (e *Engine) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", e.interval).
		Msg("tracker engine started")

	e.maybeSeedReplay(ctx)
	e.refresh(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "tracker-engine").Msg("tracker engine stopped")
			return ctx.Err()
		case <-ticker.C:
			if e.paused.Load() {
				continue
			}
			e.maybeSeedReplay(ctx)
			e.refresh(ctx)
		}
	}
}

// refresh executes one full polling cycle. Results from a cycle that was
// superseded by a newer one while fetching are discarded.
func (e *Engine) refresh(ctx context.Context) {
	seq := e.cycleSeq.Add(1)

	fetchCtx, cancel := context.WithTimeout(ctx, e.interval)
	defer cancel()
	reports := e.collect(fetchCtx)

	if e.cycleSeq.Load() != seq {
		metrics.RefreshCycles.WithLabelValues("superseded").Inc()
		logging.Debug().Uint64("cycle", seq).Msg("discarding superseded refresh cycle")
		return
	}
	if ctx.Err() != nil {
		metrics.RefreshCycles.WithLabelValues("failed").Inc()
		return
	}

	now := time.Now()
	start := now

	e.mu.Lock()
	rec := e.registry.Reconcile(now, e.snapshot, reports)
	e.snapshot = rec.Snapshot
	e.lastRec = rec
	appended := e.appendTrailPoints(rec)
	e.trails.Prune(now)
	stats := fusion.ComputeStats(rec.Snapshot, "")
	e.stats = stats
	e.mu.Unlock()

	e.recordCycleMetrics(start, stats)
	metrics.RefreshCycles.WithLabelValues("applied").Inc()

	e.hub.BroadcastMapDelta(&rec)
	for _, tu := range appended {
		e.hub.BroadcastTrailUpdate(tu.entityID, tu.point)
	}
	e.hub.BroadcastStatsUpdate(stats)
	e.publishReports(ctx, reports)

	logging.Debug().
		Uint64("cycle", seq).
		Int("reports", len(reports)).
		Int("added", len(rec.Added)).
		Int("updated", len(rec.Updated)).
		Int("removed", len(rec.Removed)).
		Msg("refresh cycle applied")
}

type trailAppend struct {
	entityID string
	point    fusion.TrailPoint
}

// appendTrailPoints records precise positions (aircraft and GPS-resolved
// clients) into the trail buffer. Caller holds e.mu.
func (e *Engine) appendTrailPoints(rec fusion.Reconciliation) []trailAppend {
	var appended []trailAppend
	record := func(ent fusion.TrackedEntity) {
		switch {
		case ent.Class == fusion.ClassAircraft:
		case ent.Class == fusion.ClassClient && ent.LocationSource == fusion.SourceGPS:
		default:
			return
		}
		pt := fusion.TrailPoint{
			Lat:       ent.Location.Lat,
			Lng:       ent.Location.Lng,
			Timestamp: ent.Location.ObservedAt,
			Altitude:  ent.Location.Altitude,
		}
		if e.trails.Append(ent.ID, pt) {
			appended = append(appended, trailAppend{entityID: ent.ID, point: pt})
		}
	}
	for _, ent := range rec.Added {
		record(ent)
	}
	for _, ent := range rec.Updated {
		record(ent)
	}
	return appended
}

func (e *Engine) recordCycleMetrics(start time.Time, stats fusion.Stats) {
	byClass := make(map[string]int, len(stats.ByClass))
	for class, n := range stats.ByClass {
		byClass[string(class)] = n
	}
	metrics.RecordReconcile(time.Since(start), byClass)
	metrics.UpdateTrailGauges(len(e.trails.Renderable()), e.trails.PointCount())
}

func (e *Engine) publishReports(ctx context.Context, reports []fusion.PositionReport) {
	if e.publisher == nil {
		return
	}
	for i := range reports {
		if err := e.publisher.PublishReport(ctx, &reports[i]); err != nil {
			logging.Warn().Err(err).Str("entity_id", reports[i].EntityID).Msg("failed to publish position update")
			return
		}
	}
}

// collect fetches every enabled feed concurrently and returns the adapted,
// resolved report set. Feed failures contribute zero reports, never errors.
func (e *Engine) collect(ctx context.Context) []fusion.PositionReport {
	now := time.Now()

	var mu sync.Mutex
	var reports []fusion.PositionReport
	candidates := fusion.CandidateSet{}

	addReport := func(r fusion.PositionReport) {
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
		metrics.ReportsAccepted.WithLabelValues(string(r.Source)).Inc()
	}
	addCandidate := func(r fusion.PositionReport) {
		mu.Lock()
		candidates.Add(r)
		mu.Unlock()
	}
	discard := func(source fusion.SourceType, reason string) {
		metrics.ReportsDiscarded.WithLabelValues(string(source), reason).Inc()
	}

	var wg sync.WaitGroup
	fetch := func(enabled bool, name string, fn func() (int, error)) {
		if !enabled {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			n, err := fn()
			metrics.RecordFeedFetch(name, time.Since(start), n, err)
			if err != nil {
				logging.Warn().Err(err).Str("feed", name).Msg("feed fetch failed, contributing zero reports")
			}
		}()
	}

	fetch(e.upstream.Clients, "clients", func() (int, error) {
		records, err := e.source.Clients(ctx)
		if err != nil {
			return 0, err
		}
		for _, rec := range records {
			if report, ok := fusion.AdaptClientRecord(rec); ok {
				addCandidate(report)
			} else {
				discard(fusion.SourceIPGeo, "invalid_coords")
			}
		}
		return len(records), nil
	})

	fetch(e.upstream.GPS, "gps", func() (int, error) {
		fix, err := e.source.GPS(ctx)
		if err != nil {
			return 0, err
		}
		if fix.ClientID == "" {
			return 1, nil
		}
		if report, ok := fusion.AdaptGPSFix(*fix); ok {
			addCandidate(report)
		} else if fix.Mode < 2 {
			discard(fusion.SourceGPS, "no_fix")
		} else {
			discard(fusion.SourceGPS, "invalid_coords")
		}
		return 1, nil
	})

	fetch(e.upstream.Starlink, "starlink", func() (int, error) {
		st, err := e.source.Starlink(ctx)
		if err != nil {
			return 0, err
		}
		if st.ClientID == "" {
			return 1, nil
		}
		if report, ok := fusion.AdaptStarlinkStatus(*st); ok {
			addCandidate(report)
		} else {
			discard(fusion.SourceStarlink, "invalid_coords")
		}
		return 1, nil
	})

	fetch(e.upstream.Sensors, "sensors", func() (int, error) {
		readings, err := e.source.SensorReadings(ctx)
		if err != nil {
			return 0, err
		}
		for _, r := range readings {
			if report, ok := fusion.AdaptSensorReading(r); ok {
				addReport(report)
			} else {
				discard(fusion.SourceSensor, "invalid_coords")
			}
			if report, ok := fusion.AdaptSensorAsClientCandidate(r); ok {
				addCandidate(report)
			}
		}
		return len(readings), nil
	})

	fetch(e.upstream.ADSB, "adsb", func() (int, error) {
		aircraft, err := e.source.Aircraft(ctx)
		if err != nil {
			return 0, err
		}
		for _, a := range aircraft {
			if report, ok := fusion.AdaptAircraft(a, now, false); ok {
				addReport(report)
			} else {
				discard(fusion.SourceSensor, "invalid_coords")
			}
		}
		return len(aircraft), nil
	})

	fetch(e.upstream.AIS, "ais", func() (int, error) {
		vessels, err := e.source.Vessels(ctx)
		if err != nil {
			return 0, err
		}
		for _, v := range vessels {
			if report, ok := fusion.AdaptVessel(v); ok {
				addReport(report)
			} else {
				discard(fusion.SourceSensor, "invalid_coords")
			}
		}
		return len(vessels), nil
	})

	fetch(e.upstream.APRS, "aprs", func() (int, error) {
		stations, err := e.source.APRSStations(ctx)
		if err != nil {
			return 0, err
		}
		for _, s := range stations {
			if report, ok := fusion.AdaptAPRSStation(s); ok {
				addReport(report)
			}
		}
		return len(stations), nil
	})

	fetch(e.upstream.EPIRB, "epirb", func() (int, error) {
		beacons, err := e.source.EPIRBBeacons(ctx)
		if err != nil {
			return 0, err
		}
		for _, b := range beacons {
			if report, ok := fusion.AdaptEPIRBBeacon(b); ok {
				addReport(report)
			}
		}
		return len(beacons), nil
	})

	fetch(e.upstream.Wifi, "wifi", func() (int, error) {
		scans, err := e.source.WifiScans(ctx)
		if err != nil {
			return 0, err
		}
		for _, w := range scans {
			if report, ok := fusion.AdaptWifiScan(w); ok {
				addReport(report)
			} else {
				discard(fusion.SourceSensor, "invalid_coords")
			}
		}
		return len(scans), nil
	})

	fetch(e.upstream.Bluetooth, "bluetooth", func() (int, error) {
		scans, err := e.source.BluetoothScans(ctx)
		if err != nil {
			return 0, err
		}
		for _, b := range scans {
			if report, ok := fusion.AdaptBluetoothScan(b); ok {
				addReport(report)
			} else {
				discard(fusion.SourceSensor, "invalid_coords")
			}
		}
		return len(scans), nil
	})

	wg.Wait()

	// Clients resolve last: every source had its chance to contribute a
	// candidate before priority resolution runs.
	resolved := candidates.ResolveAll(e.resolver, now)
	for _, r := range resolved {
		metrics.ReportsAccepted.WithLabelValues(string(r.Source)).Inc()
	}
	return append(reports, resolved...)
}

// maybeSeedReplay performs the one-shot historical aircraft replay: bulk
// history rows seed trails and enter the registry marked historical.
func (e *Engine) maybeSeedReplay(ctx context.Context) {
	if !e.needsReplay.CompareAndSwap(true, false) {
		return
	}

	e.mu.RLock()
	window := e.replayWindow
	e.mu.RUnlock()
	if window <= 0 || !e.upstream.ADSB {
		return
	}

	start := time.Now()
	rows, err := e.source.AircraftHistory(ctx, window)
	metrics.RecordFeedFetch("adsb_history", time.Since(start), len(rows), err)
	if err != nil {
		logging.Warn().Err(err).Msg("aircraft history replay fetch failed")
		// Retry on the next tick.
		e.needsReplay.Store(true)
		return
	}

	now := time.Now()
	var replayReports []fusion.PositionReport
	for _, row := range rows {
		if report, ok := fusion.AdaptAircraft(row, now, true); ok {
			replayReports = append(replayReports, report)
		}
	}
	// Trail appends require ascending timestamps per entity.
	sort.Slice(replayReports, func(i, j int) bool {
		return replayReports[i].ObservedAt.Before(replayReports[j].ObservedAt)
	})

	e.mu.Lock()
	for _, report := range replayReports {
		e.trails.Append(report.EntityID, fusion.TrailPoint{
			Lat:       report.Lat,
			Lng:       report.Lng,
			Timestamp: report.ObservedAt,
			Altitude:  report.Altitude,
		})
	}
	rec := e.registry.Reconcile(now, e.snapshot, replayReports)
	e.snapshot = rec.Snapshot
	e.mu.Unlock()

	logging.Info().
		Int("rows", len(rows)).
		Int("reports", len(replayReports)).
		Dur("window", window).
		Msg("seeded aircraft history replay")
}

// ApplyLiveReport merges a single live position update between ticks. Used
// as the event bus subscriber handler. The report passes through the same
// reconcile path as polled reports.
func (e *Engine) ApplyLiveReport(_ context.Context, report fusion.PositionReport) {
	if report.EntityID == "" || !geo.IsValid(report.Lat, report.Lng) {
		metrics.ReportsDiscarded.WithLabelValues(string(report.Source), "invalid_coords").Inc()
		return
	}
	now := time.Now()

	e.mu.Lock()
	prevOne := fusion.Snapshot{}
	if ent, ok := e.snapshot[report.EntityID]; ok {
		prevOne[report.EntityID] = ent
	}
	rec := e.registry.Reconcile(now, prevOne, []fusion.PositionReport{report})
	if len(rec.Added) == 0 && len(rec.Updated) == 0 {
		e.mu.Unlock()
		return
	}
	for id, ent := range rec.Snapshot {
		e.snapshot[id] = ent
	}
	appended := e.appendTrailPoints(rec)
	stats := fusion.ComputeStats(e.snapshot, "")
	e.stats = stats
	e.mu.Unlock()

	e.hub.BroadcastMapDelta(&rec)
	for _, tu := range appended {
		e.hub.BroadcastTrailUpdate(tu.entityID, tu.point)
	}
}
