// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package fusion

import "time"

// Candidates holds at most one position report per source type for a single
// client entity within one resolution pass.
type Candidates map[SourceType]PositionReport

// Resolver selects the authoritative position for a client from candidate
// reports across all source types. It is a deterministic, side-effect-free
// reduction with no memory of previous passes: if a higher-priority source
// stops reporting, the next pass falls through to the next source
// automatically.
type Resolver struct {
	// Freshness is the maximum age a candidate may have, measured against
	// the pass's reference time, before it is skipped in favor of a fresher
	// lower-priority source. Zero disables the horizon and priority alone
	// decides.
	Freshness time.Duration
}

// Resolve walks SourcePriority in descending trust order and returns the
// first valid candidate. Candidates older than the freshness horizon are
// skipped. Returns false when no candidate survives — the resolver never
// fabricates a position.
func (r Resolver) Resolve(now time.Time, c Candidates) (PositionReport, bool) {
	for _, source := range SourcePriority {
		report, ok := c[source]
		if !ok {
			continue
		}
		if r.Freshness > 0 && !report.ObservedAt.IsZero() && now.Sub(report.ObservedAt) > r.Freshness {
			continue
		}
		return report, true
	}
	return PositionReport{}, false
}

// CandidateSet accumulates per-client candidates across all source feeds
// during one refresh cycle, keyed by client entity ID.
type CandidateSet map[string]Candidates

// Add records a candidate report. Within one cycle, a later report from the
// same source for the same client replaces an earlier one only if it is
// newer; polling and streaming paths may both contribute.
func (s CandidateSet) Add(report PositionReport) {
	c, ok := s[report.EntityID]
	if !ok {
		c = make(Candidates, len(SourcePriority))
		s[report.EntityID] = c
	}
	if prev, ok := c[report.Source]; ok && prev.ObservedAt.After(report.ObservedAt) {
		return
	}
	c[report.Source] = report
}

// ResolveAll resolves every client in the set, returning one authoritative
// report per client that had at least one fresh candidate.
func (s CandidateSet) ResolveAll(r Resolver, now time.Time) []PositionReport {
	resolved := make([]PositionReport, 0, len(s))
	for _, candidates := range s {
		if report, ok := r.Resolve(now, candidates); ok {
			resolved = append(resolved, report)
		}
	}
	return resolved
}
