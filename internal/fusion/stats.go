// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package fusion

import (
	"github.com/tophatsecurity/aurorasensa-sub006/internal/geo"
)

// Stats summarizes the current registry snapshot for display: per-class
// counts, sensor sub-type counts, and the valid coordinate set for
// bounding-box computation. Derived by a pure function; no mutation, no I/O.
type Stats struct {
	Total       int                 `json:"total"`
	ByClass     map[EntityClass]int `json:"by_class"`
	ByStatus    map[EntityStatus]int `json:"by_status"`
	SensorTypes map[string]int      `json:"sensor_types,omitempty"`
	Coordinates []geo.Point         `json:"coordinates"`
	Bounds      *geo.BoundingBox    `json:"bounds,omitempty"`
}

// ComputeStats derives summary statistics from a snapshot. When clientFilter
// is non-empty, only the matching client entity (and no other classes)
// contributes — the dashboard's single-client focus mode.
func ComputeStats(snap Snapshot, clientFilter string) Stats {
	stats := Stats{
		ByClass:     make(map[EntityClass]int),
		ByStatus:    make(map[EntityStatus]int),
		SensorTypes: make(map[string]int),
	}

	filterID := ""
	if clientFilter != "" {
		filterID = ClientEntityID(clientFilter)
	}

	for id, entity := range snap {
		if filterID != "" && id != filterID {
			continue
		}

		stats.Total++
		stats.ByClass[entity.Class]++
		stats.ByStatus[entity.Status]++

		if entity.Class == ClassSensor && entity.Location.Payload.SensorType != "" {
			stats.SensorTypes[entity.Location.Payload.SensorType]++
		}

		if geo.IsValid(entity.Location.Lat, entity.Location.Lng) {
			stats.Coordinates = append(stats.Coordinates, geo.Point{
				Lat: entity.Location.Lat,
				Lng: entity.Location.Lng,
			})
		}
	}

	if box, ok := geo.ComputeBoundingBox(stats.Coordinates); ok {
		stats.Bounds = &box
	}
	return stats
}
