// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package api

// UpdateSettingsRequest is the body for PUT /api/v1/map/settings. All fields
// are optional; absent fields leave the current setting untouched.
type UpdateSettingsRequest struct {
	// RetentionMinutes sets the default trail retention window.
	RetentionMinutes *int `json:"retention_minutes,omitempty" validate:"omitempty,min=1,max=1440"`

	// AircraftRetentionMinutes overrides retention for aircraft trails.
	AircraftRetentionMinutes *int `json:"aircraft_retention_minutes,omitempty" validate:"omitempty,min=1,max=1440"`

	// ReplayMinutes sets the aircraft history replay window. Zero disables
	// replay seeding.
	ReplayMinutes *int `json:"replay_minutes,omitempty" validate:"omitempty,min=0,max=1440"`

	// Visibility toggles entity classes on the map, keyed by class name.
	Visibility map[string]bool `json:"visibility,omitempty" validate:"omitempty,dive,keys,entity_class,endkeys"`
}

// snapshotQuery validates the class query parameter of GET /map/snapshot.
type snapshotQuery struct {
	Class string `validate:"omitempty,entity_class"`
}

// SettingsResponse reports the effective settings after an update.
type SettingsResponse struct {
	RetentionMinutes         int             `json:"retention_minutes"`
	AircraftRetentionMinutes int             `json:"aircraft_retention_minutes"`
	ReplayMinutes            int             `json:"replay_minutes"`
	Visibility               map[string]bool `json:"visibility"`
}
