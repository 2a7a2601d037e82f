// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package validation wraps go-playground/validator v10 behind a thread-safe
// singleton with human-readable error translation and conversion to the API
// error envelope.
//
// Beyond the built-in rules (latitude, longitude, oneof, min/max, datetime)
// it registers two domain rules:
//
//   - entity_class: sensor, client, aircraft, vessel or wireless-detection
//   - source_type: starlink, gps, sensor or ip-geo
//
// Typical handler usage:
//
//	type TrailRequest struct {
//	    EntityID string `validate:"required,max=128"`
//	    Class    string `validate:"omitempty,entity_class"`
//	    MinLat   float64 `validate:"omitempty,latitude"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
//	    return
//	}
//
// The singleton caches struct reflection data, so repeated validation of the
// same request types is cheap and safe for concurrent use.
package validation
