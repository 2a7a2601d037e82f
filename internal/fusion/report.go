// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package fusion implements the multi-source geospatial entity fusion and
// tracking subsystem: source adapters that normalize heterogeneous upstream
// feeds into position reports, a priority-based per-client location resolver,
// the entity registry that computes add/update/remove deltas across refresh
// cycles, the bounded trail buffer, and the aggregate stats calculator.
//
// The package is pure in-memory reconciliation logic. It performs no I/O and
// owns no rendering concerns; the tracker package drives it once per refresh
// cycle and publishes the results.
package fusion

import (
	"strings"
	"time"
)

// SourceType identifies the upstream feed category a position report
// originated from.
type SourceType string

const (
	// SourceStarlink is a dish's own GPS fix from Starlink telemetry.
	// Meter-accurate and updated on every report.
	SourceStarlink SourceType = "starlink"

	// SourceGPS is a dedicated hardware GPS receiver (gpsd).
	SourceGPS SourceType = "gps"

	// SourceSensor is a position inferred from a co-located geo-tagged sensor.
	SourceSensor SourceType = "sensor"

	// SourceIPGeo is coarse IP-based geolocation. City-accurate at best
	// and effectively static.
	SourceIPGeo SourceType = "ip-geo"

	// SourceUnknown marks reports whose origin could not be classified.
	SourceUnknown SourceType = "unknown"
)

// SourcePriority is the total trust order over client location sources,
// most trustworthy first. The resolver walks this order and takes the first
// valid candidate; sources differ in accuracy by an order of magnitude, so
// strict override is used instead of blending.
var SourcePriority = []SourceType{SourceStarlink, SourceGPS, SourceSensor, SourceIPGeo}

// EntityClass categorizes trackable things shown on the map.
type EntityClass string

const (
	ClassSensor   EntityClass = "sensor"
	ClassClient   EntityClass = "client"
	ClassAircraft EntityClass = "aircraft"
	ClassVessel   EntityClass = "vessel"
	ClassWireless EntityClass = "wireless-detection"
	ClassUnknown  EntityClass = "unknown"
)

// EntityStatus is the lifecycle/display state of a tracked entity.
type EntityStatus string

const (
	StatusActive     EntityStatus = "active"
	StatusStale      EntityStatus = "stale"
	StatusHistorical EntityStatus = "historical"
	StatusWarning    EntityStatus = "warning"
)

// Entity ID prefixes. IDs are stable and globally unique across entity
// classes; the prefix doubles as the class discriminator.
const (
	prefixSensor    = "sensor-"
	prefixClient    = "client-"
	prefixAircraft  = "adsb-"
	prefixVessel    = "vessel-"
	prefixAPRS      = "aprs-"
	prefixEPIRB     = "epirb-"
	prefixWifi      = "wifi-"
	prefixBluetooth = "bt-"
)

// SensorEntityID returns the registry key for a sensor.
func SensorEntityID(id string) string { return prefixSensor + id }

// ClientEntityID returns the registry key for a client device.
func ClientEntityID(id string) string { return prefixClient + id }

// AircraftEntityID returns the registry key for an ADS-B aircraft hex code.
func AircraftEntityID(hex string) string { return prefixAircraft + strings.ToLower(hex) }

// VesselEntityID returns the registry key for an AIS vessel MMSI.
func VesselEntityID(mmsi string) string { return prefixVessel + mmsi }

// APRSEntityID returns the registry key for an APRS station callsign.
func APRSEntityID(callsign string) string { return prefixAPRS + callsign }

// EPIRBEntityID returns the registry key for a distress beacon.
func EPIRBEntityID(id string) string { return prefixEPIRB + id }

// WifiEntityID returns the registry key for a WiFi access point BSSID.
func WifiEntityID(bssid string) string { return prefixWifi + strings.ToLower(bssid) }

// BluetoothEntityID returns the registry key for a Bluetooth device address.
func BluetoothEntityID(addr string) string { return prefixBluetooth + strings.ToLower(addr) }

// ClassForEntityID derives the entity class from an ID's prefix.
func ClassForEntityID(id string) EntityClass {
	switch {
	case strings.HasPrefix(id, prefixSensor):
		return ClassSensor
	case strings.HasPrefix(id, prefixClient):
		return ClassClient
	case strings.HasPrefix(id, prefixAircraft):
		return ClassAircraft
	case strings.HasPrefix(id, prefixVessel), strings.HasPrefix(id, prefixAPRS), strings.HasPrefix(id, prefixEPIRB):
		return ClassVessel
	case strings.HasPrefix(id, prefixWifi), strings.HasPrefix(id, prefixBluetooth):
		return ClassWireless
	default:
		return ClassUnknown
	}
}

// Payload carries source-specific attributes alongside a position report.
// Only the fields relevant to the report's source are populated.
type Payload struct {
	// ip-geo enrichment
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`

	// GPS fix quality: "2D" or "3D" (gpsd mode 2/3)
	FixQuality string `json:"fix_quality,omitempty"`

	// Sensor attributes
	SensorType string `json:"sensor_type,omitempty"`

	// Aircraft attributes
	Callsign  string   `json:"callsign,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
	Squawk    string   `json:"squawk,omitempty"`
	Emergency bool     `json:"emergency,omitempty"`

	// Vessel attributes
	VesselName string   `json:"vessel_name,omitempty"`
	SpeedKnots *float64 `json:"speed_knots,omitempty"`
	Course     *float64 `json:"course,omitempty"`

	// Wireless detection attributes
	SSID      string   `json:"ssid,omitempty"`
	SignalDBM *float64 `json:"signal_dbm,omitempty"`

	// Starlink link metrics
	PopPingMs *float64 `json:"pop_ping_ms,omitempty"`

	// Replay marks reports derived from a historical-replay feed rather
	// than a live snapshot.
	Replay bool `json:"replay,omitempty"`
}

// PositionReport is a single normalized observation produced by a source
// adapter. Reports are ephemeral: they live for one resolution pass and are
// only retained when copied into a trail.
type PositionReport struct {
	EntityID   string     `json:"entity_id"`
	Source     SourceType `json:"source_type"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	ObservedAt time.Time  `json:"observed_at"`
	Altitude   *float64   `json:"altitude,omitempty"`
	Payload    Payload    `json:"payload,omitempty"`
}

// TrackedEntity is a resolved, displayable marker. The registry owns the
// current set; the rendering layer receives copies and applies deltas to its
// own visual state.
type TrackedEntity struct {
	ID         string         `json:"id"`
	Class      EntityClass    `json:"class"`
	Location   PositionReport `json:"location"`
	Status     EntityStatus   `json:"status"`
	LastUpdate time.Time      `json:"last_update"`

	// LocationSource records which feed won the priority resolution.
	// Only meaningful for client entities.
	LocationSource SourceType `json:"location_source,omitempty"`

	// misses counts consecutive reconcile cycles without a valid report.
	// Internal to the registry's removal grace handling.
	misses int
}
