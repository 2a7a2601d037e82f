// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package models defines the raw wire shapes returned by the upstream fleet
// API. Every feed spells coordinates differently (top-level latitude/longitude,
// abbreviated lat/lng or lat/lon, or nested under a source-specific object),
// so each record type preserves all the spellings it has been observed to use.
// The fusion adapters own the fallback order, not these types.
package models

import "time"

// GeoInfo is the nested geolocation object used by the client registry and
// the scan feeds. Populated from coarse IP-based geolocation.
type GeoInfo struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
}

// ClientRecord is one entry from the client registry collection.
// Coordinates may appear top-level (older agents) or nested under geo.
type ClientRecord struct {
	ID        string    `json:"id"`
	Hostname  string    `json:"hostname,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Geo       *GeoInfo  `json:"geo,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

// GPSFix is a position report from a hardware GPS daemon (gpsd TPV-style).
// Mode follows gpsd conventions: 0/1 no fix, 2 = 2D, 3 = 3D.
type GPSFix struct {
	ClientID  string    `json:"client_id"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Mode      int       `json:"mode"`
	Speed     *float64  `json:"speed,omitempty"`
	Time      time.Time `json:"time"`
}

// StarlinkLocation is the dish-reported GPS block inside Starlink telemetry.
type StarlinkLocation struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// StarlinkStatus is one device's telemetry snapshot from the Starlink feed.
// Newer firmware nests the fix under get_location; older exports it flat.
type StarlinkStatus struct {
	ClientID    string            `json:"client_id"`
	DeviceID    string            `json:"device_id,omitempty"`
	Latitude    *float64          `json:"latitude,omitempty"`
	Longitude   *float64          `json:"longitude,omitempty"`
	GetLocation *StarlinkLocation `json:"get_location,omitempty"`
	PopPingMs   *float64          `json:"pop_ping_latency_ms,omitempty"`
	Downlink    *float64          `json:"downlink_throughput_bps,omitempty"`
	Uplink      *float64          `json:"uplink_throughput_bps,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SensorReading is a geo-tagged reading from the latest-readings collection.
// A reading may be associated with a client, in which case it serves as a
// location candidate for that client.
type SensorReading struct {
	SensorID   string    `json:"sensor_id"`
	SensorType string    `json:"sensor_type,omitempty"`
	ClientID   string    `json:"client_id,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	FixQuality string    `json:"fix_quality,omitempty"`
	Value      *float64  `json:"value,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	ReadAt     time.Time `json:"read_at"`
}

// ADSBAircraft is one aircraft from the ADS-B snapshot or history feed,
// in the dump1090/readsb aircraft.json field layout.
type ADSBAircraft struct {
	Hex       string   `json:"hex"`
	Flight    string   `json:"flight,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	AltBaro   *float64 `json:"alt_baro,omitempty"`
	AltGeom   *float64 `json:"alt_geom,omitempty"`
	Track     *float64 `json:"track,omitempty"`
	Speed     *float64 `json:"gs,omitempty"`
	Squawk    string   `json:"squawk,omitempty"`
	Emergency string   `json:"emergency,omitempty"`
	// Seen and SeenPos are seconds since the last message / position.
	Seen    *float64 `json:"seen,omitempty"`
	SeenPos *float64 `json:"seen_pos,omitempty"`
	// Timestamp is set on history-feed rows; live snapshots omit it.
	Timestamp time.Time `json:"timestamp"`
}

// AISVessel is one vessel from the AIS feed.
type AISVessel struct {
	MMSI       string    `json:"mmsi"`
	Name       string    `json:"name,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Lat        *float64  `json:"lat,omitempty"`
	Lon        *float64  `json:"lon,omitempty"`
	SpeedKnots *float64  `json:"sog,omitempty"`
	Course     *float64  `json:"cog,omitempty"`
	ShipType   string    `json:"ship_type,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// APRSStation is one station from the APRS feed.
type APRSStation struct {
	Callsign  string    `json:"callsign"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	HeardAt   time.Time `json:"heard_at"`
}

// EPIRBBeacon is one distress beacon detection from the EPIRB feed.
type EPIRBBeacon struct {
	BeaconID   string    `json:"beacon_id"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
}

// WifiScan is one access point observation from the WiFi scanner feed.
// Coordinates are the scanner's position when the AP was heard.
type WifiScan struct {
	BSSID     string    `json:"bssid"`
	SSID      string    `json:"ssid,omitempty"`
	SignalDBM *float64  `json:"signal_dbm,omitempty"`
	Channel   int       `json:"channel,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Geo       *GeoInfo  `json:"geo,omitempty"`
	SeenAt    time.Time `json:"seen_at"`
}

// BluetoothScan is one device observation from the Bluetooth scanner feed.
type BluetoothScan struct {
	Address   string    `json:"address"`
	Name      string    `json:"name,omitempty"`
	RSSI      *float64  `json:"rssi,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Geo       *GeoInfo  `json:"geo,omitempty"`
	SeenAt    time.Time `json:"seen_at"`
}
