// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package fusion

import (
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/geo"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/models"
)

// Source adapters normalize each upstream feed into PositionReports. Every
// adapter is a stateless function: a record that carries no usable coordinate
// pair yields (zero, false) — absence of data is expected and common, never
// an error. Invalid and sentinel (0,0) coordinates are gated out here so
// nothing downstream ever sees them.
//
// Field extraction uses an explicit ordered list of named extractors per
// feed, tried in sequence until one yields a valid pair. New source shapes
// are added by appending an extractor, not by growing a coalescing chain.

// coordExtractor is one named strategy for pulling a coordinate pair out of
// a raw feed record.
type coordExtractor[T any] struct {
	name    string
	extract func(T) (lat, lng *float64)
}

// extractCoords tries each extractor in order and returns the first pair
// that passes coordinate validation.
func extractCoords[T any](rec T, extractors []coordExtractor[T]) (float64, float64, bool) {
	for _, e := range extractors {
		lat, lng := e.extract(rec)
		if geo.IsValidPtr(lat, lng) {
			return *lat, *lng, true
		}
	}
	return 0, 0, false
}

var clientExtractors = []coordExtractor[models.ClientRecord]{
	{"latitude/longitude", func(c models.ClientRecord) (*float64, *float64) { return c.Latitude, c.Longitude }},
	{"lat/lng", func(c models.ClientRecord) (*float64, *float64) { return c.Lat, c.Lng }},
	{"geo object", func(c models.ClientRecord) (*float64, *float64) {
		if c.Geo == nil {
			return nil, nil
		}
		return c.Geo.Lat, c.Geo.Lng
	}},
}

// AdaptClientRecord maps a client registry entry to an ip-geo candidate
// report. The registry's coordinates come from coarse IP geolocation, so the
// report carries city/country for enrichment when it wins resolution.
func AdaptClientRecord(rec models.ClientRecord) (PositionReport, bool) {
	lat, lng, ok := extractCoords(rec, clientExtractors)
	if !ok {
		return PositionReport{}, false
	}

	var payload Payload
	if rec.Geo != nil {
		payload.City = rec.Geo.City
		payload.Country = rec.Geo.Country
	}

	observed := rec.LastSeen
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   ClientEntityID(rec.ID),
		Source:     SourceIPGeo,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Payload:    payload,
	}, true
}

var gpsExtractors = []coordExtractor[models.GPSFix]{
	{"lat/lon", func(f models.GPSFix) (*float64, *float64) { return f.Lat, f.Lon }},
	{"latitude/longitude", func(f models.GPSFix) (*float64, *float64) { return f.Latitude, f.Longitude }},
}

// AdaptGPSFix maps a gpsd TPV report to a gps candidate for its client.
// Fixes without a 2D or better mode are discarded: gpsd reports mode 0/1
// with garbage coordinates while acquiring satellites.
func AdaptGPSFix(fix models.GPSFix) (PositionReport, bool) {
	if fix.Mode < 2 {
		return PositionReport{}, false
	}
	lat, lng, ok := extractCoords(fix, gpsExtractors)
	if !ok {
		return PositionReport{}, false
	}

	quality := "2D"
	if fix.Mode >= 3 {
		quality = "3D"
	}

	observed := fix.Time
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   ClientEntityID(fix.ClientID),
		Source:     SourceGPS,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Altitude:   fix.Altitude,
		Payload:    Payload{FixQuality: quality},
	}, true
}

var starlinkExtractors = []coordExtractor[models.StarlinkStatus]{
	{"get_location", func(s models.StarlinkStatus) (*float64, *float64) {
		if s.GetLocation == nil {
			return nil, nil
		}
		return s.GetLocation.Latitude, s.GetLocation.Longitude
	}},
	{"flat latitude/longitude", func(s models.StarlinkStatus) (*float64, *float64) { return s.Latitude, s.Longitude }},
}

// AdaptStarlinkStatus maps Starlink dish telemetry to a starlink candidate
// for its client. The dish's own GPS is the most trusted client source.
func AdaptStarlinkStatus(st models.StarlinkStatus) (PositionReport, bool) {
	lat, lng, ok := extractCoords(st, starlinkExtractors)
	if !ok {
		return PositionReport{}, false
	}

	var alt *float64
	if st.GetLocation != nil {
		alt = st.GetLocation.Altitude
	}

	observed := st.UpdatedAt
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   ClientEntityID(st.ClientID),
		Source:     SourceStarlink,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Altitude:   alt,
		Payload:    Payload{PopPingMs: st.PopPingMs},
	}, true
}

var sensorExtractors = []coordExtractor[models.SensorReading]{
	{"latitude/longitude", func(r models.SensorReading) (*float64, *float64) { return r.Latitude, r.Longitude }},
	{"lat/lng", func(r models.SensorReading) (*float64, *float64) { return r.Lat, r.Lng }},
}

// AdaptSensorReading maps a geo-tagged sensor reading to a sensor-class
// report keyed by the sensor's own ID.
func AdaptSensorReading(r models.SensorReading) (PositionReport, bool) {
	lat, lng, ok := extractCoords(r, sensorExtractors)
	if !ok {
		return PositionReport{}, false
	}

	observed := r.ReadAt
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   SensorEntityID(r.SensorID),
		Source:     SourceSensor,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Payload: Payload{
			SensorType: r.SensorType,
			FixQuality: r.FixQuality,
		},
	}, true
}

// AdaptSensorAsClientCandidate maps a sensor reading to a sensor-source
// location candidate for the client the sensor is co-located with. Readings
// without a client association yield nothing.
func AdaptSensorAsClientCandidate(r models.SensorReading) (PositionReport, bool) {
	if r.ClientID == "" {
		return PositionReport{}, false
	}
	report, ok := AdaptSensorReading(r)
	if !ok {
		return PositionReport{}, false
	}
	report.EntityID = ClientEntityID(r.ClientID)
	return report, true
}

var aircraftExtractors = []coordExtractor[models.ADSBAircraft]{
	{"lat/lon", func(a models.ADSBAircraft) (*float64, *float64) { return a.Lat, a.Lon }},
}

// AdaptAircraft maps a dump1090-style aircraft record to an aircraft report.
// now anchors the observation time for live snapshots, which carry only a
// relative seen_pos age; history rows carry their own timestamp.
func AdaptAircraft(a models.ADSBAircraft, now time.Time, replay bool) (PositionReport, bool) {
	lat, lng, ok := extractCoords(a, aircraftExtractors)
	if !ok {
		return PositionReport{}, false
	}

	observed := a.Timestamp
	if observed.IsZero() {
		observed = now
		if a.SeenPos != nil {
			observed = now.Add(-time.Duration(*a.SeenPos * float64(time.Second)))
		}
	}

	alt := a.AltBaro
	if alt == nil {
		alt = a.AltGeom
	}

	return PositionReport{
		EntityID:   AircraftEntityID(a.Hex),
		Source:     SourceSensor,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Altitude:   alt,
		Payload: Payload{
			Callsign:  a.Flight,
			Heading:   a.Track,
			Squawk:    a.Squawk,
			Emergency: a.Emergency != "" && a.Emergency != "none",
			Replay:    replay,
		},
	}, true
}

var vesselExtractors = []coordExtractor[models.AISVessel]{
	{"latitude/longitude", func(v models.AISVessel) (*float64, *float64) { return v.Latitude, v.Longitude }},
	{"lat/lon", func(v models.AISVessel) (*float64, *float64) { return v.Lat, v.Lon }},
}

// AdaptVessel maps an AIS vessel record to a vessel report.
func AdaptVessel(v models.AISVessel) (PositionReport, bool) {
	lat, lng, ok := extractCoords(v, vesselExtractors)
	if !ok {
		return PositionReport{}, false
	}

	observed := v.ReceivedAt
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   VesselEntityID(v.MMSI),
		Source:     SourceSensor,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Payload: Payload{
			VesselName: v.Name,
			SpeedKnots: v.SpeedKnots,
			Course:     v.Course,
		},
	}, true
}

var aprsExtractors = []coordExtractor[models.APRSStation]{
	{"latitude/longitude", func(s models.APRSStation) (*float64, *float64) { return s.Latitude, s.Longitude }},
}

// AdaptAPRSStation maps an APRS station to a vessel-class report (the
// maritime receiver feeds share one map layer).
func AdaptAPRSStation(s models.APRSStation) (PositionReport, bool) {
	lat, lng, ok := extractCoords(s, aprsExtractors)
	if !ok {
		return PositionReport{}, false
	}

	observed := s.HeardAt
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   APRSEntityID(s.Callsign),
		Source:     SourceSensor,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Payload:    Payload{VesselName: s.Callsign},
	}, true
}

var epirbExtractors = []coordExtractor[models.EPIRBBeacon]{
	{"latitude/longitude", func(b models.EPIRBBeacon) (*float64, *float64) { return b.Latitude, b.Longitude }},
	{"lat/lng", func(b models.EPIRBBeacon) (*float64, *float64) { return b.Lat, b.Lng }},
}

// AdaptEPIRBBeacon maps a distress beacon detection to a vessel-class
// report flagged as an emergency.
func AdaptEPIRBBeacon(b models.EPIRBBeacon) (PositionReport, bool) {
	lat, lng, ok := extractCoords(b, epirbExtractors)
	if !ok {
		return PositionReport{}, false
	}

	observed := b.DetectedAt
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   EPIRBEntityID(b.BeaconID),
		Source:     SourceSensor,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Payload:    Payload{Emergency: true},
	}, true
}

var wifiExtractors = []coordExtractor[models.WifiScan]{
	{"latitude/longitude", func(w models.WifiScan) (*float64, *float64) { return w.Latitude, w.Longitude }},
	{"geo object", func(w models.WifiScan) (*float64, *float64) {
		if w.Geo == nil {
			return nil, nil
		}
		return w.Geo.Lat, w.Geo.Lng
	}},
}

// AdaptWifiScan maps a WiFi access point observation to a wireless-detection
// report keyed by BSSID.
func AdaptWifiScan(w models.WifiScan) (PositionReport, bool) {
	lat, lng, ok := extractCoords(w, wifiExtractors)
	if !ok {
		return PositionReport{}, false
	}

	observed := w.SeenAt
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   WifiEntityID(w.BSSID),
		Source:     SourceSensor,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Payload: Payload{
			SSID:      w.SSID,
			SignalDBM: w.SignalDBM,
		},
	}, true
}

var bluetoothExtractors = []coordExtractor[models.BluetoothScan]{
	{"latitude/longitude", func(b models.BluetoothScan) (*float64, *float64) { return b.Latitude, b.Longitude }},
	{"geo object", func(b models.BluetoothScan) (*float64, *float64) {
		if b.Geo == nil {
			return nil, nil
		}
		return b.Geo.Lat, b.Geo.Lng
	}},
}

// AdaptBluetoothScan maps a Bluetooth device observation to a
// wireless-detection report keyed by device address.
func AdaptBluetoothScan(b models.BluetoothScan) (PositionReport, bool) {
	lat, lng, ok := extractCoords(b, bluetoothExtractors)
	if !ok {
		return PositionReport{}, false
	}

	observed := b.SeenAt
	if observed.IsZero() {
		observed = time.Now()
	}

	return PositionReport{
		EntityID:   BluetoothEntityID(b.Address),
		Source:     SourceSensor,
		Lat:        lat,
		Lng:        lng,
		ObservedAt: observed,
		Payload: Payload{
			SSID:      b.Name,
			SignalDBM: b.RSSI,
		},
	}, true
}
