// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package fusion

import (
	"testing"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/models"
)

func f64(v float64) *float64 { return &v }

func TestAdaptClientRecordExtractorChain(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		rec     models.ClientRecord
		wantLat float64
		wantOK  bool
	}{
		{
			name:    "top-level latitude/longitude",
			rec:     models.ClientRecord{ID: "c1", Latitude: f64(47.6), Longitude: f64(-122.3), LastSeen: now},
			wantLat: 47.6,
			wantOK:  true,
		},
		{
			name:    "abbreviated lat/lng",
			rec:     models.ClientRecord{ID: "c1", Lat: f64(45.5), Lng: f64(-122.6), LastSeen: now},
			wantLat: 45.5,
			wantOK:  true,
		},
		{
			name: "nested geo object",
			rec: models.ClientRecord{
				ID:       "c1",
				Geo:      &models.GeoInfo{Lat: f64(40.7), Lng: f64(-74.0), City: "New York", Country: "US"},
				LastSeen: now,
			},
			wantLat: 40.7,
			wantOK:  true,
		},
		{
			name: "top-level wins over nested",
			rec: models.ClientRecord{
				ID:       "c1",
				Latitude: f64(47.6), Longitude: f64(-122.3),
				Geo:      &models.GeoInfo{Lat: f64(40.7), Lng: f64(-74.0)},
				LastSeen: now,
			},
			wantLat: 47.6,
			wantOK:  true,
		},
		{
			name: "invalid top-level falls through to nested",
			rec: models.ClientRecord{
				ID:       "c1",
				Latitude: f64(0), Longitude: f64(0), // sentinel, skipped
				Geo:      &models.GeoInfo{Lat: f64(40.7), Lng: f64(-74.0)},
				LastSeen: now,
			},
			wantLat: 40.7,
			wantOK:  true,
		},
		{
			name:   "no coordinates anywhere",
			rec:    models.ClientRecord{ID: "c1", LastSeen: now},
			wantOK: false,
		},
		{
			name:   "out-of-range coordinates",
			rec:    models.ClientRecord{ID: "c1", Latitude: f64(91), Longitude: f64(-122), LastSeen: now},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AdaptClientRecord(tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Lat != tt.wantLat {
				t.Errorf("lat = %v, want %v", got.Lat, tt.wantLat)
			}
			if got.Source != SourceIPGeo {
				t.Errorf("source = %v, want ip-geo", got.Source)
			}
			if got.EntityID != "client-c1" {
				t.Errorf("entity id = %v, want client-c1", got.EntityID)
			}
		})
	}
}

func TestAdaptClientRecordCarriesGeoEnrichment(t *testing.T) {
	rec := models.ClientRecord{
		ID:  "c9",
		Geo: &models.GeoInfo{Lat: f64(51.5), Lng: f64(-0.12), City: "London", Country: "GB"},
	}
	got, ok := AdaptClientRecord(rec)
	if !ok {
		t.Fatal("expected a report")
	}
	if got.Payload.City != "London" || got.Payload.Country != "GB" {
		t.Errorf("payload = %+v, want city/country enrichment", got.Payload)
	}
}

func TestAdaptGPSFix(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		fix         models.GPSFix
		wantOK      bool
		wantQuality string
	}{
		{
			name:        "3D fix via lat/lon",
			fix:         models.GPSFix{ClientID: "c1", Lat: f64(47.6), Lon: f64(-122.3), Mode: 3, Time: now},
			wantOK:      true,
			wantQuality: "3D",
		},
		{
			name:        "2D fix via latitude/longitude",
			fix:         models.GPSFix{ClientID: "c1", Latitude: f64(47.6), Longitude: f64(-122.3), Mode: 2, Time: now},
			wantOK:      true,
			wantQuality: "2D",
		},
		{
			name:   "no fix mode discarded",
			fix:    models.GPSFix{ClientID: "c1", Lat: f64(47.6), Lon: f64(-122.3), Mode: 1, Time: now},
			wantOK: false,
		},
		{
			name:   "zero sentinel discarded",
			fix:    models.GPSFix{ClientID: "c1", Lat: f64(0), Lon: f64(0), Mode: 3, Time: now},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AdaptGPSFix(tt.fix)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Source != SourceGPS {
				t.Errorf("source = %v, want gps", got.Source)
			}
			if got.Payload.FixQuality != tt.wantQuality {
				t.Errorf("fix quality = %v, want %v", got.Payload.FixQuality, tt.wantQuality)
			}
		})
	}
}

func TestAdaptStarlinkStatusNestedLocationWins(t *testing.T) {
	st := models.StarlinkStatus{
		ClientID: "c1",
		Latitude: f64(10), Longitude: f64(20), // legacy flat export
		GetLocation: &models.StarlinkLocation{
			Latitude: f64(47.6), Longitude: f64(-122.3), Altitude: f64(120),
		},
		UpdatedAt: time.Now(),
	}

	got, ok := AdaptStarlinkStatus(st)
	if !ok {
		t.Fatal("expected a report")
	}
	if got.Lat != 47.6 {
		t.Errorf("lat = %v, want nested get_location to win", got.Lat)
	}
	if got.Source != SourceStarlink {
		t.Errorf("source = %v, want starlink", got.Source)
	}
	if got.Altitude == nil || *got.Altitude != 120 {
		t.Error("altitude should come from the nested location block")
	}
}

func TestAdaptStarlinkStatusFlatFallback(t *testing.T) {
	st := models.StarlinkStatus{ClientID: "c1", Latitude: f64(47.6), Longitude: f64(-122.3)}
	got, ok := AdaptStarlinkStatus(st)
	if !ok {
		t.Fatal("expected a report")
	}
	if got.Lat != 47.6 {
		t.Errorf("lat = %v, want flat fallback", got.Lat)
	}
}

func TestAdaptSensorAsClientCandidate(t *testing.T) {
	r := models.SensorReading{
		SensorID: "s1", ClientID: "c1", SensorType: "gps",
		Latitude: f64(47.6), Longitude: f64(-122.3),
		FixQuality: "3D", ReadAt: time.Now(),
	}

	got, ok := AdaptSensorAsClientCandidate(r)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if got.EntityID != "client-c1" {
		t.Errorf("entity id = %v, want client-c1", got.EntityID)
	}
	if got.Source != SourceSensor {
		t.Errorf("source = %v, want sensor", got.Source)
	}

	// Without a client association there is no candidate.
	r.ClientID = ""
	if _, ok := AdaptSensorAsClientCandidate(r); ok {
		t.Error("reading without client_id should yield no candidate")
	}
}

func TestAdaptAircraft(t *testing.T) {
	now := time.Now()

	a := models.ADSBAircraft{
		Hex: "ABC123", Flight: "UAL123", Lat: f64(47.4), Lon: f64(-122.3),
		AltBaro: f64(35000), Track: f64(270), Squawk: "7500", Emergency: "general",
		SeenPos: f64(2.5),
	}

	got, ok := AdaptAircraft(a, now, false)
	if !ok {
		t.Fatal("expected a report")
	}
	if got.EntityID != "adsb-abc123" {
		t.Errorf("entity id = %v, want lowercased adsb-abc123", got.EntityID)
	}
	if !got.Payload.Emergency {
		t.Error("emergency flag should be set")
	}
	if got.Payload.Squawk != "7500" {
		t.Errorf("squawk = %v, want 7500", got.Payload.Squawk)
	}
	wantObserved := now.Add(-2500 * time.Millisecond)
	if !got.ObservedAt.Equal(wantObserved) {
		t.Errorf("observed at = %v, want now-2.5s", got.ObservedAt)
	}

	// History rows carry their own timestamp and the replay flag.
	hist := models.ADSBAircraft{Hex: "ABC123", Lat: f64(47.0), Lon: f64(-122.0), Timestamp: now.Add(-time.Hour)}
	got, ok = AdaptAircraft(hist, now, true)
	if !ok {
		t.Fatal("expected a report")
	}
	if !got.Payload.Replay {
		t.Error("replay flag should be set for history rows")
	}
	if !got.ObservedAt.Equal(now.Add(-time.Hour)) {
		t.Errorf("observed at = %v, want the row's own timestamp", got.ObservedAt)
	}

	// Position-less aircraft (common for aircraft heard without a fix).
	if _, ok := AdaptAircraft(models.ADSBAircraft{Hex: "DEF456"}, now, false); ok {
		t.Error("aircraft without position should yield nothing")
	}
}

func TestAdaptVesselAndBeacons(t *testing.T) {
	now := time.Now()

	v, ok := AdaptVessel(models.AISVessel{
		MMSI: "367001234", Name: "EVER GIVEN",
		Lat: f64(58.0), Lon: f64(10.5), SpeedKnots: f64(12.3), ReceivedAt: now,
	})
	if !ok {
		t.Fatal("expected a vessel report")
	}
	if v.EntityID != "vessel-367001234" || v.Payload.VesselName != "EVER GIVEN" {
		t.Errorf("vessel report = %+v", v)
	}

	b, ok := AdaptEPIRBBeacon(models.EPIRBBeacon{BeaconID: "beac1", Lat: f64(59.0), Lng: f64(11.0), DetectedAt: now})
	if !ok {
		t.Fatal("expected a beacon report")
	}
	if !b.Payload.Emergency {
		t.Error("EPIRB beacons are always emergencies")
	}

	s, ok := AdaptAPRSStation(models.APRSStation{Callsign: "N0CALL-9", Latitude: f64(47.0), Longitude: f64(-122.0), HeardAt: now})
	if !ok {
		t.Fatal("expected an APRS report")
	}
	if s.EntityID != "aprs-N0CALL-9" {
		t.Errorf("aprs entity id = %v", s.EntityID)
	}
}

func TestAdaptWirelessScans(t *testing.T) {
	now := time.Now()

	w, ok := AdaptWifiScan(models.WifiScan{
		BSSID: "AA:BB:CC:DD:EE:FF", SSID: "fleet-ap", SignalDBM: f64(-61),
		Latitude: f64(47.0), Longitude: f64(-122.0), SeenAt: now,
	})
	if !ok {
		t.Fatal("expected a wifi report")
	}
	if w.EntityID != "wifi-aa:bb:cc:dd:ee:ff" {
		t.Errorf("wifi entity id = %v, want lowercased bssid", w.EntityID)
	}
	if ClassForEntityID(w.EntityID) != ClassWireless {
		t.Errorf("class = %v, want wireless-detection", ClassForEntityID(w.EntityID))
	}

	// Scanner position from the nested geo object.
	bt, ok := AdaptBluetoothScan(models.BluetoothScan{
		Address: "11:22:33:44:55:66", Name: "tracker-tag", RSSI: f64(-80),
		Geo: &models.GeoInfo{Lat: f64(45.5), Lng: f64(-122.6)}, SeenAt: now,
	})
	if !ok {
		t.Fatal("expected a bluetooth report")
	}
	if bt.Lat != 45.5 {
		t.Errorf("bt lat = %v, want geo fallback", bt.Lat)
	}

	if _, ok := AdaptWifiScan(models.WifiScan{BSSID: "AA:AA:AA:AA:AA:AA"}); ok {
		t.Error("scan without coordinates should yield nothing")
	}
}

func TestClassForEntityID(t *testing.T) {
	tests := []struct {
		id   string
		want EntityClass
	}{
		{"sensor-s1", ClassSensor},
		{"client-c1", ClassClient},
		{"adsb-abc123", ClassAircraft},
		{"vessel-367001234", ClassVessel},
		{"aprs-N0CALL", ClassVessel},
		{"epirb-b1", ClassVessel},
		{"wifi-aa:bb", ClassWireless},
		{"bt-11:22", ClassWireless},
		{"mystery-1", ClassUnknown},
	}
	for _, tt := range tests {
		if got := ClassForEntityID(tt.id); got != tt.want {
			t.Errorf("ClassForEntityID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
