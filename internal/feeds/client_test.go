// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.UpstreamConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}), srv
}

func TestClientsFetch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/clients" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "field-07", "latitude": 47.6, "longitude": -122.3},
			{"id": "field-08", "geo": {"city": "Tacoma", "country": "US", "lat": 47.25, "lon": -122.44}}
		]`))
	}))

	clients, err := client.Clients(context.Background())
	if err != nil {
		t.Fatalf("Clients() failed: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("got %d clients, want 2", len(clients))
	}
	if clients[0].ID != "field-07" {
		t.Errorf("id = %q", clients[0].ID)
	}
	if clients[1].Geo == nil || clients[1].Geo.City != "Tacoma" {
		t.Errorf("nested geo not decoded: %+v", clients[1].Geo)
	}
}

func TestGPSFetch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/gps" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"mode": 3, "lat": 47.62, "lon": -122.35, "alt": 112.5}`))
	}))

	fix, err := client.GPS(context.Background())
	if err != nil {
		t.Fatalf("GPS() failed: %v", err)
	}
	if fix.Mode != 3 {
		t.Errorf("mode = %d, want 3", fix.Mode)
	}
	if fix.Lat == nil || *fix.Lat != 47.62 {
		t.Errorf("lat = %v", fix.Lat)
	}
}

func TestAircraftHistoryWindow(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"hex": "A1B2C3", "lat": 47.0, "lon": -122.0}]`))
	}))

	rows, err := client.AircraftHistory(context.Background(), 45*time.Minute)
	if err != nil {
		t.Fatalf("AircraftHistory() failed: %v", err)
	}
	if gotQuery != "minutes=45" {
		t.Errorf("query = %q, want minutes=45", gotQuery)
	}
	if len(rows) != 1 || rows[0].Hex != "A1B2C3" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestGetErrorStatusIncludesBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("backend unavailable"))
	}))

	_, err := client.Vessels(context.Background())
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "backend unavailable") {
		t.Errorf("error missing status/body: %v", err)
	}
}

func TestGetDecodeError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))

	_, err := client.SensorReadings(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("error should mention decode: %v", err)
	}
}

func TestGetHonorsContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Clients(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRateLimiterThrottles(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	// 10 rps, burst 1: the second call has to wait roughly 100ms.
	client.limiter = rate.NewLimiter(10, 1)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := client.Clients(context.Background()); err != nil {
			t.Fatalf("Clients() failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("limiter did not throttle: %v elapsed", elapsed)
	}
}
