// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package feeds provides REST clients for the fleet backend's position
// feeds. The base Client handles transport, rate limiting and JSON
// decoding; BreakerClient wraps it with circuit breaker protection so a
// failing backend degrades to empty cycles instead of cascading.
package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/config"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/models"
)

// maxErrorBodyBytes caps how much of an error response body is kept for
// error messages.
const maxErrorBodyBytes = 512

// Source is the feed surface the tracker consumes. Implemented by Client
// and by BreakerClient.
type Source interface {
	Clients(ctx context.Context) ([]models.ClientRecord, error)
	GPS(ctx context.Context) (*models.GPSFix, error)
	Starlink(ctx context.Context) (*models.StarlinkStatus, error)
	SensorReadings(ctx context.Context) ([]models.SensorReading, error)
	Aircraft(ctx context.Context) ([]models.ADSBAircraft, error)
	AircraftHistory(ctx context.Context, window time.Duration) ([]models.ADSBAircraft, error)
	Vessels(ctx context.Context) ([]models.AISVessel, error)
	APRSStations(ctx context.Context) ([]models.APRSStation, error)
	EPIRBBeacons(ctx context.Context) ([]models.EPIRBBeacon, error)
	WifiScans(ctx context.Context) ([]models.WifiScan, error)
	BluetoothScans(ctx context.Context) ([]models.BluetoothScan, error)
}

// Client talks to the fleet backend REST API.
//
// All feed methods share a single token-bucket rate limiter so a burst of
// concurrent fetches cannot hammer the backend.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a feed client from the upstream configuration.
func NewClient(cfg *config.UpstreamConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		// Burst of one second's worth of requests.
		burst := int(cfg.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// get performs a rate-limited GET against the backend and decodes the JSON
// body into result.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// readBodyForError reads a truncated response body for error messages.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return []byte("<unreadable body>")
	}
	return body
}

// Clients fetches the connected-client registry.
func (c *Client) Clients(ctx context.Context) ([]models.ClientRecord, error) {
	var out []models.ClientRecord
	if err := c.get(ctx, "/api/clients", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GPS fetches the latest local GPS fix (gpsd TPV shape).
func (c *Client) GPS(ctx context.Context) (*models.GPSFix, error) {
	var out models.GPSFix
	if err := c.get(ctx, "/api/gps", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Starlink fetches the Starlink dish telemetry snapshot.
func (c *Client) Starlink(ctx context.Context) (*models.StarlinkStatus, error) {
	var out models.StarlinkStatus
	if err := c.get(ctx, "/api/starlink", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SensorReadings fetches the latest geo-tagged reading per sensor.
func (c *Client) SensorReadings(ctx context.Context) ([]models.SensorReading, error) {
	var out []models.SensorReading
	if err := c.get(ctx, "/api/sensors/latest", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Aircraft fetches currently visible ADS-B aircraft.
func (c *Client) Aircraft(ctx context.Context) ([]models.ADSBAircraft, error) {
	var out []models.ADSBAircraft
	if err := c.get(ctx, "/api/adsb/aircraft", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AircraftHistory fetches historical ADS-B position rows for the given
// lookback window.
func (c *Client) AircraftHistory(ctx context.Context, window time.Duration) ([]models.ADSBAircraft, error) {
	minutes := int(window.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	var out []models.ADSBAircraft
	path := fmt.Sprintf("/api/adsb/history?minutes=%d", minutes)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Vessels fetches AIS vessel positions.
func (c *Client) Vessels(ctx context.Context) ([]models.AISVessel, error) {
	var out []models.AISVessel
	if err := c.get(ctx, "/api/ais/vessels", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// APRSStations fetches APRS station positions.
func (c *Client) APRSStations(ctx context.Context) ([]models.APRSStation, error) {
	var out []models.APRSStation
	if err := c.get(ctx, "/api/aprs/stations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EPIRBBeacons fetches decoded EPIRB distress beacons.
func (c *Client) EPIRBBeacons(ctx context.Context) ([]models.EPIRBBeacon, error) {
	var out []models.EPIRBBeacon
	if err := c.get(ctx, "/api/epirb/beacons", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WifiScans fetches geo-tagged WiFi scan results.
func (c *Client) WifiScans(ctx context.Context) ([]models.WifiScan, error) {
	var out []models.WifiScan
	if err := c.get(ctx, "/api/wifi/scans", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BluetoothScans fetches geo-tagged Bluetooth scan results.
func (c *Client) BluetoothScans(ctx context.Context) ([]models.BluetoothScan, error) {
	var out []models.BluetoothScan
	if err := c.get(ctx, "/api/bluetooth/scans", &out); err != nil {
		return nil, err
	}
	return out, nil
}
