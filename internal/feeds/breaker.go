// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package feeds

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/metrics"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/models"
)

// breakerName identifies the fleet backend breaker in logs and metrics.
const breakerName = "fleet-api"

// BreakerClient wraps Client with a circuit breaker so a dead or slow
// backend fails fast instead of stalling every refresh cycle.
//
// DETERMINISM: the breaker uses real time for its interval and timeout
// calculations. That timing governs recovery, not data integrity; tests
// exercise the wrapped client directly.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerClient wraps the given client with a circuit breaker.
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window in closed state
//   - 2 minute timeout before attempting recovery
//   - Opens after a 60% failure rate with at least 10 requests
func NewBreakerClient(client *Client) *BreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, fromStr, toStr)
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

// execute runs fn through the breaker and casts the result back to T.
func execute[T any](bc *BreakerClient, fn func() (T, error)) (T, error) {
	result, err := bc.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToString converts a breaker state to its metric/log label.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Clients fetches the client registry with breaker protection.
func (bc *BreakerClient) Clients(ctx context.Context) ([]models.ClientRecord, error) {
	return execute(bc, func() ([]models.ClientRecord, error) { return bc.client.Clients(ctx) })
}

// GPS fetches the latest GPS fix with breaker protection.
func (bc *BreakerClient) GPS(ctx context.Context) (*models.GPSFix, error) {
	return execute(bc, func() (*models.GPSFix, error) { return bc.client.GPS(ctx) })
}

// Starlink fetches Starlink telemetry with breaker protection.
func (bc *BreakerClient) Starlink(ctx context.Context) (*models.StarlinkStatus, error) {
	return execute(bc, func() (*models.StarlinkStatus, error) { return bc.client.Starlink(ctx) })
}

// SensorReadings fetches sensor readings with breaker protection.
func (bc *BreakerClient) SensorReadings(ctx context.Context) ([]models.SensorReading, error) {
	return execute(bc, func() ([]models.SensorReading, error) { return bc.client.SensorReadings(ctx) })
}

// Aircraft fetches live aircraft with breaker protection.
func (bc *BreakerClient) Aircraft(ctx context.Context) ([]models.ADSBAircraft, error) {
	return execute(bc, func() ([]models.ADSBAircraft, error) { return bc.client.Aircraft(ctx) })
}

// AircraftHistory fetches historical aircraft rows with breaker protection.
func (bc *BreakerClient) AircraftHistory(ctx context.Context, window time.Duration) ([]models.ADSBAircraft, error) {
	return execute(bc, func() ([]models.ADSBAircraft, error) { return bc.client.AircraftHistory(ctx, window) })
}

// Vessels fetches AIS vessels with breaker protection.
func (bc *BreakerClient) Vessels(ctx context.Context) ([]models.AISVessel, error) {
	return execute(bc, func() ([]models.AISVessel, error) { return bc.client.Vessels(ctx) })
}

// APRSStations fetches APRS stations with breaker protection.
func (bc *BreakerClient) APRSStations(ctx context.Context) ([]models.APRSStation, error) {
	return execute(bc, func() ([]models.APRSStation, error) { return bc.client.APRSStations(ctx) })
}

// EPIRBBeacons fetches EPIRB beacons with breaker protection.
func (bc *BreakerClient) EPIRBBeacons(ctx context.Context) ([]models.EPIRBBeacon, error) {
	return execute(bc, func() ([]models.EPIRBBeacon, error) { return bc.client.EPIRBBeacons(ctx) })
}

// WifiScans fetches WiFi scans with breaker protection.
func (bc *BreakerClient) WifiScans(ctx context.Context) ([]models.WifiScan, error) {
	return execute(bc, func() ([]models.WifiScan, error) { return bc.client.WifiScans(ctx) })
}

// BluetoothScans fetches Bluetooth scans with breaker protection.
func (bc *BreakerClient) BluetoothScans(ctx context.Context) ([]models.BluetoothScan, error) {
	return execute(bc, func() ([]models.BluetoothScan, error) { return bc.client.BluetoothScans(ctx) })
}
