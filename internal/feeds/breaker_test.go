// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package feeds

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestBreakerPassesThroughSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"hex": "abc123", "lat": 47.0, "lon": -122.0}]`))
	}))
	bc := NewBreakerClient(client)

	aircraft, err := bc.Aircraft(context.Background())
	if err != nil {
		t.Fatalf("Aircraft() failed: %v", err)
	}
	if len(aircraft) != 1 || aircraft[0].Hex != "abc123" {
		t.Errorf("aircraft = %+v", aircraft)
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	bc := NewBreakerClient(client)

	// Drive past the minimum request count with 100% failures.
	var lastErr error
	for i := 0; i < 12; i++ {
		_, lastErr = bc.Clients(context.Background())
	}
	if lastErr == nil {
		t.Fatal("expected failures against 500-returning backend")
	}
	if !errors.Is(lastErr, gobreaker.ErrOpenState) {
		t.Errorf("breaker should be open after sustained failures, got: %v", lastErr)
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	bc := NewBreakerClient(client)

	for i := 0; i < 15; i++ {
		_, _ = bc.GPS(context.Background())
	}
	// Once open, requests are rejected without touching the backend.
	if calls >= 15 {
		t.Errorf("open breaker still forwarded all %d requests", calls)
	}
}

func TestStateToString(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  string
	}{
		{gobreaker.StateClosed, "closed"},
		{gobreaker.StateHalfOpen, "half-open"},
		{gobreaker.StateOpen, "open"},
	}
	for _, tt := range tests {
		if got := stateToString(tt.state); got != tt.want {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
