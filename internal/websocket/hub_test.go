// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/fusion"
)

// newHubClient registers a bare client (no network connection) with a
// running hub and returns it with a cleanup-friendly context.
func newHubClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		send: make(chan Message, 256),
	}
	hub.Register <- client
	return client
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("hub did not stop after cancel")
		}
	})
	return hub, cancel
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
}

func TestHubRegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)

	client := newHubClient(t, hub)
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)
}

func TestHubBroadcastMapDelta(t *testing.T) {
	hub, _ := startHub(t)
	client := newHubClient(t, hub)
	waitForClients(t, hub, 1)

	rec := &fusion.Reconciliation{
		Added: []fusion.TrackedEntity{{ID: "adsb-a1b2c3", Class: fusion.ClassAircraft}},
	}
	hub.BroadcastMapDelta(rec)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeMapDelta {
			t.Errorf("type = %q, want %q", msg.Type, MessageTypeMapDelta)
		}
		got, ok := msg.Data.(*fusion.Reconciliation)
		if !ok {
			t.Fatalf("data type %T", msg.Data)
		}
		if len(got.Added) != 1 || got.Added[0].ID != "adsb-a1b2c3" {
			t.Errorf("deltas = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestHubBroadcastTrailAndStats(t *testing.T) {
	hub, _ := startHub(t)
	client := newHubClient(t, hub)
	waitForClients(t, hub, 1)

	hub.BroadcastTrailUpdate("sensor-s1", fusion.TrailPoint{Lat: 47.6, Lng: -122.3})
	hub.BroadcastStatsUpdate(fusion.Stats{Total: 3})

	types := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-client.send:
			types[msg.Type] = true
		case <-time.After(time.Second):
			t.Fatal("missing broadcast message")
		}
	}
	if !types[MessageTypeTrailUpdate] || !types[MessageTypeStatsUpdate] {
		t.Errorf("received types = %v", types)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)

	slow := &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		send: make(chan Message), // unbuffered, nobody reading
	}
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.BroadcastStatsUpdate(fusion.Stats{})
	waitForClients(t, hub, 0)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()

	client := newHubClient(t, hub)
	waitForClients(t, hub, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	// send must be closed after shutdown.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed send channel")
		}
	default:
		t.Error("send channel not closed")
	}
}
