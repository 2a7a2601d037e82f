// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/fusion"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/metrics"
)

// SubjectFor returns the bus subject for a position report:
// <prefix>.<entity class>, e.g. positions.aircraft.
func SubjectFor(prefix string, report *fusion.PositionReport) string {
	return prefix + "." + string(fusion.ClassForEntityID(report.EntityID))
}

// Publisher publishes position updates to per-class NATS subjects.
type Publisher struct {
	publisher message.Publisher
	prefix    string
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher connects a Watermill NATS publisher to the given URL.
// Core NATS only; updates are ephemeral fan-out, not a durable stream.
func NewPublisher(url, subjectPrefix string, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &Publisher{publisher: pub, prefix: subjectPrefix}, nil
}

// PublishReport serializes a position report and publishes it to its
// class subject.
func (p *Publisher) PublishReport(ctx context.Context, report *fusion.PositionReport) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("serialize report %s: %w", report.EntityID, err)
	}

	subject := SubjectFor(p.prefix, report)
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("entity_id", report.EntityID)
	msg.Metadata.Set("source", string(report.Source))

	if err := p.publisher.Publish(subject, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	metrics.BusMessagesPublished.WithLabelValues(subject).Inc()
	return nil
}

// Close gracefully shuts down the publisher. Safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
