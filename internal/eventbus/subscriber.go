// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/fusion"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/metrics"
)

// ReportHandler receives live position reports from the bus.
type ReportHandler func(ctx context.Context, report fusion.PositionReport)

// Subscriber consumes position updates from all class subjects under a
// prefix and hands decoded reports to a handler.
type Subscriber struct {
	subscriber message.Subscriber
	prefix     string
	logger     watermill.LoggerAdapter
}

// NewSubscriber connects a Watermill NATS subscriber to the given URL.
func NewSubscriber(url, subjectPrefix string, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{subscriber: sub, prefix: subjectPrefix, logger: logger}, nil
}

// Run subscribes to <prefix>.> and dispatches decoded reports to handler
// until the context is canceled. Undecodable messages are acked and counted,
// never redelivered.
func (s *Subscriber) Run(ctx context.Context, handler ReportHandler) error {
	topic := s.prefix + ".>"
	messages, err := s.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.dispatch(ctx, msg, handler)
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, msg *message.Message, handler ReportHandler) {
	var report fusion.PositionReport
	if err := json.Unmarshal(msg.Payload, &report); err != nil {
		metrics.BusMessagesParseFailed.Inc()
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable bus message")
		msg.Ack()
		return
	}

	metrics.BusMessagesConsumed.Inc()
	handler(ctx, report)
	msg.Ack()
}

// Close gracefully shuts down the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
