// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package services

import (
	"context"
	"errors"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/eventbus"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/logging"
)

// BusSubscriberService consumes live position reports from the event bus
// under supervision. If the subscription loop fails, suture restarts it and
// the subscriber's reconnect-forever NATS options re-establish the stream.
type BusSubscriberService struct {
	subscriber *eventbus.Subscriber
	handler    eventbus.ReportHandler
}

// NewBusSubscriberService creates a supervised bus consumer that feeds
// decoded reports to handler.
func NewBusSubscriberService(sub *eventbus.Subscriber, handler eventbus.ReportHandler) *BusSubscriberService {
	return &BusSubscriberService{subscriber: sub, handler: handler}
}

// Serve runs the subscription loop until the context is canceled.
func (s *BusSubscriberService) Serve(ctx context.Context) error {
	err := s.subscriber.Run(ctx, s.handler)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("bus subscriber stopped with error")
	}
	return err
}

// String implements fmt.Stringer for suture logging.
func (s *BusSubscriberService) String() string {
	return "bus-subscriber"
}
