// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/homeview360/homeview/internal/config"
	"github.com/homeview360/homeview/internal/logging"
	"github.com/homeview360/homeview/internal/metrics"
)

var errEmptyTopic = errors.New("events: empty topic")

// CorrelationIDKey is the message metadata key carrying the correlation id.
const CorrelationIDKey = "correlation_id"

// Bus is the in-process pub/sub carrying UI events.
type Bus struct {
	pubsub *gochannel.GoChannel
	topic  string
	logger watermill.LoggerAdapter
}

// NewBus creates a Bus on cfg.Topic. A nil logger discards watermill logs.
func NewBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if cfg.Topic == "" {
		return nil, errEmptyTopic
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	// Blocking publish delivers events in publish order; a view end must
	// never overtake its start.
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            cfg.BufferSize,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
	return &Bus{pubsub: pubsub, topic: cfg.Topic, logger: logger}, nil
}

// Topic returns the topic events are published on.
func (b *Bus) Topic() string {
	return b.topic
}

// Subscriber returns the subscriber side of the bus.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Publish encodes e and publishes it. The correlation id in ctx, or a new
// one, travels in the message metadata.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		metrics.RecordEventBusMessage(string(e.Type), "rejected")
		return err
	}
	payload, err := Marshal(e)
	if err != nil {
		metrics.RecordEventBusMessage(string(e.Type), "rejected")
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	corrID := logging.CorrelationIDFromContext(ctx)
	if corrID == "" {
		corrID = logging.GenerateCorrelationID()
	}
	msg.Metadata.Set(CorrelationIDKey, corrID)

	if err := b.pubsub.Publish(b.topic, msg); err != nil {
		metrics.RecordEventBusMessage(string(e.Type), "publish_failed")
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	metrics.RecordEventBusMessage(string(e.Type), "published")
	return nil
}

// Close closes the pub/sub; subscriptions end and later publishes fail.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
