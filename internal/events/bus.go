// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/metrics"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus is closed")

// Config configures the bus.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	BufferSize int64
}

// DefaultConfig returns a bus with a 256 message buffer per subscriber.
func DefaultConfig() Config {
	return Config{BufferSize: 256}
}

// Bus publishes and delivers events within the process. Publishing never
// waits for subscribers; events published with no subscriber are dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
	wmLog  watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus.
func NewBus(cfg Config, logger zerolog.Logger) *Bus {
	wmLog := logging.NewWatermillLogger(logger)
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.BufferSize}, wmLog),
		logger: logger.With().Str("component", "events").Logger(),
		wmLog:  wmLog,
	}
}

// Publish encodes payload as JSON and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := message.NewMessage(uuid.New().String(), data)
	msg.Metadata.Set(MetadataEventType, topic)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// Subscribe returns the raw message channel for topic. The channel closes
// when ctx is canceled or the bus is closed. Every message must be acked
// or nacked.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Handle subscribes to topic and runs fn for every message until ctx is
// canceled or the bus is closed. Messages are always acked; a failure is
// logged and the message dropped.
func (b *Bus) Handle(ctx context.Context, topic string, fn func(ctx context.Context, msg *message.Message) error) error {
	messages, err := b.Subscribe(ctx, topic)
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
			if err := fn(ctx, msg); err != nil {
				b.wmLog.Error("event handling failed", err, watermill.LogFields{
					"message_uuid": msg.UUID,
					"topic":        topic,
				})
			}
			msg.Ack()
		}
	}
}

// Decode unmarshals a message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s event: %w", msg.Metadata.Get(MetadataEventType), err)
	}
	return v, nil
}

// Close stops the bus and closes every subscription channel.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
