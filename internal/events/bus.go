// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/signawave/signawave/internal/logging"
)

// metadataEventTopic records the event's topic inside message metadata so
// consumers that fan multiple topics into one handler can still switch on it.
const metadataEventTopic = "event_topic"

// Bus is the in-process event bus. It wraps a Watermill gochannel pub/sub:
// publishing never blocks the orchestration task, and each subscriber gets
// its own delivery channel.
//
// Events are serialized to JSON so payload shapes stay honest; a consumer
// decoding an event sees exactly what an out-of-process consumer would.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.Mutex
	closed bool
}

// NewBus creates an event bus with buffered per-subscriber channels.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            256,
			BlockPublishUntilSubscriberAck: false,
		}, newWatermillLogger()),
	}
}

// Publish serializes the event and publishes it on its topic. Failures are
// logged and swallowed: a dropped observability event must never stall the
// orchestration task.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Warn().Err(err).Str("topic", ev.Topic()).Msg("event marshal failed, dropping")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataEventTopic, ev.Topic())

	if err := b.pubsub.Publish(ev.Topic(), msg); err != nil {
		logging.Warn().Err(err).Str("topic", ev.Topic()).Msg("event publish failed, dropping")
	}
}

// Subscribe returns a channel of raw messages for the topic. The subscription
// lives until ctx is canceled or the bus closes. Consumers must Ack each
// message.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down. Idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// Decode unmarshals a bus message into the given event type.
func Decode[T Event](msg *message.Message) (T, error) {
	var ev T
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("decode %s event: %w", ev.Topic(), err)
	}
	return ev, nil
}

// watermillLogger adapts zerolog to watermill.LoggerAdapter.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	ev := logging.Error().Err(err)
	l.apply(ev, fields)
	ev.Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	// Watermill's lifecycle chatter is debug-grade for the player.
	ev := logging.Debug()
	l.apply(ev, fields)
	ev.Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	ev := logging.Debug()
	l.apply(ev, fields)
	ev.Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	ev := logging.Trace()
	l.apply(ev, fields)
	ev.Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}

func (l *watermillLogger) apply(ev *zerolog.Event, fields watermill.LogFields) {
	for k, v := range l.fields {
		ev.Interface(k, v)
	}
	for k, v := range fields {
		ev.Interface(k, v)
	}
}
