// Package consumer reads relayed exercise events from Kafka and hands them to a Handler.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"example.com/exercisetracker/internal/events"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages from Kafka.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is the decoded representation of a record emitted by the outbox relay.
type Message struct {
	Topic       string
	Partition   int
	Offset      int64
	Timestamp   time.Time
	Key         string
	EventType   string
	AggregateID string
	Payload     json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithRetryBackoff sets the delay before the first handler retry and its cap.
func WithRetryBackoff(base, max time.Duration) Option {
	return func(p *Processor) {
		p.baseDelay = base
		p.maxDelay = max
	}
}

// Processor pulls messages from Kafka, decodes them, and dispatches to a Handler.
// Handler failures are retried on the same message; later messages wait.
type Processor struct {
	reader    Reader
	handler   Handler
	logger    zerolog.Logger
	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:    reader,
		handler:   handler,
		logger:    zerolog.Nop(),
		baseDelay: 500 * time.Millisecond,
		maxDelay:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a blocking loop that processes Kafka messages until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Error().Err(err).Msg("fetch failed")
			continue
		}

		event, decodeErr := decodeMessage(msg)
		if decodeErr != nil {
			p.logger.Warn().Err(decodeErr).
				Str("topic", msg.Topic).Int("partition", msg.Partition).Int64("offset", msg.Offset).
				Msg("dropping undecodable message")
			recordDecodeError(msg.Topic)
			// Commit malformed messages to avoid poison-pill loops.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Error().Err(commitErr).Msg("commit after decode failure")
			}
			continue
		}

		// A skipped message is never redelivered by the group reader, so the
		// same record is retried until it is handled or ctx ends.
		if err := p.handleWithRetry(ctx, event); err != nil {
			return err
		}

		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.logger.Error().Err(commitErr).Msg("commit failed")
		} else {
			recordProcessed(event)
		}
	}
}

func (p *Processor) handleWithRetry(ctx context.Context, event Message) error {
	for attempt := 1; ; attempt++ {
		handleErr := p.handler.Handle(ctx, event)
		if handleErr == nil {
			return nil
		}
		recordHandlerError(event)
		delay := p.backoffDelay(attempt)
		p.logger.Error().Err(handleErr).
			Str("event_type", event.EventType).Str("aggregate_id", event.AggregateID).
			Int64("offset", event.Offset).Int("attempt", attempt).Dur("retry_in", delay).
			Msg("handler failed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// backoffDelay calculates exponential backoff capped at maxDelay.
func (p *Processor) backoffDelay(attempt int) time.Duration {
	if attempt > 16 {
		return p.maxDelay
	}
	delay := time.Duration(1<<uint(attempt-1)) * p.baseDelay
	if delay > p.maxDelay {
		delay = p.maxDelay
	}
	return delay
}

func decodeMessage(msg kafka.Message) (Message, error) {
	eventType, ok := headerValue(msg, events.HeaderEventType)
	if !ok || len(eventType) == 0 {
		return Message{}, errors.New("missing event_type header")
	}
	if _, known := events.Catalog[string(eventType)]; !known {
		return Message{}, fmt.Errorf("unknown event_type %q", eventType)
	}
	if !json.Valid(msg.Value) {
		return Message{}, fmt.Errorf("payload is not valid JSON (%d bytes)", len(msg.Value))
	}
	aggregateID, _ := headerValue(msg, events.HeaderAggregateID)

	return Message{
		Topic:       msg.Topic,
		Partition:   msg.Partition,
		Offset:      msg.Offset,
		Timestamp:   msg.Time,
		Key:         string(msg.Key),
		EventType:   string(eventType),
		AggregateID: string(aggregateID),
		Payload:     json.RawMessage(append([]byte(nil), msg.Value...)),
	}, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
