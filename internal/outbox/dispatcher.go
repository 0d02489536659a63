// Package outbox relays recorded domain events from PostgreSQL to Kafka.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/events"
)

// DB is the subset of *pgxpool.Pool the dispatcher needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// MessageWriter publishes records to a topic.
type MessageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Message represents a row fetched from outbox.
type Message struct {
	EventID       int64  `db:"event_id"`
	AggregateType string `db:"aggregate_type"`
	AggregateID   string `db:"aggregate_id"`
	EventType     string `db:"event_type"`
	Topic         string `db:"topic"`
	PartitionKey  string `db:"partition_key"`
	Payload       []byte `db:"payload"`
}

// Dispatcher drains the outbox table and delivers events to Kafka.
type Dispatcher struct {
	db               DB
	producer         MessageWriter
	logger           zerolog.Logger
	pollInterval     time.Duration
	batchSize        int
	claimTimeout     time.Duration
	now              func() time.Time
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(db DB, producer MessageWriter, logger zerolog.Logger, cfg config.OutboxConfig) *Dispatcher {
	claimTimeout := cfg.ClaimTimeout
	if claimTimeout <= 0 {
		claimTimeout = time.Minute
	}
	return &Dispatcher{
		db:               db,
		producer:         producer,
		logger:           logger.With().Str("component", "outbox").Logger(),
		pollInterval:     cfg.PollInterval,
		batchSize:        cfg.BatchSize,
		claimTimeout:     claimTimeout,
		now:              time.Now,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("outbox dispatch failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	start := time.Now()

	messages, err := d.fetchAndClaim(ctx)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	ids := eventIDs(messages)
	if err := d.deliver(ctx, messages); err != nil {
		failedCounter.Add(float64(len(messages)))
		d.logger.Warn().Err(err).Int("events", len(messages)).Msg("outbox delivery failed; releasing claim")
		if releaseErr := d.release(ctx, ids); releaseErr != nil {
			return errors.Join(err, releaseErr)
		}
		return err
	}

	if _, err := d.db.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	deliveredCounter.Add(float64(len(messages)))
	d.logger.Debug().Int("events", len(messages)).Msg("outbox batch delivered")
	return nil
}

// fetchAndClaim locks a batch of unpublished rows and stamps claimed_at so
// concurrent relays skip them. Claims older than the timeout are retaken; the
// cutoff is computed by the database so it shares the claimed_at clock.
func (d *Dispatcher) fetchAndClaim(ctx context.Context) (_ []Message, err error) {
	query, args, err := psql.
		Select("event_id", "aggregate_type", "aggregate_id::text AS aggregate_id", "event_type", "topic", "partition_key", "payload").
		From("outbox").
		Where(sq.Eq{"published_at": nil}).
		Where(sq.Or{sq.Eq{"claimed_at": nil}, sq.Expr("claimed_at < NOW() - ?::interval", d.claimTimeout)}).
		OrderBy("event_id").
		Limit(uint64(d.batchSize)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build claim query: %w", err)
	}

	tx, err := d.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var messages []Message
	if err = pgxscan.Select(ctx, tx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("select outbox: %w", err)
	}
	if len(messages) == 0 {
		_ = tx.Rollback(ctx)
		return nil, nil
	}

	if _, err = tx.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, eventIDs(messages)); err != nil {
		return nil, fmt.Errorf("claim outbox: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return messages, nil
}

// deliver writes one batch per topic, preserving outbox order within each.
func (d *Dispatcher) deliver(ctx context.Context, messages []Message) error {
	batches := make(map[string][]kafka.Message)
	var topics []string

	for _, msg := range messages {
		record := kafka.Message{
			Key:   []byte(msg.PartitionKey),
			Value: msg.Payload,
			Time:  d.now().UTC(),
			Headers: []kafka.Header{
				{Key: events.HeaderEventType, Value: []byte(msg.EventType)},
				{Key: events.HeaderAggregateType, Value: []byte(msg.AggregateType)},
				{Key: events.HeaderAggregateID, Value: []byte(msg.AggregateID)},
			},
		}
		if _, ok := batches[msg.Topic]; !ok {
			topics = append(topics, msg.Topic)
		}
		batches[msg.Topic] = append(batches[msg.Topic], record)
	}

	for _, topic := range topics {
		if err := d.producer.WriteMessages(ctx, topic, batches[topic]...); err != nil {
			return fmt.Errorf("write %d messages to %s: %w", len(batches[topic]), topic, err)
		}
	}
	return nil
}

func (d *Dispatcher) release(ctx context.Context, ids []int64) error {
	if _, err := d.db.Exec(ctx, `UPDATE outbox SET claimed_at = NULL WHERE event_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

func eventIDs(messages []Message) []int64 {
	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.EventID)
	}
	return ids
}
