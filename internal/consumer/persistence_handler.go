package consumer

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Execer is the subset of *pgxpool.Pool the handler needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PersistenceHandler writes consumed events into exercise_event_log. A record
// redelivered at the same topic, partition and offset is ignored.
type PersistenceHandler struct {
	db     Execer
	logger zerolog.Logger
	now    func() time.Time
}

// NewPersistenceHandler constructs a handler backed by the provided pool.
func NewPersistenceHandler(db Execer, logger zerolog.Logger) *PersistenceHandler {
	return &PersistenceHandler{db: db, logger: logger, now: time.Now}
}

// Handle stores the event payload.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	receivedAt := msg.Timestamp
	if receivedAt.IsZero() {
		receivedAt = h.now()
	}

	query, args, err := psql.Insert("exercise_event_log").
		Columns("event_type", "topic", "partition", "record_offset", "payload", "received_at").
		Values(msg.EventType, msg.Topic, msg.Partition, msg.Offset, []byte(msg.Payload), receivedAt.UTC()).
		Suffix("ON CONFLICT (topic, partition, record_offset) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tag, err := h.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert event %s@%d: %w", msg.Topic, msg.Offset, err)
	}
	if tag.RowsAffected() == 0 {
		h.logger.Debug().Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("duplicate event ignored")
	}
	return nil
}
