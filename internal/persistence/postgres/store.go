// Package postgres implements the record store on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store persists users and exercise log entries. When the outbox is enabled
// every insert also records an event row in the same transaction.
type Store struct {
	db     DB
	outbox bool
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithOutbox toggles transactional outbox recording.
func WithOutbox(enabled bool) Option {
	return func(s *Store) {
		s.outbox = enabled
	}
}

// NewStore constructs a Store.
func NewStore(db DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser implements domain.UserRepository.
func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "username").
		Values(user.ID, user.Username).
		ToSql()
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if !s.outbox {
			return nil
		}
		return s.insertOutbox(ctx, tx, "user", user.ID, user.ID, events.TypeUserRegistered, events.UserRegistered{
			UserID:       user.ID,
			Username:     user.Username,
			RegisteredAt: s.now().UTC(),
		})
	})
}

// FindUserByID implements domain.UserRepository.
func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	query, args, err := psql.Select("id::text AS id", "username").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := pgxscan.Get(ctx, s.db, &user, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindAllUsers implements domain.UserRepository.
func (s *Store) FindAllUsers(ctx context.Context) ([]domain.User, error) {
	query, args, err := psql.Select("id::text AS id", "username").
		From("users").
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0)
	if err := pgxscan.Select(ctx, s.db, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateLogEntry implements domain.LogRepository.
func (s *Store) CreateLogEntry(ctx context.Context, entry domain.LogEntry) error {
	query, args, err := psql.Insert("exercise_logs").
		Columns("id", "username", "date", "duration", "description").
		Values(entry.ID, entry.Username, entry.Date, entry.Duration, entry.Description).
		ToSql()
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert log entry: %w", err)
		}
		if !s.outbox {
			return nil
		}
		return s.insertOutbox(ctx, tx, "exercise_log", entry.ID, entry.Username, events.TypeExerciseLogged, events.ExerciseLogged{
			EntryID:     entry.ID,
			Username:    entry.Username,
			Date:        entry.Date,
			Duration:    entry.Duration,
			Description: entry.Description,
		})
	})
}

// FindLogEntries implements domain.LogRepository. The username filter is
// always applied; bounds and limit only when present. Rows come back in
// insertion order.
func (s *Store) FindLogEntries(ctx context.Context, q domain.LogQuery) ([]domain.LogEntry, error) {
	builder := psql.Select("id::text AS id", "username", "date", "duration", "description").
		From("exercise_logs").
		Where(sq.Eq{"username": q.Username})

	if q.From != nil {
		builder = builder.Where(sq.GtOrEq{"date": *q.From})
	}
	if q.To != nil {
		builder = builder.Where(sq.LtOrEq{"date": *q.To})
	}
	builder = builder.OrderBy("seq")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LogEntry, 0)
	if err := pgxscan.Select(ctx, s.db, &entries, query, args...); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Date = entries[i].Date.UTC()
	}
	return entries, nil
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, partitionKey, eventType string, payload any) error {
	route, ok := events.Catalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("outbox").
		Columns("aggregate_type", "aggregate_id", "event_type", "topic", "partition_key", "payload").
		Values(aggregateType, aggregateID, eventType, route.Topic, partitionKey, body).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert outbox %s: %w", eventType, err)
	}
	return nil
}
