//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)

	store := NewStore(pool, WithOutbox(true))
	users := domain.NewUserService(store)
	logs := domain.NewLogService(users, store, nil)

	alice, err := users.Register(ctx, "alice")
	require.NoError(t, err)
	_, err = users.Register(ctx, "alice")
	require.NoError(t, err, "duplicate usernames are permitted")

	base := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		d := float64(20 + i)
		_, err := logs.Record(ctx, domain.RecordInput{
			Username:    alice.Username,
			Date:        base.AddDate(0, 0, i),
			Duration:    &d,
			Description: "row",
		})
		require.NoError(t, err)
	}

	all, err := logs.Retrieve(ctx, alice.ID, 0, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, all.Count)
	require.Equal(t, 20.0, all.Entries[0].Duration)

	from := base.AddDate(0, 0, 1)
	ranged, err := logs.Retrieve(ctx, alice.ID, 1, &from, nil)
	require.NoError(t, err)
	require.Equal(t, 1, ranged.Count)
	require.True(t, from.Equal(ranged.Entries[0].Date))

	missing, err := logs.Retrieve(ctx, uuid.NewString(), 0, nil, nil)
	require.NoError(t, err)
	require.Nil(t, missing)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Equal(t, 5, pending)
}

func startPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercise"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		pool, err = NewPool(ctx, config.DatabaseConfig{
			URL:             connStr,
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: time.Minute,
		})
		return err == nil
	}, 30*time.Second, time.Second)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool, zerolog.Nop()))
	return pool
}
