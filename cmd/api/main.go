package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/logging"
	"example.com/exercisetracker/internal/outbox"
	"example.com/exercisetracker/internal/persistence/memory"
	"example.com/exercisetracker/internal/persistence/postgres"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

type recordStore interface {
	domain.UserRepository
	domain.LogRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, "exercise-tracker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store recordStore
		pool  *pgxpool.Pool
	)
	if cfg.Database.InMemory() {
		logger.Warn().Msg("using in-memory record store; data is lost on exit")
		store = memory.NewStore()
	} else {
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()

		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(ctx, pool, logger); err != nil {
				logger.Fatal().Err(err).Msg("apply migrations")
			}
		}
		store = postgres.NewStore(pool, postgres.WithOutbox(cfg.Outbox.Enabled))
	}

	var dispatcher *outbox.Dispatcher
	if pool != nil && cfg.Outbox.Enabled && cfg.Kafka.Enabled() {
		producer := outbox.NewKafkaProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(pool, producer, logger, cfg.Outbox)
		go dispatcher.Start(ctx)
	} else if cfg.Outbox.Enabled {
		logger.Warn().Msg("outbox enabled without kafka brokers; events accumulate until a relay runs")
	}

	users := domain.NewUserService(store)
	logs := domain.NewLogService(users, store, nil)

	handler := api.NewHandler(users, logs, logger)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	chain := httptransport.Chain(
		httptransport.Recovery(logger),
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.CORS),
		httptransport.Metrics(),
	)

	server := httptransport.NewServer(cfg.Server, chain(mux), logger)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("address", server.Addr).Msg("exercise tracker listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownCh
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
