package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gosettle/internal/adapter/http"
	"github.com/iho/gosettle/internal/adapter/http/handler"
	"github.com/iho/gosettle/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gosettle/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gosettle/internal/adapter/repository/redis"
	"github.com/iho/gosettle/internal/infrastructure/config"
	"github.com/iho/gosettle/internal/infrastructure/eventpublisher"
	"github.com/iho/gosettle/internal/infrastructure/logger"
	"github.com/iho/gosettle/internal/infrastructure/metrics"
	"github.com/iho/gosettle/internal/infrastructure/postgres"
	"github.com/iho/gosettle/internal/infrastructure/postgres/generated"
	"github.com/iho/gosettle/internal/infrastructure/redis"
	"github.com/iho/gosettle/internal/infrastructure/scheduler"
	"github.com/iho/gosettle/internal/settlement"
	"github.com/iho/gosettle/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var migrate bool

	root := &cobra.Command{
		Use:           "gosettle-server",
		Short:         "Weekly settlement service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			log := newLogger(cfg)

			if migrate {
				if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, log)
		},
	}
	root.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before starting")

	migrateCmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			return postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, postgres.Direction(args[0]))
		},
	}
	root.AddCommand(migrateCmd)

	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gosettle",
	})
	zerolog.DefaultContextLogger = &log
	return log
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnAge,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			URL:      cfg.RedisURL,
			PoolSize: cfg.RedisPoolSize,
			Logger:   log,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	}

	engine, err := settlement.New(settlement.Options{Currency: cfg.SettlementCurrency})
	if err != nil {
		return fmt.Errorf("settlement engine: %w", err)
	}

	// Repositories
	txManager := postgresRepo.NewTxManager(pool).WithStatementTimeout(cfg.DatabaseTimeout)
	weekRepo := postgresRepo.NewWeekRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	resultRepo := postgresRepo.NewResultRepository(pool)
	outboxRepo := outboxFor(cfg, pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)

	m := metrics.New(prometheus.DefaultRegisterer)

	// Use cases
	settlementUC := usecase.NewSettlementUseCase(txManager, weekRepo, ledgerRepo, resultRepo, outboxRepo,
		idGen, engine, retrier, cacheFor(redisClient), m)
	weekUC := usecase.NewWeekUseCase(txManager, weekRepo, resultRepo, outboxRepo, idGen, settlementUC, retrier)
	capitalUC := usecase.NewCapitalUseCase(txManager, ledgerRepo, outboxRepo, idGen, settlementUC, retrier, engine.Places())
	reconcileUC := usecase.NewReconciliationUseCase(txManager, weekRepo, ledgerRepo, resultRepo, engine, m)

	if cfg.RecalculateOnStart {
		report, err := settlementUC.Recalculate(ctx)
		if err != nil {
			return fmt.Errorf("initial settlement: %w", err)
		}
		log.Info().
			Int64("generation", report.Generation).
			Int("weeks", len(report.Results)).
			Msg("initial settlement complete")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	routerCfg := httpAdapter.RouterConfig{
		WeekHandler:       handler.NewWeekHandler(weekUC),
		LedgerHandler:     handler.NewLedgerHandler(capitalUC),
		SettlementHandler: handler.NewSettlementHandler(settlementUC, reconcileUC),
		HealthHandler:     handler.NewHealthHandler(pool, pingerFor(redisClient)),
		MetricsHandler:    promhttp.Handler(),
		IdempotencyTTL:    cfg.IdempotencyTTL,
		RateLimiter:       rateLimiter,
		Logger:            log,
	}
	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	workers, workerCtx := errgroup.WithContext(workerCtx)

	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisherFor(redisClient, cfg.EventChannel, log),
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		workers.Go(func() error {
			if err := publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("event publisher: %w", err)
			}
			return nil
		})
	}

	workers.Go(func() error {
		sweepLimiters(workerCtx, rateLimiter, time.Hour)
		return nil
	})

	sched := scheduler.New(reconcileUC, log)
	if err := sched.RegisterReconcile(cfg.ReconcileSchedule); err != nil {
		return err
	}
	sched.Start()

	log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
	runErr := serve(ctx, server)
	if runErr != nil {
		log.Error().Err(runErr).Msg("server failed")
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	sched.Stop(shutdownCtx)
	cancelWorkers()
	if err := workers.Wait(); err != nil {
		log.Error().Err(err).Msg("background worker failed")
	}

	if null, ok := outboxRepo.(*postgresRepo.NullOutboxRepository); ok {
		log.Info().Int64("dropped_events", null.Dropped()).Msg("outbox disabled")
	}
	log.Info().Msg("server stopped")
	return runErr
}

// serve runs server until ctx is done or the listener fails. Only a listener
// failure is returned; the caller still shuts the server down.
func serve(ctx context.Context, server *http.Server) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}
}

func outboxFor(cfg *config.Config, db generated.DBTX) usecase.OutboxRepository {
	if !cfg.OutboxEnabled {
		return postgresRepo.NewNullOutboxRepository()
	}
	return postgresRepo.NewOutboxRepository(db)
}

func cacheFor(client *goredis.Client) usecase.Cache {
	if client == nil {
		return nil
	}
	return redisRepo.NewCache(client)
}

func pingerFor(client *goredis.Client) handler.Pinger {
	if client == nil {
		return nil
	}
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func publisherFor(client *goredis.Client, channel string, log zerolog.Logger) eventpublisher.Publisher {
	if client == nil {
		return eventpublisher.NewLogPublisher(log)
	}
	return redisRepo.NewPublisher(client, channel)
}

func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(maxIdle)
		}
	}
}
