package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	httpadapter "github.com/iho/payreplay/internal/adapter/http"
	"github.com/iho/payreplay/internal/adapter/http/handler"
	"github.com/iho/payreplay/internal/adapter/http/middleware"
	"github.com/iho/payreplay/internal/adapter/ledger/csvfile"
	pgledger "github.com/iho/payreplay/internal/adapter/ledger/postgres"
	redisrepo "github.com/iho/payreplay/internal/adapter/repository/redis"
	"github.com/iho/payreplay/internal/adapter/snapshot"
	"github.com/iho/payreplay/internal/infrastructure/config"
	"github.com/iho/payreplay/internal/infrastructure/logger"
	"github.com/iho/payreplay/internal/infrastructure/metrics"
	pginfra "github.com/iho/payreplay/internal/infrastructure/postgres"
	redisinfra "github.com/iho/payreplay/internal/infrastructure/redis"
	"github.com/iho/payreplay/internal/usecase"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "payreplay <transactions.csv>",
		Short: "Replay a transaction log and print the settled accounts",
		Long: `payreplay replays a chronological transaction log (deposits, withdrawals,
disputes, resolves, chargebacks) against fresh client accounts and prints
the settled balances as CSV on stdout. Diagnostics go to stderr.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			source, err := csvfile.New(args[0])
			if err != nil {
				return err
			}
			defer source.Close()

			return replayToStdout(cmd.Context(), cfg, log, source)
		},
	}

	root.PersistentFlags().Bool("dispute-overdraw", false,
		"hold the disputed amount even when available funds are insufficient")

	root.AddCommand(newServeCommand(), newDBCommand())

	return root
}

// loadConfig reads the environment config and folds in flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if cmd.Flags().Changed("dispute-overdraw") {
		overdraw, err := cmd.Flags().GetBool("dispute-overdraw")
		if err != nil {
			return nil, err
		}
		cfg.DisputeOverdraw = overdraw
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// replayToStdout runs the engine over the source and writes the snapshot
// to stdout. Log output stays on stderr so the snapshot pipes cleanly.
func replayToStdout(ctx context.Context, cfg *config.Config, log zerolog.Logger, source usecase.LedgerSource) error {
	uc := usecase.NewReplayUseCase(log, nil, usecase.ReplayOptions{
		DisputeOverdraw: cfg.DisputeOverdraw,
	})

	result, err := uc.Replay(ctx, source)
	if err != nil {
		return err
	}

	return snapshot.Write(os.Stdout, result.Accounts)
}

func openPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	log.Info().Msg("connected to postgres")

	return pool, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP replay API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return runServe(cmd.Context(), cfg, newLogger(cfg))
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var (
		redisClient *goredis.Client
		idemStore   usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()

		redisClient = client
		idemStore = redisrepo.NewIdempotencyStore(client)
		log.Info().Msg("connected to redis")
	}

	uc := usecase.NewReplayUseCase(log, metrics.New(), usecase.ReplayOptions{
		DisputeOverdraw: cfg.DisputeOverdraw,
	})

	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		ReplayHandler:      handler.NewReplayHandler(uc, log, cfg.MaxUploadBytes),
		HealthHandler:      handler.NewHealthHandler(redisClient),
		Logger:             log,
		IdempotencyStore:   idemStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        middleware.NewRateLimiter(cfg.ReplayRateLimit, cfg.ReplayRateBurst),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")

	return nil
}

func newDBCommand() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Operate on the PostgreSQL-backed transaction log",
	}

	db.AddCommand(newDBMigrateCommand(), newDBLoadCommand(), newDBReplayCommand())

	return db
}

func newDBMigrateCommand() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			if down {
				return pginfra.RunMigrationsDown(log, cfg.DatabaseURL, cfg.MigrationsPath)
			}

			return pginfra.RunMigrations(log, cfg.DatabaseURL, cfg.MigrationsPath)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")

	return cmd
}

func newDBLoadCommand() *cobra.Command {
	var truncate bool

	cmd := &cobra.Command{
		Use:   "load <transactions.csv>",
		Short: "Load a transaction log into PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx := cmd.Context()

			pool, err := openPool(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			source, err := csvfile.New(args[0])
			if err != nil {
				return err
			}
			defer source.Close()

			loader := pgledger.NewLoader(pool, pgledger.NewRetrier(log), log)
			if truncate {
				if err := loader.Truncate(ctx); err != nil {
					return err
				}
			}

			_, err = loader.Load(ctx, source)

			return err
		},
	}

	cmd.Flags().BoolVar(&truncate, "truncate", false, "clear previously loaded records first")

	return cmd
}

func newDBReplayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the stored transaction log and print the settled accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			pool, err := openPool(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			source := pgledger.NewSource(pool, pgledger.NewRetrier(log))

			return replayToStdout(cmd.Context(), cfg, log, source)
		},
	}
}
