/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the studio payroll server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (.env, environment), then apply command-line flags
  2. Build the logger
  3. Open the store (SQLite, or in-memory when -db=memory)
  4. Pick the month locker (Redis when REDIS_ADDRESS is set)
  5. Wire the rule manager, aggregator, API handler and router
  6. Start the payday scheduler and the HTTP server

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or payroll.db)
           Use "memory" for the in-memory store
  -tz      Studio timezone (default: TIMEZONE or UTC)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database and Redis connections

EXAMPLES:
  ./server -db="./data/payroll.db" -tz=Asia/Taipei
  ./server -db=memory -port=3000

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/warp/studio-payroll/api"
	"github.com/warp/studio-payroll/config"
	"github.com/warp/studio-payroll/lock"
	"github.com/warp/studio-payroll/payroll"
	"github.com/warp/studio-payroll/payroll/store"
	"github.com/warp/studio-payroll/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags override the environment.
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, `SQLite database path, or "memory"`)
	flag.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "Studio timezone (IANA name)")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		config.LogError(logger, "main", "run", "server exited", nil, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	// Initialize store
	var st api.Store
	if cfg.UseMemoryStore() {
		st = store.NewMemory()
		logger.Warn("using in-memory store, data is lost on exit")
	} else {
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		st = db
	}

	// Month locker
	var locker lock.MonthLocker = lock.NewLocal()
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddress, err)
		}
		locker = lock.NewRedis(rdb, 0, 0, logger)
		logger.WithField("address", cfg.RedisAddress).Info("using redis month locks")
	}

	clock := payroll.SystemClock{Location: cfg.Location}
	rules := payroll.NewRuleManager(st, clock, payroll.WithRuleLogger(logger))
	agg := payroll.NewAggregator(payroll.AggregatorDeps{
		Rules:      rules,
		Directory:  st,
		Attendance: st,
		Sales:      st,
		Summaries:  st,
	}, payroll.WithWorkers(cfg.Workers), payroll.WithAggregatorLogger(logger))

	handler := api.NewHandler(api.HandlerDeps{
		Store:   st,
		Rules:   rules,
		Payroll: agg,
		Locker:  locker,
		Clock:   clock,
		Log:     logger,
	})
	router := api.NewRouter(handler, cfg.CORSOrigins)

	scheduler := api.NewPaydayScheduler(handler, logger)
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     cfg.Addr(),
			"db":       cfg.DBPath,
			"timezone": cfg.Timezone,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
