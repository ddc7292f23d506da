package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sonec/internal/collector"
	"sonec/internal/config"
	"sonec/internal/provider"
	"sonec/internal/provider/bluesky"
	"sonec/internal/publisher"
	"sonec/internal/query"
	"sonec/internal/scheduler"
	"sonec/internal/storage/sqlstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	statusMode := flag.Bool("status", false, "print cursor and job status and exit")
	statusProvider := flag.String("provider", "", "status/query filter: provider name")
	statusSource := flag.String("source", "", "status filter: source descriptor")
	queryEntity := flag.String("query-entity", "", "query entity (posts) and exit")
	queryAuthor := flag.String("author", "", "query filter: @handle, author external id, or row id")
	queryContains := flag.String("contains", "", "query filter: case-insensitive text substring")
	queryAfter := flag.String("after", "", "query pagination token from the previous page")
	queryProject := flag.String("project", "", "query projection: comma-separated column names")
	queryLimit := flag.Int("limit", 0, "query page size")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sqlstore.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	// Initialize the RabbitMQ publisher; an empty URL disables publishing.
	var pub collector.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	store := sqlstore.New(db)

	registry := provider.NewRegistry()
	err = registry.Register(bluesky.Name, func() provider.Adapter {
		return bluesky.New(bluesky.Config{
			BaseURL:           cfg.Bluesky.BaseURL,
			Timeout:           cfg.Bluesky.Timeout,
			RequestsPerSecond: cfg.Bluesky.RequestsPerSecond,
			MaxAttempts:       cfg.Bluesky.Retry.MaxAttempts,
			InitialBackoff:    cfg.Bluesky.Retry.InitialBackoff,
			MaxBackoff:        cfg.Bluesky.Retry.MaxBackoff,
		}, logger)
	})
	if err != nil {
		logger.Error("failed to register provider", "error", err)
		os.Exit(1)
	}

	runner := collector.NewRunner(
		registry,
		store,
		store,
		store,
		store,
		store,
		pub,
		logger,
		cfg.Collect,
	)

	if *statusMode {
		if err := printStatus(ctx, runner, *statusProvider, *statusSource); err != nil {
			logger.Error("status failed", "error", err)
			os.Exit(1)
		}
		return
	}
	if *queryEntity != "" {
		engine := query.NewEngine(store, logger)
		page, err := engine.Query(ctx, *queryEntity, query.Filter{
			Provider: *statusProvider,
			Author:   *queryAuthor,
			Contains: *queryContains,
			Project:  splitColumns(*queryProject),
		}, *queryAfter, *queryLimit)
		if err != nil {
			logger.Error("query failed", "error", err)
			os.Exit(1)
		}
		if err := printJSON(page); err != nil {
			logger.Error("query failed", "error", err)
			os.Exit(1)
		}
		return
	}

	scopes := make([]collector.CollectRequest, 0, len(cfg.Scopes))
	for _, scope := range cfg.Scopes {
		scopes = append(scopes, collector.CollectRequest{
			Provider: scope.Provider,
			Source:   scope.Source,
			Query:    scope.Query,
			Lang:     scope.Lang,
			Auth:     blueskyAuth(cfg.Bluesky),
			Strict:   cfg.Collect.Strict,
		})
	}

	sched := scheduler.NewScheduler(runner, scopes, cfg.Collect, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting collector",
		"scopes", len(scopes),
		"interval", cfg.Collect.Interval,
		"max_pages", cfg.Collect.MaxPagesPerCollect,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func printStatus(ctx context.Context, runner *collector.Runner, providerName, source string) error {
	snapshot, err := runner.Status(ctx, collector.StatusRequest{
		Provider: providerName,
		Source:   source,
	})
	if err != nil {
		return err
	}
	return printJSON(snapshot)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitColumns(v string) []string {
	if v == "" {
		return nil
	}
	cols := strings.Split(v, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}

func blueskyAuth(cfg config.BlueskyConfig) map[string]string {
	if cfg.Identifier == "" && cfg.AppPassword == "" {
		return nil
	}
	return map[string]string{
		"identifier": cfg.Identifier,
		"password":   cfg.AppPassword,
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
