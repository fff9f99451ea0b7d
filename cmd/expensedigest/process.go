package main

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/sheets/v4"

	"github.com/jdaniels/expensedigest/pkg/api"
	"github.com/jdaniels/expensedigest/pkg/client"
	"github.com/jdaniels/expensedigest/pkg/config"
	"github.com/jdaniels/expensedigest/pkg/pipeline"
	"github.com/jdaniels/expensedigest/pkg/storage"
	jsonwriter "github.com/jdaniels/expensedigest/pkg/writer/json"
	postgreswriter "github.com/jdaniels/expensedigest/pkg/writer/postgres"
	sheetswriter "github.com/jdaniels/expensedigest/pkg/writer/sheets"
)

// runProcess handles the process subcommand: each argument is an object
// key inside the data directory pointing at a stored statement email.
func runProcess(ctx context.Context, logger *slog.Logger, keys []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	return processKeys(ctx, logger, cfg, keys)
}

func processKeys(ctx context.Context, logger *slog.Logger, cfg config.Config, keys []string) error {
	store, err := storage.NewDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening data directory: %w", err)
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	opts := []pipeline.Option{pipeline.WithSinks(sinks...)}
	if !cfg.Collapse {
		opts = append(opts, pipeline.WithProcessedOutput())
	}

	p := pipeline.New(store, cfg.BlocklistKey, cfg.OutputPrefix, logger.With("component", "pipeline"), opts...)

	notifications := make([]api.Notification, 0, len(keys))
	for _, key := range keys {
		notifications = append(notifications, api.Notification{Bucket: cfg.DataDir, Key: key})
	}

	fmt.Println(p.Run(ctx, notifications))
	return nil
}

// buildSinks constructs the group sinks enabled by configuration. The
// returned func closes any sinks that hold connections.
func buildSinks(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]api.GroupSink, func(), error) {
	var (
		sinks   []api.GroupSink
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.JSONArchive != "" {
		sink, err := jsonwriter.New(jsonwriter.Config{FilePath: cfg.JSONArchive}, logger.With("component", "json_sink"))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("creating json sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if cfg.SheetsEnabled {
		httpClient, err := client.New(config.ClientSecretFile, sheets.SpreadsheetsScope)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("creating http client: %w", err)
		}

		sink, err := sheetswriter.New(httpClient, sheetswriter.Config{
			SheetTitle: cfg.GSheetsTitle,
			SheetID:    cfg.GSheetsID,
			SheetName:  cfg.GSheetsName,
		}, logger.With("component", "sheets_sink"))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("creating sheets sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if cfg.PGEnabled {
		sink, err := postgreswriter.New(ctx, postgreswriter.Config{
			Host:     cfg.PGHost,
			Port:     cfg.PGPort,
			Database: cfg.PGDatabase,
			User:     cfg.PGUser,
			Password: cfg.PGPassword,
			SSLMode:  cfg.PGSSLMode,
		}, logger.With("component", "postgres_sink"))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("creating postgres sink: %w", err)
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
	}

	return sinks, closeAll, nil
}
