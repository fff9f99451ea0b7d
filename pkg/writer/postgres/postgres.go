// Package postgres implements a GroupSink that archives aggregate groups
// to a PostgreSQL table.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdaniels/expensedigest/pkg/api"
)

//go:embed 001_create_expense_groups.sql
var migrationSQL string

// Config holds the PostgreSQL sink configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// Sink archives aggregate groups to PostgreSQL.
type Sink struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a PostgreSQL sink, verifying connectivity and applying the
// schema migration.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 4
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Sink{pool: pool, logger: logger}

	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migration: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)
	return s, nil
}

// Name implements api.GroupSink.
func (s *Sink) Name() string { return "postgres" }

// Archive inserts one row per aggregate group in a single batch.
func (s *Sink) Archive(ctx context.Context, source string, groups []api.AggregateGroup) error {
	if len(groups) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, g := range groups {
		batch.Queue(
			`INSERT INTO expense_groups
				(source, description, total_amount, latest_date, value_dates, transaction_count)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			source,
			g.Description,
			g.Total,
			g.LatestDate(),
			g.Dates(),
			len(g.Sources),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range groups {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting expense group: %w", err)
		}
	}

	s.logger.Info("archived groups to postgres", "source", source, "count", len(groups))
	return nil
}

// Close releases the connection pool.
func (s *Sink) Close() {
	s.pool.Close()
}
