package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// PoolOptions tunes the pool. Zero values keep the pgx defaults.
type PoolOptions struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
	// QueryLogLevel enables pgx query tracing at the given level
	// (trace, debug, info, warn, error). Empty or "none" disables it.
	QueryLogLevel string
	Log           zerolog.Logger
}

// NewPool connects to connStr and verifies the connection with a ping.
func NewPool(ctx context.Context, connStr string, opts PoolOptions) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("database URL not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.QueryLogLevel != "" && opts.QueryLogLevel != "none" {
		level, err := tracelog.LogLevelFromString(opts.QueryLogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid query log level: %w", err)
		}
		config.ConnConfig.Tracer = &tracelog.TraceLog{Logger: queryLogger(opts.Log), LogLevel: level}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// queryLogger forwards pgx trace events to zerolog.
func queryLogger(log zerolog.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		var ev *zerolog.Event
		switch level {
		case tracelog.LogLevelTrace:
			ev = log.Trace()
		case tracelog.LogLevelDebug:
			ev = log.Debug()
		case tracelog.LogLevelInfo:
			ev = log.Info()
		case tracelog.LogLevelWarn:
			ev = log.Warn()
		default:
			ev = log.Error()
		}
		ev.Fields(data).Msg(msg)
	})
}
