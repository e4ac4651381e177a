package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/geotokenizer/internal/config"
)

// NewPool creates the connection pool for the word store and pings it.
// Every analyzer session holds one connection for its whole life, so the
// pool keeps at least sessions connections open and never allows fewer.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, sessions int) (*pgxpool.Pool, error) {
	poolCfg, err := PoolConfig(cfg, sessions)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PoolConfig builds the pool settings for the given number of concurrent
// sessions. One extra connection is reserved for statements outside a session.
func PoolConfig(cfg config.DatabaseConfig, sessions int) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}

	need := int32(sessions) + 1
	poolCfg.MaxConns = max(cfg.MaxConns, need)
	poolCfg.MinConns = min(max(cfg.MinConns, int32(sessions)), poolCfg.MaxConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	return poolCfg, nil
}
