package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier runs statements. Both connections and transactions satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is an open transaction or savepoint.
type Tx interface {
	Querier

	// Begin starts a savepoint inside the transaction.
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is a connection checked out of the pool for one execution context.
type Conn interface {
	Querier

	Begin(ctx context.Context) (Tx, error)

	// Release returns the connection to the pool.
	Release()
}

// PoolStats is a point-in-time view of pool usage.
type PoolStats struct {
	AcquiredConns   int32
	IdleConns       int32
	TotalConns      int32
	MaxConns        int32
	AcquireCount    int64
	AcquireDuration time.Duration
}

// Pool hands out connections.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Stats() PoolStats
	Close()
}

// PoolConfig sizes the pgx pool.
type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// NewPool creates a pgx connection pool for dsn.
// The pool connects lazily; no connection is made until first Acquire.
func NewPool(ctx context.Context, dsn DSN, cfg PoolConfig) (Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	return &pgxPool{pool: pool}, nil
}

type pgxPool struct {
	pool *pgxpool.Pool
}

func (p *pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	return &pgxConn{Conn: conn}, nil
}

func (p *pgxPool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *pgxPool) Stats() PoolStats {
	s := p.pool.Stat()

	return PoolStats{
		AcquiredConns:   s.AcquiredConns(),
		IdleConns:       s.IdleConns(),
		TotalConns:      s.TotalConns(),
		MaxConns:        s.MaxConns(),
		AcquireCount:    s.AcquireCount(),
		AcquireDuration: s.AcquireDuration(),
	}
}

func (p *pgxPool) Close() {
	p.pool.Close()
}

// pgxConn adapts *pgxpool.Conn; Begin is overridden to return a Tx.
type pgxConn struct {
	*pgxpool.Conn
}

func (c *pgxConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &pgxTx{Tx: tx}, nil
}

// pgxTx adapts pgx.Tx; nested Begin creates a savepoint.
type pgxTx struct {
	pgx.Tx
}

func (t *pgxTx) Begin(ctx context.Context) (Tx, error) {
	tx, err := t.Tx.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &pgxTx{Tx: tx}, nil
}
