// Package database provides the process-wide PostgreSQL handle and the
// per-context connection state it keeps its bookkeeping in.
//
// One Database is shared by every request. Each request binds its own
// connection state (see ConnectionState.Bind), so the connection, the open
// transactions and the closed flag of one request are never visible to
// another:
//
//	ctx = db.BindLazy(ctx)
//	defer db.Close(ctx)
//
//	err := db.Atomic(ctx, func(ctx context.Context) error {
//	    q, err := db.Querier(ctx)
//	    ...
//	})
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mentormind/mentormind-backend/database"

// HealthCheckName is the name the database reports under in readiness checks.
const HealthCheckName = "postgres"

// Config holds the dependencies of a Database.
type Config struct {
	// Pool supplies connections. Required.
	Pool Pool

	// State holds the per-context bookkeeping. A fresh one is created if nil.
	State *ConnectionState

	// AutoConnect opens a connection on first use instead of failing with
	// ErrConnectionClosed.
	AutoConnect bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Database is the process-wide database handle.
type Database struct {
	pool        Pool
	state       *ConnectionState
	autoConnect bool
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *dbMetrics
}

// New creates a Database. It panics if cfg.Pool is nil.
func New(cfg Config) *Database {
	if cfg.Pool == nil {
		panic("database: Pool is required")
	}

	state := cfg.State
	if state == nil {
		state = &ConnectionState{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m, err := newDBMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return &Database{
		pool:        cfg.Pool,
		state:       state,
		autoConnect: cfg.AutoConnect,
		logger:      logger.With(slog.String("component", "database")),
		tracer:      otel.Tracer(instrumentationName),
		metrics:     m,
	}
}

// State returns the connection state the handle keeps its bookkeeping in.
func (db *Database) State() *ConnectionState {
	return db.state
}

// Bind returns a child of ctx with fresh connection state.
func (db *Database) Bind(ctx context.Context) context.Context {
	return db.state.Bind(ctx)
}

type lazyKey struct{}

// BindLazy is Bind for a context whose connection is opened by its first
// query, whatever AutoConnect says. Close releases it as usual. Contexts
// re-bound from it with Bind or Session are not lazy.
func (db *Database) BindLazy(ctx context.Context) context.Context {
	ctx = db.state.Bind(ctx)
	return context.WithValue(ctx, lazyKey{}, db.state.lookup(ctx))
}

func (db *Database) connectsOnDemand(ctx context.Context) bool {
	if db.autoConnect {
		return true
	}

	s, _ := ctx.Value(lazyKey{}).(*slot)

	return s != nil && s == db.state.lookup(ctx)
}

// Session runs fn on a connection of its own, released when fn returns.
// The connection held by ctx, if any, is neither used nor touched, so
// goroutines spawned from one request can each run a Session.
func (db *Database) Session(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx = db.Bind(ctx)

	if _, err := db.Connect(ctx, false); err != nil {
		return err
	}

	defer func() {
		if _, closeErr := db.Close(ctx); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing session: %w", closeErr))
		}
	}()

	return fn(ctx)
}

// Connect opens a connection for ctx. It reports whether a new connection
// was opened. If one is already open it returns false when reuseIfOpen is
// set and ErrConnectionOpen otherwise.
func (db *Database) Connect(ctx context.Context, reuseIfOpen bool) (bool, error) {
	if !db.state.Bound(ctx) {
		return false, ErrUnboundContext
	}

	if !db.IsClosed(ctx) {
		if reuseIfOpen {
			return false, nil
		}

		return false, ErrConnectionOpen
	}

	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrAcquire, err)
	}

	err = db.state.update(ctx, func(s *State) error {
		if !s.IsClosed() {
			return ErrConnectionOpen
		}

		closed := false
		s.Closed = &closed
		s.Conn = conn

		return nil
	})
	if err != nil {
		// Another goroutine sharing ctx connected first.
		conn.Release()

		if reuseIfOpen && errors.Is(err, ErrConnectionOpen) {
			return false, nil
		}

		return false, err
	}

	db.metrics.connOpened(ctx)
	db.logger.DebugContext(ctx, "connection opened")

	return true, nil
}

// IsClosed reports whether ctx holds no open connection.
func (db *Database) IsClosed(ctx context.Context) bool {
	closed := true

	db.state.view(ctx, func(s *State) {
		closed = s.IsClosed()
	})

	return closed
}

// Close releases the connection held by ctx and resets its state.
// It reports whether a connection was closed.
func (db *Database) Close(ctx context.Context) (bool, error) {
	if !db.state.Bound(ctx) {
		return false, nil
	}

	var conn Conn

	err := db.state.update(ctx, func(s *State) error {
		if s.IsClosed() {
			return nil
		}

		if len(s.Transactions) > 0 {
			return ErrTransactionOpen
		}

		conn = s.Conn
		*s = State{}

		return nil
	})
	if err != nil {
		return false, err
	}

	if conn == nil {
		return false, nil
	}

	conn.Release()

	db.metrics.connClosed(ctx)
	db.logger.DebugContext(ctx, "connection closed")

	return true, nil
}

// InTransaction reports whether ctx has an open transaction.
func (db *Database) InTransaction(ctx context.Context) bool {
	var open bool

	db.state.view(ctx, func(s *State) {
		open = len(s.Transactions) > 0
	})

	return open
}

// Querier returns the innermost open transaction of ctx, or its connection
// when no transaction is open.
func (db *Database) Querier(ctx context.Context) (Querier, error) {
	conn, top, _, err := db.current(ctx)
	if err != nil {
		return nil, err
	}

	if top != nil {
		return top, nil
	}

	return conn, nil
}

// Atomic runs fn inside a transaction. Nested calls run inside a savepoint
// of the enclosing transaction. The transaction is committed when fn
// returns nil and rolled back when it returns an error or panics.
func (db *Database) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	conn, parent, depth, err := db.current(ctx)
	if err != nil {
		return err
	}

	name := "transaction"
	if depth > 0 {
		name = fmt.Sprintf("savepoint_%d", depth)
	}

	ctx, span := db.tracer.Start(ctx, "db.atomic", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.atomic.name", name),
	))
	defer span.End()

	var tx Tx
	if parent == nil {
		tx, err = conn.Begin(ctx)
	} else {
		tx, err = parent.Begin(ctx)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")

		return fmt.Errorf("beginning %s: %w", name, err)
	}

	if err := db.push(ctx, name, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	defer func() {
		db.pop(ctx)

		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			db.metrics.txDone(ctx, "rollback")

			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if rbErr := tx.Rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rolling back %s: %w", name, rbErr))
		}

		db.metrics.txDone(ctx, "rollback")

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		db.metrics.txDone(ctx, "rollback")

		return fmt.Errorf("committing %s: %w", name, err)
	}

	db.metrics.txDone(ctx, "commit")

	return nil
}

// current returns the open connection of ctx, the innermost transaction (if
// any) and the transaction depth, connecting first when ctx connects on
// demand.
func (db *Database) current(ctx context.Context) (Conn, Tx, int, error) {
	if db.IsClosed(ctx) {
		if !db.connectsOnDemand(ctx) {
			return nil, nil, 0, ErrConnectionClosed
		}

		if _, err := db.Connect(ctx, true); err != nil {
			return nil, nil, 0, err
		}
	}

	var (
		conn  Conn
		top   Tx
		depth int
	)

	db.state.view(ctx, func(s *State) {
		conn = s.Conn
		depth = len(s.Transactions)

		if depth > 0 {
			top = s.Transactions[depth-1]
		}
	})

	if conn == nil {
		return nil, nil, 0, ErrConnectionClosed
	}

	return conn, top, depth, nil
}

func (db *Database) push(ctx context.Context, name string, tx Tx) error {
	return db.state.update(ctx, func(s *State) error {
		s.Ctx = append(s.Ctx, name)
		s.Transactions = append(s.Transactions, tx)

		return nil
	})
}

func (db *Database) pop(ctx context.Context) {
	_ = db.state.update(ctx, func(s *State) error {
		if n := len(s.Transactions); n > 0 {
			s.Transactions[n-1] = nil
			s.Transactions = s.Transactions[:n-1]
		}

		if n := len(s.Ctx); n > 0 {
			s.Ctx = s.Ctx[:n-1]
		}

		return nil
	})
}

// Name implements ports.HealthChecker.
func (db *Database) Name() string {
	return HealthCheckName
}

// Check implements ports.HealthChecker by pinging the pool.
func (db *Database) Check(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	return nil
}

// Stats returns pool usage statistics.
func (db *Database) Stats() PoolStats {
	return db.pool.Stats()
}

// Shutdown closes the pool. Connections still checked out are closed as
// they are released.
func (db *Database) Shutdown() {
	db.logger.Info("closing connection pool")
	db.pool.Close()
}

// dbMetrics records connection and transaction counters. A nil *dbMetrics
// records nothing.
type dbMetrics struct {
	opened       metric.Int64Counter
	closed       metric.Int64Counter
	transactions metric.Int64Counter
}

func newDBMetrics() (*dbMetrics, error) {
	meter := otel.Meter(instrumentationName)

	opened, err := meter.Int64Counter(
		"db.client.connections.opened",
		metric.WithDescription("Connections checked out for a request context"),
	)
	if err != nil {
		return nil, err
	}

	closed, err := meter.Int64Counter(
		"db.client.connections.closed",
		metric.WithDescription("Connections released by a request context"),
	)
	if err != nil {
		return nil, err
	}

	transactions, err := meter.Int64Counter(
		"db.client.transactions",
		metric.WithDescription("Finished transactions and savepoints by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &dbMetrics{opened: opened, closed: closed, transactions: transactions}, nil
}

func (m *dbMetrics) connOpened(ctx context.Context) {
	if m != nil {
		m.opened.Add(ctx, 1)
	}
}

func (m *dbMetrics) connClosed(ctx context.Context) {
	if m != nil {
		m.closed.Add(ctx, 1)
	}
}

func (m *dbMetrics) txDone(ctx context.Context, outcome string) {
	if m != nil {
		m.transactions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
