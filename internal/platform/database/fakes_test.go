package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeQuerier satisfies Querier without touching a server.
type fakeQuerier struct{}

func (fakeQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

type fakeTx struct {
	fakeQuerier

	name      string
	beginErr  error
	commitErr error

	mu         sync.Mutex
	committed  bool
	rolledBack bool
	savepoints []*fakeTx
}

func (t *fakeTx) Begin(context.Context) (Tx, error) {
	if t.beginErr != nil {
		return nil, t.beginErr
	}

	sp := &fakeTx{name: t.name + "/sp"}

	t.mu.Lock()
	t.savepoints = append(t.savepoints, sp)
	t.mu.Unlock()

	return sp, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.committed = true

	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolledBack = true

	return nil
}

type fakeConn struct {
	fakeQuerier

	id        int
	beginErr  error
	released  atomic.Bool
	onRelease func()

	mu  sync.Mutex
	txs []*fakeTx
}

func (c *fakeConn) Begin(context.Context) (Tx, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}

	tx := &fakeTx{name: "tx"}

	c.mu.Lock()
	c.txs = append(c.txs, tx)
	c.mu.Unlock()

	return tx, nil
}

func (c *fakeConn) Release() {
	if c.released.CompareAndSwap(false, true) && c.onRelease != nil {
		c.onRelease()
	}
}

func (c *fakeConn) lastTx() *fakeTx {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.txs) == 0 {
		return nil
	}

	return c.txs[len(c.txs)-1]
}

var errPoolDown = errors.New("pool down")

// fakePool hands out fakeConns. With a capacity set, Acquire blocks like
// pgxpool once that many connections are checked out.
type fakePool struct {
	acquireErr error
	pingErr    error
	capacity   int

	slotsOnce sync.Once
	slots     chan struct{}

	mu     sync.Mutex
	conns  []*fakeConn
	inUse  int
	peak   int
	closed bool
}

func (p *fakePool) Acquire(ctx context.Context) (Conn, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}

	if p.capacity > 0 {
		p.slotsOnce.Do(func() { p.slots = make(chan struct{}, p.capacity) })

		select {
		case p.slots <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.inUse++
	p.peak = max(p.peak, p.inUse)

	conn := &fakeConn{id: len(p.conns) + 1, onRelease: p.release}
	p.conns = append(p.conns, conn)

	return conn, nil
}

func (p *fakePool) Ping(context.Context) error {
	return p.pingErr
}

func (p *fakePool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var acquired int32

	for _, c := range p.conns {
		if !c.released.Load() {
			acquired++
		}
	}

	return PoolStats{
		AcquiredConns: acquired,
		TotalConns:    int32(len(p.conns)),
		MaxConns:      10,
		AcquireCount:  int64(len(p.conns)),
	}
}

func (p *fakePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
}

func (p *fakePool) release() {
	p.mu.Lock()
	p.inUse--
	p.mu.Unlock()

	if p.capacity > 0 {
		<-p.slots
	}
}

func (p *fakePool) peakInUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.peak
}

func (p *fakePool) acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.conns)
}
