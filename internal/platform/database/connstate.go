package database

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Recognized connection state field names.
const (
	FieldClosed       = "closed"
	FieldConn         = "conn"
	FieldCtx          = "ctx"
	FieldTransactions = "transactions"
)

// State is the connection bookkeeping of one logical execution context.
// The zero value is the default state: nothing opened, no transactions.
type State struct {
	// Closed is nil until a connection is first opened in this context.
	Closed *bool

	// Conn is the connection held by this context, if any.
	Conn Conn

	// Ctx names the atomic blocks currently open, outermost first.
	Ctx []string

	// Transactions is the stack of open transactions and savepoints.
	Transactions []Tx

	// extra holds fields set under names outside the recognized four.
	extra map[string]any
}

// IsClosed reports whether the state holds no open connection.
func (s *State) IsClosed() bool {
	return s.Closed == nil || *s.Closed
}

// clone copies the state so that no slice or map is shared with s.
func (s *State) clone() State {
	c := State{
		Conn:         s.Conn,
		Ctx:          slices.Clone(s.Ctx),
		Transactions: slices.Clone(s.Transactions),
	}

	if s.Closed != nil {
		closed := *s.Closed
		c.Closed = &closed
	}

	if s.extra != nil {
		c.extra = maps.Clone(s.extra)
	}

	return c
}

func (s *State) get(name string) (any, error) {
	switch name {
	case FieldClosed:
		if s.Closed == nil {
			return nil, nil
		}

		return *s.Closed, nil
	case FieldConn:
		if s.Conn == nil {
			return nil, nil
		}

		return s.Conn, nil
	case FieldCtx:
		if s.Ctx == nil {
			return nil, nil
		}

		return s.Ctx, nil
	case FieldTransactions:
		if s.Transactions == nil {
			return nil, nil
		}

		return s.Transactions, nil
	}

	if v, ok := s.extra[name]; ok {
		return v, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
}

func (s *State) set(name string, value any) error {
	switch name {
	case FieldClosed:
		switch v := value.(type) {
		case nil:
			s.Closed = nil
		case bool:
			s.Closed = &v
		case *bool:
			s.Closed = v
		default:
			return fieldTypeError(name, value)
		}
	case FieldConn:
		if value == nil {
			s.Conn = nil
			return nil
		}

		conn, ok := value.(Conn)
		if !ok {
			return fieldTypeError(name, value)
		}

		s.Conn = conn
	case FieldCtx:
		if value == nil {
			s.Ctx = nil
			return nil
		}

		names, ok := value.([]string)
		if !ok {
			return fieldTypeError(name, value)
		}

		s.Ctx = names
	case FieldTransactions:
		if value == nil {
			s.Transactions = nil
			return nil
		}

		txs, ok := value.([]Tx)
		if !ok {
			return fieldTypeError(name, value)
		}

		s.Transactions = txs
	default:
		if s.extra == nil {
			s.extra = make(map[string]any)
		}

		s.extra[name] = value
	}

	return nil
}

func fieldTypeError(name string, value any) error {
	return fmt.Errorf("%w: %s cannot hold %T", ErrFieldType, name, value)
}

// slot is the per-context storage cell. Contexts derived from the one that
// installed it share the slot.
type slot struct {
	mu    sync.Mutex
	state State
}

type stateKey struct {
	owner *ConnectionState
}

// ConnectionState stores connection bookkeeping per logical execution
// context. One ConnectionState is shared by every request; each request
// binds its own slot with Bind, and only contexts derived from that request
// context observe it.
type ConnectionState struct {
	seed State
}

// NewConnectionState creates a connection state whose newly bound contexts
// start from the default state with initial applied on top.
// Names outside the recognized fields are inserted as-is.
func NewConnectionState(initial map[string]any) (*ConnectionState, error) {
	cs := &ConnectionState{}

	for name, value := range initial {
		if err := cs.seed.set(name, value); err != nil {
			return nil, err
		}
	}

	return cs, nil
}

// Bind returns a child of ctx holding a fresh state.
func (cs *ConnectionState) Bind(ctx context.Context) context.Context {
	return context.WithValue(ctx, stateKey{owner: cs}, &slot{state: cs.seed.clone()})
}

// Fork returns a child of ctx holding a copy of ctx's extra fields. The
// connection, its atomic blocks and its transactions stay with the parent:
// the child starts closed, so closing it can never release the parent's
// connection.
func (cs *ConnectionState) Fork(ctx context.Context) context.Context {
	state := cs.Snapshot(ctx)
	state.Closed = nil
	state.Conn = nil
	state.Ctx = nil
	state.Transactions = nil

	return context.WithValue(ctx, stateKey{owner: cs}, &slot{state: state})
}

// Bound reports whether ctx carries a slot of this connection state.
func (cs *ConnectionState) Bound(ctx context.Context) bool {
	return cs.lookup(ctx) != nil
}

// Get returns the named field of the state bound to ctx.
// An unbound ctx observes the state a newly bound context would start with.
func (cs *ConnectionState) Get(ctx context.Context, name string) (any, error) {
	var (
		value any
		err   error
	)

	cs.view(ctx, func(s *State) {
		value, err = s.get(name)
	})

	return value, err
}

// Set writes the named field of the state bound to ctx.
func (cs *ConnectionState) Set(ctx context.Context, name string, value any) error {
	return cs.update(ctx, func(s *State) error {
		return s.set(name, value)
	})
}

// Reset replaces the state bound to ctx with the default state.
func (cs *ConnectionState) Reset(ctx context.Context) error {
	return cs.update(ctx, func(s *State) error {
		*s = State{}
		return nil
	})
}

// Replace replaces the state bound to ctx with a copy of state.
// Recognized fields left unset in state read back as nil; extra fields
// not present in state are gone.
func (cs *ConnectionState) Replace(ctx context.Context, state State) error {
	replacement := state.clone()

	return cs.update(ctx, func(s *State) error {
		*s = replacement
		return nil
	})
}

// Snapshot returns a copy of the state bound to ctx.
func (cs *ConnectionState) Snapshot(ctx context.Context) State {
	var snapshot State

	cs.view(ctx, func(s *State) {
		snapshot = s.clone()
	})

	return snapshot
}

func (cs *ConnectionState) lookup(ctx context.Context) *slot {
	if ctx == nil {
		return nil
	}

	sl, _ := ctx.Value(stateKey{owner: cs}).(*slot)

	return sl
}

func (cs *ConnectionState) view(ctx context.Context, fn func(*State)) {
	sl := cs.lookup(ctx)
	if sl == nil {
		fresh := cs.seed.clone()
		fn(&fresh)

		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	fn(&sl.state)
}

func (cs *ConnectionState) update(ctx context.Context, fn func(*State) error) error {
	sl := cs.lookup(ctx)
	if sl == nil {
		return ErrUnboundContext
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	return fn(&sl.state)
}
