package database

import "errors"

// Connection state errors.
var (
	// ErrFieldNotFound is returned when reading a field that was never set.
	ErrFieldNotFound = errors.New("connection state field not found")

	// ErrFieldType is returned when a recognized field is given a value of the wrong type.
	ErrFieldType = errors.New("connection state field has wrong type")

	// ErrUnboundContext is returned when writing state through a context that
	// was never passed through Bind.
	ErrUnboundContext = errors.New("context has no connection state")
)

// Database handle errors.
var (
	// ErrInvalidDSN indicates the connection string could not be parsed.
	ErrInvalidDSN = errors.New("invalid database url")

	// ErrConnectionOpen is returned by Connect when the context already holds
	// an open connection and reuse was not requested.
	ErrConnectionOpen = errors.New("connection already open")

	// ErrConnectionClosed is returned when a query needs a connection and the
	// context has none.
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrAcquire wraps failures to get a connection from the pool.
	ErrAcquire = errors.New("acquiring connection")

	// ErrTransactionOpen is returned by Close while a transaction is still open.
	ErrTransactionOpen = errors.New("cannot close connection while a transaction is open")
)
