package intake

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the pooled database handle the intake service writes through.
// It decouples callers from pgx-specific pool types.
//
// Thread-Safety: implementations must be safe for concurrent use; the pool
// serializes access to its bounded connection set.
type DBConnection interface {
	// Acquire borrows one connection from the pool for the caller's exclusive use.
	// Caller must call Release() on the returned PooledConnection when done.
	Acquire(ctx context.Context) (PooledConnection, error)

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close closes every pooled connection.
	Close()
}

// PooledConnection represents a connection acquired from a pool.
// The caller must call Release() when done to return it to the pool.
type PooledConnection interface {
	// Exec executes a statement on this specific connection.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Release returns the connection to the pool.
	// After calling Release, the connection should not be used.
	Release()
}
