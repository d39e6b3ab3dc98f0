package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/intake/pkg/intake"
)

// PoolAdapter adapts *pgxpool.Pool to implement the intake.DBConnection interface.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Acquire borrows a dedicated connection from the pool.
// It blocks while all MaxConns connections are in use.
func (p *PoolAdapter) Acquire(ctx context.Context) (intake.PooledConnection, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pooledConnAdapter{conn: conn}, nil
}

// Ping checks that a pooled connection can reach the server.
func (p *PoolAdapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *PoolAdapter) Close() {
	p.pool.Close()
}

// pooledConnAdapter adapts *pgxpool.Conn to implement intake.PooledConnection.
type pooledConnAdapter struct {
	conn *pgxpool.Conn
}

// Exec executes a statement on this specific connection.
func (p *pooledConnAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.conn.Exec(ctx, sql, args...)
}

// Release returns the connection to the pool. A connection whose socket
// failed mid-statement is destroyed by the pool instead of being reused.
func (p *pooledConnAdapter) Release() {
	p.conn.Release()
}

var _ intake.DBConnection = (*PoolAdapter)(nil)
