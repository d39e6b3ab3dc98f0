package services

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/intake/pkg/intake"
)

// resetErr is what pgx surfaces when the server drops the socket mid-write.
func resetErr() error {
	return fmt.Errorf("failed to write query: %w", &net.OpError{
		Op:  "write",
		Net: "tcp",
		Err: os.NewSyscallError("write", syscall.ECONNRESET),
	})
}

// mockDB hands out connections whose Exec returns the next scripted error.
type mockDB struct {
	mu         sync.Mutex
	execErrs   []error
	acquireErr error

	acquired   int
	released   int
	statements []string
	params     [][]any
}

func (m *mockDB) Acquire(ctx context.Context) (intake.PooledConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired++
	return &mockConn{db: m}, nil
}

func (m *mockDB) Ping(ctx context.Context) error { return nil }

func (m *mockDB) Close() {}

func (m *mockDB) counts() (acquired, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired, m.released
}

type mockConn struct {
	db *mockDB
}

func (c *mockConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	c.db.statements = append(c.db.statements, sql)
	c.db.params = append(c.db.params, args)

	if len(c.db.execErrs) == 0 {
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	err := c.db.execErrs[0]
	c.db.execErrs = c.db.execErrs[1:]
	if err == nil {
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.CommandTag{}, err
}

func (c *mockConn) Release() {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.released++
}

// recordingSleeper captures requested delays without waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

// captureLogger records formatted messages per level.
type captureLogger struct {
	mu    sync.Mutex
	info  []string
	error []string
}

func (l *captureLogger) Verbose(format string, args ...interface{}) {}

func (l *captureLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.error = append(l.error, fmt.Sprintf(format, args...))
}
