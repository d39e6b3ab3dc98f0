package retry

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/intake/pkg/intake"
)

// NewClassifier returns the classifier for a retry policy name.
// An empty policy selects RetryPolicyConnReset.
func NewClassifier(policy string) (intake.ErrorClassifier, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", intake.RetryPolicyConnReset:
		return NewConnectionResetClassifier(), nil
	case intake.RetryPolicyTransient:
		return NewPostgreSQLErrorClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown retry policy %q: %w", policy, intake.ErrInvalidConfig)
	}
}

// ConnectionResetClassifier retries only when the peer reset the connection.
// Every other failure, including other network errors, is terminal.
type ConnectionResetClassifier struct{}

// NewConnectionResetClassifier creates a ConnectionResetClassifier.
func NewConnectionResetClassifier() *ConnectionResetClassifier {
	return &ConnectionResetClassifier{}
}

// IsTransient reports whether err is a connection reset.
func (c *ConnectionResetClassifier) IsTransient(err error) bool {
	return IsConnectionReset(err)
}

// IsConnectionReset reports whether err, or anything it wraps, is ECONNRESET.
// Server-side PostgreSQL errors never count; the text check covers drivers
// that flatten the syscall error into a message.
func IsConnectionReset(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection reset")
}

// PostgreSQL error codes for transient conditions
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// transientClassPrefixes are SQLSTATE classes that are retryable as a whole:
// 08 connection exception, 53 insufficient resources, 57 operator intervention.
var transientClassPrefixes = []string{"08", "53", "57"}

// PostgreSQLErrorClassifier implements ErrorClassifier for PostgreSQL-specific errors.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return c.isTransientPgError(pgErr)
	}

	if c.isNetworkError(err) {
		return true
	}

	return c.isConnectionError(err)
}

func (c *PostgreSQLErrorClassifier) isTransientPgError(pgErr *pgconn.PgError) bool {
	for _, prefix := range transientClassPrefixes {
		if strings.HasPrefix(pgErr.Code, prefix) {
			return true
		}
	}

	switch pgErr.Code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}

func (c *PostgreSQLErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{
			syscall.ECONNREFUSED,
			syscall.ECONNRESET,
			syscall.ENETUNREACH,
			syscall.EHOSTUNREACH,
		} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}

	return false
}

// transientPatterns match connection errors that reach us only as text.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"connection pool exhausted",
}

func (c *PostgreSQLErrorClassifier) isConnectionError(err error) bool {
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
