package intake

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Server stopped cleanly
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitServerError     = 12 // HTTP listener failed
)

const (
	// DefaultMaxRetries is the number of retries a write gets after its first
	// attempt fails with a retryable error.
	DefaultMaxRetries = 3

	// DefaultWriteInitialDelay is the backoff before the first retry of a write.
	// Each following retry doubles it: 2s, 4s, 8s.
	DefaultWriteInitialDelay = 2 * time.Second

	// DefaultWriteMaxDelay caps a single backoff between write attempts.
	DefaultWriteMaxDelay = 1 * time.Minute

	// DefaultConnectInitialDelay is the initial delay before retrying pool startup.
	DefaultConnectInitialDelay = 100 * time.Millisecond

	// DefaultConnectMaxDelay is the maximum delay between pool startup attempts.
	DefaultConnectMaxDelay = 5 * time.Second

	// DefaultPoolSize bounds the number of pooled database connections.
	DefaultPoolSize = 3

	// DefaultPort is the HTTP listening port.
	DefaultPort = 3000

	// DefaultDatabasePort is the PostgreSQL server port.
	DefaultDatabasePort = 5432

	// DefaultSSLMode is the PostgreSQL sslmode used when none is configured.
	DefaultSSLMode = "prefer"

	// DefaultAllowedOrigin is the single CORS origin allowed when none is configured.
	DefaultAllowedOrigin = "http://localhost:5173"

	// DefaultWriteTimeout bounds one write including all retries and backoffs.
	// It must exceed the worst-case retry schedule (2s + 4s + 8s).
	DefaultWriteTimeout = 30 * time.Second

	// DefaultShutdownTimeout is how long in-flight requests get to finish on shutdown.
	// It outlasts DefaultWriteTimeout so a draining write keeps its retry budget.
	DefaultShutdownTimeout = DefaultWriteTimeout + 5*time.Second

	// RetryPolicyConnReset retries only connection-reset failures.
	RetryPolicyConnReset = "connreset"

	// RetryPolicyTransient retries every transient PostgreSQL and network failure.
	RetryPolicyTransient = "transient"
)
