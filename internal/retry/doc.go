// Package retry runs an operation, classifies its failures, and re-runs it
// with exponential backoff while the failure stays transient and the retry
// budget lasts.
//
// # Example Usage
//
//	classifier := retry.NewConnectionResetClassifier()
//	strategy := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(2*time.Second),
//	    retry.WithJitter(0),
//	)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return insertRow(ctx)
//	})
//
// # Error Classification
//
// ConnectionResetClassifier treats only a reset connection as retryable.
// PostgreSQLErrorClassifier is the broader policy: connection exceptions,
// resource exhaustion, operator intervention, serialization failures,
// deadlocks, lock timeouts and network errors. NewClassifier picks one by
// policy name.
//
// # Backoff Strategies
//
// ExponentialBackoff computes initialDelay * multiplier^attempt, capped at
// maxDelay, with optional jitter. With a 2s initial delay and no jitter the
// schedule is 2s, 4s, 8s.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. WithOnRetry and WithSleeper
// return independent copies. Each Execute call owns its own attempt counter.
package retry
