package retry

import (
	"context"
	"time"

	"github.com/vvka-141/intake/pkg/intake"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Executor orchestrates retry attempts with backoff and error classification.
//
// One Execute call walks Attempting -> Backoff -> Attempting ... until the
// operation succeeds, fails with a non-transient error, or the strategy's
// retry budget is spent. Nothing is shared between calls.
type Executor struct {
	classifier intake.ErrorClassifier
	strategy   intake.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
	sleep      Sleeper
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(
	classifier intake.ErrorClassifier,
	strategy intake.BackoffStrategy,
) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		sleep:      sleepContext,
	}
}

// WithOnRetry returns a new Executor that calls callback before each backoff.
// attempt is zero-indexed: 0 precedes the first retry.
//
// This method does NOT modify the receiver.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithSleeper returns a new Executor that waits through sleeper instead of a timer.
func (e *Executor) WithSleeper(sleeper Sleeper) *Executor {
	clone := *e
	if sleeper == nil {
		sleeper = sleepContext
	}
	clone.sleep = sleeper
	return &clone
}

// Execute runs the operation with retry logic.
//
// It returns nil on success, the operation's error when that error is not
// transient, an *ExhaustedError when every retry failed transiently, or the
// context error when ctx ends during a backoff.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxAttempts := e.strategy.MaxAttempts()

	lastErr := operation(ctx)
	if lastErr == nil {
		return nil
	}
	if !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	// A negative budget (typically -1) retries until success or cancellation.
	attempt := 0
	for ; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		if err := e.sleep(ctx, delay); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return &ExhaustedError{Retries: attempt, Err: lastErr}
}

// ExhaustedError is returned when the last allowed attempt still failed
// transiently. Its message is the underlying error's, unchanged.
type ExhaustedError struct {
	Retries int
	Err     error
}

func (e *ExhaustedError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes both the underlying error and intake.ErrRetriesExhausted.
func (e *ExhaustedError) Unwrap() []error {
	return []error{e.Err, intake.ErrRetriesExhausted}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
