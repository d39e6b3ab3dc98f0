package retry

import (
	"fmt"
	"time"

	"github.com/vvka-141/intake/pkg/intake"
)

// NewWriteExecutor builds the executor used for form inserts: policy picks
// the classifier, and backoff doubles from initialDelay without jitter, so
// the defaults wait 2s, 4s, then 8s.
func NewWriteExecutor(policy string, maxRetries int, initialDelay time.Duration) (*Executor, error) {
	classifier, err := NewClassifier(policy)
	if err != nil {
		return nil, err
	}
	if maxRetries < 0 {
		return nil, fmt.Errorf("max retries cannot be negative: %w", intake.ErrInvalidConfig)
	}
	if initialDelay <= 0 {
		initialDelay = intake.DefaultWriteInitialDelay
	}

	strategy := NewExponentialBackoff(maxRetries,
		WithInitialDelay(initialDelay),
		WithMaxDelay(intake.DefaultWriteMaxDelay),
		WithMultiplier(2),
		WithJitter(0),
	)
	return NewExecutor(classifier, strategy), nil
}
