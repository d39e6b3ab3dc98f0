package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/intake/pkg/intake"
)

func TestNewWriteExecutor_DefaultSchedule(t *testing.T) {
	exec, err := NewWriteExecutor("", intake.DefaultMaxRetries, intake.DefaultWriteInitialDelay)
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	exec = exec.WithSleeper(sleeper.sleep)

	calls := 0
	err = exec.Execute(context.Background(), func(context.Context) error {
		calls++
		return resetErr()
	})

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.delays)
}

func TestNewWriteExecutor_Invalid(t *testing.T) {
	_, err := NewWriteExecutor("sometimes", 3, time.Second)
	assert.ErrorIs(t, err, intake.ErrInvalidConfig)

	_, err = NewWriteExecutor(intake.RetryPolicyConnReset, -1, time.Second)
	assert.ErrorIs(t, err, intake.ErrInvalidConfig)
}

func TestNewWriteExecutor_ZeroRetries(t *testing.T) {
	exec, err := NewWriteExecutor(intake.RetryPolicyTransient, 0, 0)
	require.NoError(t, err)

	calls := 0
	err = exec.Execute(context.Background(), func(context.Context) error {
		calls++
		return resetErr()
	})

	assert.ErrorIs(t, err, intake.ErrRetriesExhausted)
	assert.Equal(t, 1, calls)
}
