package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/intake/internal/logging"
	"github.com/vvka-141/intake/internal/metrics"
	"github.com/vvka-141/intake/internal/retry"
	"github.com/vvka-141/intake/pkg/intake"
)

const goalStatement = "INSERT INTO form2_client_goal (client_goal) VALUES ($1)"

func newTestRecorder(t *testing.T, db *mockDB, policy string) (*RecorderService, *recordingSleeper, *captureLogger) {
	t.Helper()

	executor, err := retry.NewWriteExecutor(policy, intake.DefaultMaxRetries, intake.DefaultWriteInitialDelay)
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	logger := &captureLogger{}
	svc := NewRecorderService(db, executor.WithSleeper(sleeper.sleep), nil, logger)
	return svc, sleeper, logger
}

func goalRequest() intake.WriteRequest {
	return intake.NewWriteRequest("goals", goalStatement, "grow revenue")
}

func TestRecord_SuccessFirstAttempt(t *testing.T) {
	db := &mockDB{}
	svc, sleeper, _ := newTestRecorder(t, db, "")

	outcome := svc.Record(context.Background(), goalRequest())

	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, sleeper.delays)
	assert.Equal(t, []string{goalStatement}, db.statements)
	assert.Equal(t, [][]any{{"grow revenue"}}, db.params)
}

func TestRecord_ResetTwiceThenSuccess(t *testing.T) {
	db := &mockDB{execErrs: []error{resetErr(), resetErr(), nil}}
	svc, sleeper, logger := newTestRecorder(t, db, "")

	outcome := svc.Record(context.Background(), goalRequest())

	assert.Equal(t, intake.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.delays)
	assert.Equal(t, []string{
		"Retrying query (attempt 1) in 2s...",
		"Retrying query (attempt 2) in 4s...",
	}, logger.info)
	assert.Len(t, logger.error, 2)
}

func TestRecord_ResetExhaustsRetries(t *testing.T) {
	db := &mockDB{execErrs: []error{resetErr(), resetErr(), resetErr(), resetErr()}}
	svc, sleeper, _ := newTestRecorder(t, db, "")

	outcome := svc.Record(context.Background(), goalRequest())

	assert.Equal(t, intake.OutcomeFailure, outcome.Kind)
	assert.Equal(t, 4, outcome.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.delays)
	assert.ErrorIs(t, outcome.Err, intake.ErrRetriesExhausted)
	assert.ErrorIs(t, outcome.Err, syscall.ECONNRESET)
	assert.Equal(t, resetErr().Error(), outcome.Reason())
}

func TestRecord_NonResetFailsImmediately(t *testing.T) {
	dup := &pgconn.PgError{Severity: "ERROR", Code: "23505", Message: "duplicate key value violates unique constraint"}
	db := &mockDB{execErrs: []error{dup}}
	svc, sleeper, _ := newTestRecorder(t, db, "")

	outcome := svc.Record(context.Background(), goalRequest())

	assert.Equal(t, intake.OutcomeFailure, outcome.Kind)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, sleeper.delays)
	assert.Same(t, error(dup), outcome.Err)
	assert.Equal(t, "ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)", outcome.Reason())
}

func TestRecord_TransientPolicyRetriesSerializationFailure(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}

	t.Run("connreset policy", func(t *testing.T) {
		db := &mockDB{execErrs: []error{serialization}}
		svc, _, _ := newTestRecorder(t, db, intake.RetryPolicyConnReset)

		outcome := svc.Record(context.Background(), goalRequest())
		assert.False(t, outcome.Succeeded())
		assert.Equal(t, 1, outcome.Attempts)
	})

	t.Run("transient policy", func(t *testing.T) {
		db := &mockDB{execErrs: []error{serialization}}
		svc, sleeper, _ := newTestRecorder(t, db, intake.RetryPolicyTransient)

		outcome := svc.Record(context.Background(), goalRequest())
		assert.True(t, outcome.Succeeded())
		assert.Equal(t, 2, outcome.Attempts)
		assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.delays)
	})
}

func TestRecord_ReleasesConnectionEveryAttempt(t *testing.T) {
	db := &mockDB{execErrs: []error{resetErr(), resetErr(), resetErr(), resetErr()}}
	svc, _, _ := newTestRecorder(t, db, "")

	svc.Record(context.Background(), goalRequest())

	acquired, released := db.counts()
	assert.Equal(t, 4, acquired)
	assert.Equal(t, acquired, released)
}

func TestRecord_AcquireFailure(t *testing.T) {
	db := &mockDB{acquireErr: errors.New("pool closed")}
	svc, sleeper, _ := newTestRecorder(t, db, "")

	outcome := svc.Record(context.Background(), goalRequest())

	assert.False(t, outcome.Succeeded())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, sleeper.delays)
	assert.Contains(t, outcome.Reason(), "pool closed")
	_, released := db.counts()
	assert.Zero(t, released)
}

func TestRecord_CancelledDuringBackoff(t *testing.T) {
	db := &mockDB{execErrs: []error{resetErr(), resetErr()}}
	executor, err := retry.NewWriteExecutor("", intake.DefaultMaxRetries, intake.DefaultWriteInitialDelay)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	executor = executor.WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})
	svc := NewRecorderService(db, executor, nil, logging.NewNullLogger())

	outcome := svc.Record(ctx, goalRequest())

	assert.Equal(t, intake.OutcomeFailure, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, context.Canceled)
	assert.Equal(t, 1, outcome.Attempts)
}

func TestRecord_Metrics(t *testing.T) {
	db := &mockDB{execErrs: []error{resetErr(), nil}}
	executor, err := retry.NewWriteExecutor("", intake.DefaultMaxRetries, intake.DefaultWriteInitialDelay)
	require.NoError(t, err)
	sleeper := &recordingSleeper{}

	reg := prometheus.NewRegistry()
	collector := metrics.NewWithRegistry(reg)
	svc := NewRecorderService(db, executor.WithSleeper(sleeper.sleep), collector, logging.NewNullLogger())

	svc.Record(context.Background(), goalRequest())

	expected := `
# HELP intake_write_attempts_total Statement submissions, including the first attempt of every write
# TYPE intake_write_attempts_total counter
intake_write_attempts_total{form="goals"} 2
# HELP intake_write_outcomes_total Terminal write outcomes by form and result
# TYPE intake_write_outcomes_total counter
intake_write_outcomes_total{form="goals",outcome="success"} 1
# HELP intake_write_retries_total Retries scheduled after a retryable failure
# TYPE intake_write_retries_total counter
intake_write_retries_total{form="goals"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"intake_write_attempts_total", "intake_write_outcomes_total", "intake_write_retries_total")
	assert.NoError(t, err)
}

func TestSubmit_DeliversExactlyOneOutcome(t *testing.T) {
	db := &mockDB{execErrs: []error{resetErr(), nil}}
	svc, _, _ := newTestRecorder(t, db, "")

	ch := svc.Submit(context.Background(), goalRequest())

	var outcomes []intake.Outcome
	for o := range ch {
		outcomes = append(outcomes, o)
	}
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Succeeded())
	assert.Equal(t, 2, outcomes[0].Attempts)
}

func TestRecord_ConcurrentRequests(t *testing.T) {
	db := &mockDB{}
	svc, _, _ := newTestRecorder(t, db, "")

	const n = 20
	var wg sync.WaitGroup
	results := make([]intake.Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Record(context.Background(), goalRequest())
		}(i)
	}
	wg.Wait()

	for _, o := range results {
		assert.True(t, o.Succeeded())
	}
	acquired, released := db.counts()
	assert.Equal(t, n, acquired)
	assert.Equal(t, n, released)
}

func TestNewRecorderService_PanicsOnNil(t *testing.T) {
	executor, err := retry.NewWriteExecutor("", 1, time.Second)
	require.NoError(t, err)

	assert.Panics(t, func() { NewRecorderService(nil, executor, nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewRecorderService(&mockDB{}, nil, nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewRecorderService(&mockDB{}, executor, nil, nil) })
}
