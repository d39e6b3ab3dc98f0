package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vvka-141/intake/internal/metrics"
	"github.com/vvka-141/intake/internal/retry"
	"github.com/vvka-141/intake/pkg/intake"
)

// RecorderService implements intake.Recorder.
//
// Thread-Safety: safe for concurrent use. Each Record call keeps its retry
// state on its own stack and owns at most one pooled connection at a time.
type RecorderService struct {
	conn     intake.DBConnection
	executor *retry.Executor
	metrics  *metrics.Collector
	logger   intake.Logger
}

// NewRecorderService wires a recorder. collector may be nil.
// Panics on a nil conn, executor or logger.
func NewRecorderService(
	conn intake.DBConnection,
	executor *retry.Executor,
	collector *metrics.Collector,
	logger intake.Logger,
) *RecorderService {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if executor == nil {
		panic("executor cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &RecorderService{
		conn:     conn,
		executor: executor,
		metrics:  collector,
		logger:   logger,
	}
}

// Record runs req until it succeeds, fails terminally, exhausts its retries,
// or ctx ends during a backoff.
func (s *RecorderService) Record(ctx context.Context, req intake.WriteRequest) intake.Outcome {
	form := req.Form()
	attempts := 0

	executor := s.executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		s.logger.Info("Retrying query (attempt %d) in %v...", attempt+1, delay)
		s.metrics.ObserveRetry(form, delay)
	})

	err := executor.Execute(ctx, func(ctx context.Context) error {
		attempts++
		s.metrics.ObserveAttempt(form)
		return s.attempt(ctx, req)
	})

	outcome := intake.Outcome{Kind: intake.OutcomeSuccess, Attempts: attempts}
	if err != nil {
		outcome = intake.Outcome{Kind: intake.OutcomeFailure, Err: err, Attempts: attempts}
		if errors.Is(err, intake.ErrRetriesExhausted) {
			s.logger.Error("Write %s (%s) failed after %d attempts: %v", req.ID(), form, attempts, err)
		}
	}
	s.metrics.ObserveOutcome(form, outcome)
	s.logger.Verbose("Write %s (%s): %s after %d attempt(s)", req.ID(), form, outcome.Kind, attempts)
	return outcome
}

// Submit runs Record on its own goroutine. The returned channel receives the
// outcome once and is then closed.
func (s *RecorderService) Submit(ctx context.Context, req intake.WriteRequest) <-chan intake.Outcome {
	ch := make(chan intake.Outcome, 1)
	go func() {
		defer close(ch)
		ch <- s.Record(ctx, req)
	}()
	return ch
}

// attempt borrows one connection, submits the statement, and returns the
// connection to the pool whatever happened.
func (s *RecorderService) attempt(ctx context.Context, req intake.WriteRequest) error {
	conn, err := s.conn.Acquire(ctx)
	if err != nil {
		s.logger.Error("Database query error: %v", err)
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, req.Statement(), req.Params()...); err != nil {
		s.logger.Error("Database query error: %v", err)
		return err
	}
	return nil
}

var _ intake.Recorder = (*RecorderService)(nil)
