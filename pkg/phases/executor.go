// Package phases implements the closed set of phase executors: one adapter
// per processing stage, each a single-shot call into an external
// collaborator, classified into the PhaseResult variant set. Transient
// failures are retried locally here; the supervisor only ever sees an
// already-classified result.
package phases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// Executor is one phase of the pipeline. Execute consumes the parts of the
// state its phase needs and must always return a deterministic PhaseResult,
// even on timeout, so the supervisor's decision table stays total.
type Executor interface {
	Phase() models.Phase
	Execute(ctx context.Context, state *models.WorkflowState) models.PhaseResult
}

// Config bounds a single phase invocation.
type Config struct {
	Timeout     time.Duration `json:"timeout"`
	MaxAttempts int           `json:"max_attempts"` // Local transient retries, distinct from the collaboration cap
	RetryDelay  time.Duration `json:"retry_delay"`
}

// DefaultConfig returns the phase execution bounds used by the daemons.
func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Minute,
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}
}

func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}

	return c.MaxAttempts
}

// call runs one collaborator invocation with the phase timeout applied,
// retrying transient errors up to the local attempt budget.
func call[T any](ctx context.Context, cfg Config, logger *slog.Logger, invoke func(ctx context.Context) (T, error)) (T, error) {
	var (
		result  T
		lastErr error
	)

	for attempt := 1; attempt <= cfg.attempts(); attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})

		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}

		result, lastErr = invoke(attemptCtx)

		cancel()

		if lastErr == nil {
			return result, nil
		}

		if errors.Is(lastErr, context.DeadlineExceeded) {
			lastErr = protocol.Transient(lastErr)
		}

		if !protocol.IsTransient(lastErr) || errors.Is(ctx.Err(), context.Canceled) {
			return result, lastErr
		}

		if attempt < cfg.attempts() {
			logger.WarnContext(ctx, "Transient collaborator failure, retrying",
				"attempt", attempt,
				"error", lastErr)

			select {
			case <-time.After(cfg.RetryDelay):
			case <-ctx.Done():
				return result, lastErr
			}
		}
	}

	return result, lastErr
}

// classify maps a collaborator error into the closed result set.
// retryableTimeout marks phases (testing) whose exhausted transient retries
// stay transient; for all other phases they surface as fatal.
func classify(phase models.Phase, err error, retryableTimeout bool) models.PhaseResult {
	if protocol.IsTransient(err) && retryableTimeout {
		return models.TransientFailureResult(phase, err.Error())
	}

	return models.FatalFailureResult(phase, err.Error())
}
