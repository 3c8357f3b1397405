package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/collaboration"
	"github.com/scriptflow/scriptflow/pkg/eventbus"
	"github.com/scriptflow/scriptflow/pkg/events"
	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/otelhelper"
	"github.com/scriptflow/scriptflow/pkg/phases"
	"github.com/scriptflow/scriptflow/pkg/protocol"
	"github.com/scriptflow/scriptflow/pkg/supervisor"
)

// Config bounds the engine's checkpoint write retries. A write that still
// fails after the budget suspends the task instead of advancing it.
type Config struct {
	CheckpointAttempts int           `json:"checkpoint_attempts"`
	CheckpointBackoff  time.Duration `json:"checkpoint_backoff"`
}

// DefaultConfig returns the checkpoint retry policy used by the daemons.
func DefaultConfig() Config {
	return Config{
		CheckpointAttempts: 5,
		CheckpointBackoff:  200 * time.Millisecond,
	}
}

// Engine drives one task at a time to a terminal status. Engines are
// stateless between calls; all task progress lives in the WorkflowState
// and the checkpoint store, so any engine instance can resume any task.
type Engine struct {
	workerID   string
	store      checkpoint.Store
	bus        eventbus.EventBus
	executors  phases.Set
	collab     *collaboration.Manager
	supervisor *supervisor.Supervisor
	tracer     trace.Tracer
	logger     *slog.Logger
	cfg        Config
}

// NewEngine wires an engine. The bus may be nil for embedded or test use;
// lifecycle events are then skipped.
func NewEngine(
	workerID string,
	store checkpoint.Store,
	bus eventbus.EventBus,
	executors phases.Set,
	collab *collaboration.Manager,
	sup *supervisor.Supervisor,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	return &Engine{
		workerID:   workerID,
		store:      store,
		bus:        bus,
		executors:  executors,
		collab:     collab,
		supervisor: sup,
		tracer:     noop.NewTracerProvider().Tracer("engine"),
		logger:     logger.With("module", "execution_engine", "worker_id", workerID),
		cfg:        cfg,
	}
}

// WithTracer replaces the no-op tracer, used by the daemons when OTLP
// export is configured.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer

	return e
}

// Run drives the state to a terminal status: decide, act, fold, checkpoint,
// repeat. It is safe to call on a recovered snapshot; the supervisor
// re-derives the interrupted directive from the recorded artifacts.
func (e *Engine) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	logger := e.logger.With("task_id", state.TaskID)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.run",
		attribute.String(otelhelper.TaskIDKey, state.TaskID),
		attribute.String(otelhelper.PlatformKey, string(state.Platform)),
	)
	defer span.End()

	started := time.Now()

	for {
		if ctx.Err() != nil {
			return e.abort(state, logger)
		}

		directive := e.supervisor.Decide(state)

		switch directive.Kind {
		case supervisor.DirectiveTerminate:
			return e.terminate(ctx, state, directive, logger, started)

		case supervisor.DirectiveRunPhase:
			if err := e.runPhase(ctx, state, directive.Phase, logger); err != nil {
				// A cancellation observed mid-phase still gets its
				// aborted checkpoint; otherwise the recovery sweep
				// would resume a task the user cancelled.
				if ctx.Err() != nil {
					return e.abort(state, logger)
				}

				return state, err
			}

		case supervisor.DirectiveCollaborate:
			if err := e.collaborate(ctx, state, logger); err != nil {
				if ctx.Err() != nil {
					return e.abort(state, logger)
				}

				return state, err
			}
		}
	}
}

func (e *Engine) terminate(
	ctx context.Context,
	state *models.WorkflowState,
	directive supervisor.Directive,
	logger *slog.Logger,
	started time.Time,
) (*models.WorkflowState, error) {
	if !state.Status.Terminal() {
		if directive.Verdict == supervisor.VerdictSuccess {
			state.Status = models.TaskStatusSucceeded
		} else {
			state.Status = models.TaskStatusFailed
		}

		state.UpdatedAt = time.Now().UTC()

		if err := e.persist(ctx, state); err != nil {
			return state, err
		}
	}

	logger.InfoContext(ctx, "Task reached terminal status",
		"status", state.Status,
		"retry_count", state.RetryCount,
		"checkpoint_seq", state.CheckpointSeq)

	finished := events.TaskFinished{
		BaseEvent:  events.NewBaseEvent(events.TaskFinishedEvent, state.TaskID),
		Status:     state.Status,
		RetryCount: state.RetryCount,
		Duration:   time.Since(started),
	}
	finished.WorkerID = e.workerID
	e.publish(ctx, state.TaskID, finished, logger)

	return state, nil
}

func (e *Engine) runPhase(ctx context.Context, state *models.WorkflowState, phase models.Phase, logger *slog.Logger) error {
	executor, ok := e.executors[phase]
	if !ok {
		return NewTaskError("RunPhase", state.TaskID, fmt.Errorf("%w: %s", ErrNoExecutor, phase))
	}

	if state.Status == models.TaskStatusInitiated || state.Status == models.TaskStatusCollaborating {
		state.Status = models.TaskStatusRunning
	}

	logger.InfoContext(ctx, "Executing phase", "phase", phase)

	phaseCtx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.phase",
		attribute.String(otelhelper.TaskIDKey, state.TaskID),
		attribute.String(otelhelper.PhaseKey, string(phase)),
	)

	result := executor.Execute(phaseCtx, state)

	if result.Outcome != models.OutcomeSuccess {
		otelhelper.SetError(span, fmt.Errorf("%s: %s", result.Outcome, result.Cause))
	}

	span.End()

	// A transient result surviving the testing executor's local retries
	// means the runner is unavailable, not that the code is bad. Suspend
	// without folding so the persisted state stays resumable and a later
	// run retries the phase.
	if result.Outcome == models.OutcomeTransientFailure {
		logger.WarnContext(ctx, "Phase suspended on transient failure",
			"phase", phase,
			"cause", result.Cause)

		return NewTaskError("RunPhase", state.TaskID, fmt.Errorf("%w: %s", ErrTaskSuspended, result.Cause))
	}

	e.fold(state, result)

	if err := e.persist(ctx, state); err != nil {
		return err
	}

	completed := events.PhaseCompleted{
		BaseEvent: events.NewBaseEvent(events.PhaseCompletedEvent, state.TaskID),
		Phase:     phase,
		Outcome:   result.Outcome,
		Cause:     result.Cause,
		Seq:       state.CheckpointSeq,
	}
	completed.WorkerID = e.workerID
	e.publish(ctx, state.TaskID, completed, logger)

	return nil
}

func (e *Engine) collaborate(ctx context.Context, state *models.WorkflowState, logger *slog.Logger) error {
	err := e.collab.RequestFix(ctx, state)
	if err != nil {
		// A failed fix request ends the repair loop the same way a fatal
		// phase failure does: record it and let reporting run.
		state.Failure = &models.FailureRecord{
			Phase:      models.PhaseCodeGeneration,
			Cause:      err.Error(),
			Transient:  protocol.IsTransient(err),
			OccurredAt: time.Now().UTC(),
		}
	}

	state.UpdatedAt = time.Now().UTC()

	if err := e.persist(ctx, state); err != nil {
		return err
	}

	if err == nil {
		round := state.CollaborationHistory[len(state.CollaborationHistory)-1]
		recorded := events.CollaborationRoundRecorded{
			BaseEvent:  events.NewBaseEvent(events.CollaborationRoundRecordedEvent, state.TaskID),
			RoundIndex: round.RoundIndex,
			RetryCount: state.RetryCount,
			Confidence: round.Response.Confidence,
		}
		e.publish(ctx, state.TaskID, recorded, logger)
	}

	return nil
}

// fold applies a phase result to the state. Successful artifacts are
// committed in phase order; failures become the state's failure record and
// the supervisor routes them from there.
func (e *Engine) fold(state *models.WorkflowState, result models.PhaseResult) {
	state.CurrentPhase = result.Phase
	state.UpdatedAt = time.Now().UTC()

	if result.Outcome != models.OutcomeSuccess {
		state.Failure = &models.FailureRecord{
			Phase:      result.Phase,
			Cause:      result.Cause,
			Transient:  result.Outcome == models.OutcomeTransientFailure,
			OccurredAt: time.Now().UTC(),
		}

		return
	}

	switch artifact := result.Artifact.(type) {
	case models.Blueprint:
		state.Blueprint = &artifact
		// The blueprint phase resolves an "auto" platform hint; the
		// platform is immutable afterwards.
		if state.Platform == models.PlatformAuto {
			state.Platform = artifact.Platform
		}
	case models.GeneratedCode:
		state.GeneratedCode = &artifact
	case models.TestResult:
		state.TestResult = &artifact
		e.collab.ResolveRound(state, artifact.Success)
	case models.FinalReport:
		state.FinalReport = &artifact
	}
}

// persist checkpoints the state under the next sequence number, retrying
// with backoff. A sequence conflict after a retried write means the earlier
// attempt landed, so it counts as success. Exhausting the budget suspends
// the task: the engine never advances past an unpersisted transition.
func (e *Engine) persist(ctx context.Context, state *models.WorkflowState) error {
	seq := state.CheckpointSeq + 1
	backoff := e.cfg.CheckpointBackoff

	var lastErr error

	for attempt := 1; attempt <= e.cfg.CheckpointAttempts; attempt++ {
		state.CheckpointSeq = seq

		lastErr = e.store.Put(ctx, state.TaskID, seq, state)
		if lastErr == nil || checkpoint.IsSequenceConflict(lastErr) {
			return nil
		}

		e.logger.WarnContext(ctx, "Checkpoint write failed",
			"task_id", state.TaskID,
			"seq", seq,
			"attempt", attempt,
			"error", lastErr)

		if attempt < e.cfg.CheckpointAttempts {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				state.CheckpointSeq = seq - 1

				return NewTaskError("Checkpoint", state.TaskID, ctx.Err())
			}
		}
	}

	state.CheckpointSeq = seq - 1

	return NewTaskError("Checkpoint", state.TaskID, fmt.Errorf("%w: %w", ErrTaskSuspended, lastErr))
}

// abort handles in-flight cancellation: best-effort final checkpoint with a
// fresh context, never deleting prior checkpoints.
func (e *Engine) abort(state *models.WorkflowState, logger *slog.Logger) (*models.WorkflowState, error) {
	state.Status = models.TaskStatusAborted
	state.UpdatedAt = time.Now().UTC()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.persist(flushCtx, state); err != nil {
		logger.ErrorContext(flushCtx, "Failed to persist abort checkpoint", "error", err)
	}

	finished := events.TaskFinished{
		BaseEvent:  events.NewBaseEvent(events.TaskFinishedEvent, state.TaskID),
		Status:     state.Status,
		RetryCount: state.RetryCount,
	}
	e.publish(flushCtx, state.TaskID, finished, logger)

	logger.Info("Task aborted", "checkpoint_seq", state.CheckpointSeq)

	return state, context.Canceled
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event, logger *slog.Logger) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, key, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
