package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/eventbus"
	"github.com/scriptflow/scriptflow/pkg/events"
)

// RecoverySweeper periodically scans the checkpoint store for tasks stuck
// in a non-terminal status and republishes resume requests for them. This
// is how tasks orphaned by a crashed worker get picked up again.
type RecoverySweeper struct {
	store    checkpoint.Store
	eventBus eventbus.EventBus
	logger   *slog.Logger
	cron     *cron.Cron
	expr     string
}

func NewRecoverySweeper(
	expr string,
	store checkpoint.Store,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) (*RecoverySweeper, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid recovery cron expression %q: %w", expr, err)
	}

	return &RecoverySweeper{
		store:    store,
		eventBus: eventBus,
		logger:   logger.With("module", "recovery_sweeper"),
		cron:     cron.New(),
		expr:     expr,
	}, nil
}

func (r *RecoverySweeper) Start(ctx context.Context) {
	_, _ = r.cron.AddFunc(r.expr, func() {
		if err := r.Sweep(ctx); err != nil {
			r.logger.ErrorContext(ctx, "Recovery sweep failed", "error", err)
		}
	})

	r.cron.Start()
	r.logger.InfoContext(ctx, "Recovery sweeper started", "schedule", r.expr)
}

func (r *RecoverySweeper) Stop() {
	<-r.cron.Stop().Done()
}

// Sweep requests a resume for every known task whose latest checkpoint is
// non-terminal. Resume is idempotent on terminal tasks and the worker skips
// tasks it already drives, so over-requesting is harmless.
func (r *RecoverySweeper) Sweep(ctx context.Context) error {
	taskIDs, err := r.store.TaskIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	requested := 0

	for _, taskID := range taskIDs {
		snapshot, err := r.store.GetLatest(ctx, taskID)
		if err != nil {
			r.logger.WarnContext(ctx, "Failed to load snapshot during sweep", "task_id", taskID, "error", err)

			continue
		}

		if snapshot.State.Status.Terminal() {
			continue
		}

		event := events.TaskResumeRequested{
			BaseEvent: events.NewBaseEvent(events.TaskResumeRequestedEvent, taskID),
		}

		if err := r.eventBus.Publish(ctx, taskID, event); err != nil {
			r.logger.ErrorContext(ctx, "Failed to publish resume request", "task_id", taskID, "error", err)

			continue
		}

		requested++
	}

	if requested > 0 {
		r.logger.InfoContext(ctx, "Recovery sweep requested resumes", "count", requested)
	}

	return nil
}
