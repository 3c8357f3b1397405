package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/scriptflow/scriptflow/pkg/cmd"
	"github.com/scriptflow/scriptflow/pkg/collaboration"
	"github.com/scriptflow/scriptflow/pkg/collaborators/remote"
	"github.com/scriptflow/scriptflow/pkg/collaborators/report"
	"github.com/scriptflow/scriptflow/pkg/engine"
	"github.com/scriptflow/scriptflow/pkg/log"
	"github.com/scriptflow/scriptflow/pkg/otelhelper"
	"github.com/scriptflow/scriptflow/pkg/phases"
	"github.com/scriptflow/scriptflow/pkg/supervisor"
)

func main() {
	command := &cli.Command{
		Name:                  "scriptflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Start a worker that drives submitted tasks through the pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Checkpoint store URL (file://path or redis://host)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "analyzer-url",
				Usage:    "Base URL of the document analysis service",
				Required: true,
				Sources:  cli.EnvVars("ANALYZER_URL"),
			},
			&cli.StringFlag{
				Name:     "codegen-url",
				Usage:    "Base URL of the code generation service",
				Required: true,
				Sources:  cli.EnvVars("CODEGEN_URL"),
			},
			&cli.StringFlag{
				Name:     "testrunner-url",
				Usage:    "Base URL of the test execution service",
				Required: true,
				Sources:  cli.EnvVars("TESTRUNNER_URL"),
			},
			&cli.IntFlag{
				Name:    "max-retries",
				Usage:   "Repair round budget per task",
				Value:   supervisor.DefaultMaxRetries,
				Sources: cli.EnvVars("MAX_RETRIES"),
			},
			&cli.DurationFlag{
				Name:    "phase-timeout",
				Usage:   "Per-attempt timeout for phase execution",
				Value:   10 * time.Minute,
				Sources: cli.EnvVars("PHASE_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "recovery-cron",
				Usage:   "Cron expression for the orphaned-task recovery sweep (empty disables)",
				Value:   "@every 1m",
				Sources: cli.EnvVars("RECOVERY_CRON"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("scriptflow-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing ScriptFlow Worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			store, err := cmd.NewCheckpointStore(command.String("database-url"))
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close checkpoint store", "error", err)
				}
			}()

			phaseCfg := phases.DefaultConfig()
			phaseCfg.Timeout = command.Duration("phase-timeout")

			executors, err := phases.NewSet(
				remote.NewAnalyzer(remote.NewClient(command.String("analyzer-url"), logger)),
				remote.NewGenerator(remote.NewClient(command.String("codegen-url"), logger)),
				remote.NewRunner(remote.NewClient(command.String("testrunner-url"), logger)),
				report.NewGenerator(),
				phaseCfg,
				logger,
			)
			if err != nil {
				return err
			}

			collab := collaboration.NewManager(
				remote.NewGenerator(remote.NewClient(command.String("codegen-url"), logger)),
				phaseCfg.Timeout,
				logger,
			)

			sup := supervisor.New(int(command.Int("max-retries")))

			eng := engine.NewEngine(workerID, store, eventBus, executors, collab, sup, logger, engine.DefaultConfig())

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "scriptflow-worker")
				if err != nil {
					return err
				}

				eng = eng.WithTracer(tracer)
			}

			service := engine.NewService(store, eventBus, eng, sup, logger)

			worker := NewWorkerManager(workerID, service, eventBus, logger)

			if expr := command.String("recovery-cron"); expr != "" {
				sweeper, err := NewRecoverySweeper(expr, store, eventBus, logger)
				if err != nil {
					return err
				}

				sweeper.Start(ctx)
				defer sweeper.Stop()
			}

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Worker terminated with error", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
