package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/scriptflow/scriptflow/pkg/cmd"
	"github.com/scriptflow/scriptflow/pkg/engine"
	"github.com/scriptflow/scriptflow/pkg/log"
	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/supervisor"
)

func main() {
	command := &cli.Command{
		Name:                  "scriptflow",
		Usage:                 "Submit and manage document-to-automation tasks",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "submit",
				Aliases: []string{"s"},
				Usage:   "Submit a new task",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Automation target (mobile, web, auto)",
						Value: "auto",
					},
					&cli.StringFlag{
						Name:  "instruction",
						Usage: "Natural language instruction for the task",
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Path to the requirements document",
					},
					&cli.StringFlag{
						Name:  "task-id",
						Usage: "Custom task ID (auto-generated if not provided)",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withService(ctx, command, func(service *engine.Service) error {
						var document []byte

						if path := command.String("document"); path != "" {
							data, err := os.ReadFile(path)
							if err != nil {
								return fmt.Errorf("failed to read document: %w", err)
							}

							document = data
						}

						view, err := service.Submit(ctx, engine.SubmitRequest{
							TaskID:      command.String("task-id"),
							Platform:    models.Platform(command.String("platform")),
							Instruction: command.String("instruction"),
							Document:    document,
						})
						if err != nil {
							return err
						}

						return printJSON(view)
					})
				},
			},
			{
				Name:      "status",
				Usage:     "Show the latest checkpointed state of a task",
				ArgsUsage: "<task-id>",
				Action: func(ctx context.Context, command *cli.Command) error {
					return withService(ctx, command, func(service *engine.Service) error {
						view, err := service.Status(ctx, taskIDArg(command))
						if err != nil {
							return err
						}

						return printJSON(view)
					})
				},
			},
			{
				Name:      "resume",
				Usage:     "Request a worker to resume a task from its latest checkpoint",
				ArgsUsage: "<task-id>",
				Action: func(ctx context.Context, command *cli.Command) error {
					return withService(ctx, command, func(service *engine.Service) error {
						taskID := taskIDArg(command)
						if err := service.RequestResume(ctx, taskID); err != nil {
							return err
						}

						fmt.Println("resume requested for " + taskID)

						return nil
					})
				},
			},
			{
				Name:      "cancel",
				Usage:     "Request cancellation of a task",
				ArgsUsage: "<task-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "reason",
						Usage: "Cancellation reason recorded on the event",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withService(ctx, command, func(service *engine.Service) error {
						taskID := taskIDArg(command)
						if err := service.RequestCancel(ctx, taskID, command.String("reason")); err != nil {
							return err
						}

						fmt.Println("cancel requested for " + taskID)

						return nil
					})
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withService wires a store-and-bus-only service: the CLI never executes
// phases itself.
func withService(ctx context.Context, command *cli.Command, fn func(service *engine.Service) error) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("scriptflow-cli")

	store, err := cmd.NewCheckpointStore(command.String("database-url"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close checkpoint store", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	service := engine.NewService(store, eventBus, nil, supervisor.New(supervisor.DefaultMaxRetries), logger)

	return fn(service)
}

func taskIDArg(command *cli.Command) string {
	return command.Args().First()
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}
