package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/juris/pkg/cmd"
	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/log"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/trigger"
	"github.com/urfave/cli/v3"
)

const serviceName = "juris-scheduler"

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run cron schedules and consume trigger events",
		Flags: append([]cli.Flag{
			&cli.DurationFlag{
				Name:    "reload-interval",
				Usage:   "How often the scheduled workflows are reloaded from the store",
				Value:   time.Minute,
				Sources: cli.EnvVars("RELOAD_INTERVAL"),
			},
		}, cmd.EngineFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("scheduler")

			engine, err := cmd.NewEngine(ctx, logger, serviceName, cmd.EngineConfigFrom(command))
			if err != nil {
				return err
			}

			defer func() {
				if err := engine.Close(context.Background()); err != nil {
					logger.Error("Failed to close engine", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			dispatcher := trigger.NewEventDispatcher(logger, engine.Workflows, engine.Executor)
			if err := dispatcher.Register(engine.EventBus); err != nil {
				return fmt.Errorf("failed to register trigger handler: %w", err)
			}

			if err := engine.EventBus.Subscribe(ctx); err != nil {
				return err
			}

			scheduler := trigger.NewScheduler(logger, engine.Workflows, engine.Executor)
			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			defer scheduler.Stop()

			ticker := time.NewTicker(command.Duration("reload-interval"))
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					logger.Info("Shutting down scheduler")

					return nil
				case <-ticker.C:
					if err := scheduler.Reload(ctx); err != nil {
						logger.WarnContext(ctx, "Failed to reload schedules", "error", err)
					}
				}
			}
		},
	}
}

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List scheduled and event workflows with their next activation",
		Flags:   cmd.EngineFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("scheduler")

			engine, err := cmd.NewEngine(ctx, logger, serviceName, cmd.EngineConfigFrom(command))
			if err != nil {
				return err
			}

			defer func() { _ = engine.Close(context.Background()) }()

			return listTriggers(ctx, command.Root().Writer, engine, time.Now())
		},
	}
}

func listTriggers(ctx context.Context, w io.Writer, engine *cmd.Engine, now time.Time) error {
	scheduled, err := engine.Workflows.ListByTrigger(ctx, models.TriggerTypeScheduled)
	if err != nil {
		return err
	}

	onEvent, err := engine.Workflows.ListByTrigger(ctx, models.TriggerTypeEvent)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Scheduled workflows:")

	for _, wf := range scheduled {
		next, err := wf.NextRunAt(now)
		if err != nil {
			fmt.Fprintf(w, "  %s (%s): invalid schedule: %v\n", wf.Name, wf.ID, err)

			continue
		}

		fmt.Fprintf(w, "  %s (%s): %s next at %s\n", wf.Name, wf.ID, wf.Trigger.Cron, next.Format(time.RFC3339))
	}

	fmt.Fprintln(w, "Event workflows:")

	for _, wf := range onEvent {
		fmt.Fprintf(w, "  %s (%s): on %s\n", wf.Name, wf.ID, wf.Trigger.Event)
	}

	fmt.Fprintf(w, "Total: %d\n", len(scheduled)+len(onEvent))

	return nil
}

func EmitCommand() *cli.Command {
	return &cli.Command{
		Name:      "emit",
		Usage:     "Publish a trigger event for event workflows",
		ArgsUsage: "<event-name>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "payload",
				Usage: "JSON object passed as the execution context",
				Value: "{}",
			},
		}, cmd.EngineFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			name := command.Args().First()
			if name == "" {
				return errors.New("event name is required")
			}

			var payload map[string]any
			if err := json.Unmarshal([]byte(command.String("payload")), &payload); err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}

			log.Setup(command.String("log-level"))
			logger := log.WithModule("scheduler")

			engine, err := cmd.NewEngine(ctx, logger, serviceName, cmd.EngineConfigFrom(command))
			if err != nil {
				return err
			}

			defer func() { _ = engine.Close(context.Background()) }()

			if err := engine.EventBus.Publish(ctx, name, events.NewTrigger(name, payload)); err != nil {
				return fmt.Errorf("failed to publish %s: %w", name, err)
			}

			logger.InfoContext(ctx, "Trigger event published", "event", name)

			return nil
		},
	}
}
