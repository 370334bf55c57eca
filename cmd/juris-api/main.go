package main

import (
	"context"
	"os"

	"github.com/dukex/juris/pkg/cmd"
	"github.com/dukex/juris/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "juris-api",
		Usage:                 "Manage and run legal workflows over HTTP",
		EnableShellCompletion: true,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
		}, cmd.EngineFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger = log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Juris API")

			engine, err := cmd.NewEngine(ctx, logger, "juris-api", cmd.EngineConfigFrom(command))
			if err != nil {
				return err
			}

			defer func() {
				if err := engine.Close(context.Background()); err != nil {
					logger.ErrorContext(ctx, "Failed to close engine", "error", err)
				}
			}()

			return NewAPI(logger, engine).Start(int(command.Int("port")))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("juris-api stopped", "error", err)
		os.Exit(1)
	}
}
