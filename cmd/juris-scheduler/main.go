// Package main runs scheduled and event-triggered workflows.
package main

import (
	"context"
	"os"

	"github.com/dukex/juris/pkg/cmd"
	"github.com/dukex/juris/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "juris-scheduler",
		Usage:                 "Start scheduled and event-triggered workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunCommand(),
			ListCommand(),
			EmitCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("juris-scheduler stopped", "error", err)
		os.Exit(1)
	}
}
