package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"openmod/internal/platform/logger"
)

var logLevel = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs: debug, info, warn or error",
	Value:   "info",
	Validator: func(value string) error {
		_, err := logger.ParseLevel(value)
		return err
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}

var withTopics = &cli.BoolFlag{
	Name:    "kafka-topics",
	Usage:   "Also create the event topics on the configured brokers",
	Value:   false,
	Sources: cli.EnvVars("OPENMOD_INSTALL_TOPICS"),
}

// main wires the commands. Each command builds the dependency graph from
// the environment; business logic lives in internal packages.
func main() {
	cmd := &cli.Command{
		Name:  "openmod",
		Usage: "Publishes a community's moderation log and enforces content deletion",
		Flags: []cli.Flag{logLevel},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Consume events, run scheduled jobs and serve ops endpoints",
				Action: serveCmd,
			},
			{
				Name:   "install",
				Usage:  "Reset scheduled jobs to a single recurring sweep",
				Flags:  []cli.Flag{withTopics},
				Action: installCmd,
			},
			{
				Name:   "sweep",
				Usage:  "Run one enforcement sweep now",
				Action: sweepCmd,
			},
			{
				Name:   "reconcile",
				Usage:  "Re-queue tracked users missing from the candidate set",
				Action: reconcileCmd,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
