package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func init() {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func main() {
	runner := NewRunner(RunnerOpts{})
	app := rootCommand(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		runner.logger.Fatalf("application error: %v", err)
	}
}
