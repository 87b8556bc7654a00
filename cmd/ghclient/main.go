// Package main is the entry point for the ghclient command line.
//
// Startup is short: set up logging, note a first run, then hand the
// arguments to the cobra command tree, which loads the configuration and
// wires the credential store, prompts and HTTP transport before any command
// runs. Interrupts cancel the context of the running command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ghclient/internal/cli"
	"ghclient/internal/config"
	"ghclient/internal/logging"
)

func main() {
	// setup logging
	appLogger := logging.NewAppLogger()

	if config.IsFirstRun() {
		appLogger.Debug("No configuration yet, using anonymous access to the default host")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewApp(appLogger), os.Args[1:])
	stop()

	os.Exit(code)
}
