package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/reservation-service/internal/app"
	"github.com/example/reservation-service/internal/cli"
	"github.com/example/reservation-service/internal/config"
	"github.com/example/reservation-service/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	open := func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		// логи в stderr, чтобы не портить вывод --format json
		logger := logging.NewWithOutput(cfg.LogLevel, os.Stderr)
		return app.New(ctx, cfg, logger)
	}

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
