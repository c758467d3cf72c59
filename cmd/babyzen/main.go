// Command babyzen serves the parenting assistant API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Desarso/babyzen"
	"github.com/Desarso/babyzen/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (default ./config.yaml if present)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := babyzen.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := babyzen.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close failed", zap.Error(err))
		}
	}()

	return app.Run(ctx)
}
