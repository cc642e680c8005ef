package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jaibhageria/cloudmarker/internal/config"
	"github.com/jaibhageria/cloudmarker/internal/logging"
	"github.com/jaibhageria/cloudmarker/internal/manager"
	"github.com/jaibhageria/cloudmarker/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration; defaults are used when empty")
	once := flag.Bool("once", false, "run every configured audit once and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *once {
		cfg.Schedule.RunOnce = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := store.InitDB(cfg.DB); err != nil {
		log.Fatal("opening tracking database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := manager.New(cfg, log)
	if err := m.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("manager exited", zap.Error(err))
	}
}
