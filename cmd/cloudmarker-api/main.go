package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	_ "github.com/jaibhageria/cloudmarker/docs"
	"github.com/jaibhageria/cloudmarker/internal/api"
	"github.com/jaibhageria/cloudmarker/internal/api/handler"
	"github.com/jaibhageria/cloudmarker/internal/config"
	"github.com/jaibhageria/cloudmarker/internal/logging"
	"github.com/jaibhageria/cloudmarker/internal/manager"
	"github.com/jaibhageria/cloudmarker/internal/store"
	"github.com/jaibhageria/cloudmarker/pkg/router"
)

// @title Cloudmarker API
// @version 1.0
// @description Trigger security posture audits and inspect their runs, events and errors.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	configPath := flag.String("config", "", "path to YAML configuration; defaults are used when empty")
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

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := store.InitDB(cfg.DB); err != nil {
		log.Fatal("opening tracking database", zap.Error(err))
	}

	handler.Setup(manager.New(cfg, log))

	r := router.New()
	api.RegisterRoutes(r)
	r.Start(cfg.APIAddr)
}
