// Command api serves run history, aggregate stats, and the skip list over
// HTTP.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mmm/mint-amazon-tagger/internal/api"
	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/config"
	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/logging"
	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
	)
	flag.Parse()

	var cfg *config.Config
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", *configFile, err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrEnv()
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	listenAddr := cfg.API.ListenAddr
	if *addr != "" {
		listenAddr = *addr
	}
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	server := api.NewServer(store, logger)
	if err := server.Run(listenAddr); err != nil {
		logger.Error("API server exited", "error", err)
		os.Exit(1)
	}
}
