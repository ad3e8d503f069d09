package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	appconfig "github.com/lewisedginton/webhook_relay/internal/config"
	"github.com/lewisedginton/webhook_relay/internal/server"
	pkgconfig "github.com/lewisedginton/webhook_relay/pkg/config"
	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

func main() {
	// Best effort: a missing .env just means the environment is already set.
	_ = godotenv.Load()

	cfg := &appconfig.AppConfig{}
	if err := pkgconfig.GetConfig(cfg, os.Getenv("CONFIG_FILE"), true); err != nil {
		// The structured logger isn't configured yet; a plain fatal
		// diagnostic before any listener binds is the whole point.
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger := logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})

	cfg.LogConfig(appLogger)

	srv, err := server.New(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize server", logger.ErrorField(err))
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		appLogger.Error("Server exited with error", logger.ErrorField(err))
		os.Exit(1)
	}
}
