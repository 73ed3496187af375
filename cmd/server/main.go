package main

import (
	"net/http"

	"obra-control-backend/pkg/config"
	"obra-control-backend/pkg/database"
	"obra-control-backend/pkg/logger"
	"obra-control-backend/pkg/server"
)

func main() {
	cfg := config.GetCached()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	logLevel := cfg.LogLevel
	if cfg.Debug {
		logLevel = "debug"
	}
	logger.Init(logLevel)

	store, err := database.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database connection failed: %v", err)
	}
	defer store.Close()

	router := server.New(cfg, store)

	logger.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Environment).
		Msg("server listening")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
