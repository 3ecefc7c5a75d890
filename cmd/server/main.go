package main

import (
	"context"

	_ "todo/docs"
	"todo/internal/config"
	"todo/internal/server"

	log "github.com/sirupsen/logrus"
)

// @title           Todo API
// @version         1.0
// @description     REST API for a single shared todo list.

// @host      localhost:3000
// @BasePath  /

// @schemes http
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	s, err := server.Init(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Server initialization failed")
	}

	s.Run()
}
