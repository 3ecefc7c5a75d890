package main

import (
	"context"

	"todo/internal/client"
	"todo/internal/config"
	"todo/internal/server"
	"todo/internal/web"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	app := client.NewApp(client.NewAPIClient(cfg.APIBaseURL), client.NewNotifier(client.NotificationTTL), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Every page view and every reminder check reloads the list, so the
	// host recovers once the API comes up.
	go app.RunReminders(ctx, client.ReminderInterval)

	r, err := web.NewRouter(app, cfg.Development(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse page templates")
	}

	server.Serve(":"+cfg.WebPort, r, logger)
}
