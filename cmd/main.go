package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/google/logger"
	"github.com/joho/godotenv"

	"giveaway/internal/config"
	"giveaway/internal/handlers"
	"giveaway/internal/notify"
	"giveaway/internal/services"
)

func main() {
	// Load .env if present (do not overwrite already-set environment variables).
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	defer logger.Init("giveaway", true, false, io.Discard).Close()

	// 1. Initialize the Giveaway Service with the default log sinks
	giveawayService := services.NewGiveawayService(notify.LogAnnouncer{}, notify.LogPanel{})

	// 2. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(giveawayService, cfg.Giveaway)

	// 3. Set up the Gin router
	r := gin.Default()
	httpHandler.RegisterRoutes(r)

	// 4. Background jobs: panel refresh and closed-giveaway sweep
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(uint64(cfg.Panel.RefreshInterval.Seconds())).Seconds().Do(giveawayService.PublishOpenPanels); err != nil {
		log.Fatalf("Failed to schedule panel refresh: %v", err)
	}
	if _, err := scheduler.Every(uint64(cfg.Registry.SweepInterval.Seconds())).Seconds().Do(func() {
		if removed := giveawayService.SweepClosed(cfg.Registry.Retention); removed > 0 {
			logger.Infof("swept %d closed giveaway(s)", removed)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule registry sweep: %v", err)
	}
	scheduler.StartAsync()

	// 5. Run the server
	logger.Infof("Server starting on http://localhost:%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
