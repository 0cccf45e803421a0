package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/config"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/database"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/routes"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.DBUrl == "" {
		log.Fatal().Msg("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.CloseDB()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	registry, err := routes.RegisterRoutes(app, cfg, database.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	runner := cron.New()
	if _, err := runner.AddFunc(cfg.SlotCleanupSchedule, func() {
		if _, err := registry.Availability.PurgeExpired(context.Background()); err != nil {
			log.Error().Err(err).Msg("unavailability cleanup failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("invalid slot cleanup schedule")
	}
	runner.Start()
	defer runner.Stop()

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
