package main

import (
	"os"

	"github.com/arunvm123/eventease/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	// Initialize configuration
	// Try to load from config.yaml first, fallback to environment variables
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		// If config file fails, try environment variables
		log.WithError(err).Warn("Config file not found or invalid, using environment variables")
		cfg, err = config.Initialise("", true)
		if err != nil {
			log.WithError(err).Fatal("Failed to load configuration")
		}
	}

	configureLogger(log, cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps, err := NewDependencies(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize dependencies")
	}
	defer deps.Close()

	// Setup router with all dependencies
	router, err := SetupRouter(cfg, log, deps)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up router")
	}

	// Start server
	log.WithField("port", cfg.Port).Info("Starting EventEase")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}
