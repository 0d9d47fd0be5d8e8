package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reverse_dcf/pkg/api"
	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/ingest"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	configPath := os.Getenv("APP_CONFIG")
	if configPath == "" {
		configPath = "config/app.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	lookup := ingest.NewClient(cfg.Metrics, log)
	handler, err := api.NewRouter(cfg, lookup, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"metrics_url": cfg.Metrics.BaseURL,
		}).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
