package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mgonzalezcanudas/print3dhood/internal/adapters/http"
	"github.com/mgonzalezcanudas/print3dhood/internal/adapters/nominatim"
	"github.com/mgonzalezcanudas/print3dhood/internal/adapters/overpass"
	"github.com/mgonzalezcanudas/print3dhood/internal/adapters/valkey"
	"github.com/mgonzalezcanudas/print3dhood/internal/core/usecases"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/logging"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("print3dhood-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("print3dhood-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Cache (geocoding lookups survive without it)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// Upstream adapters
	featureSource := overpass.New(cfg)
	geocoder := nominatim.New(cfg.Nominatim)

	// Use cases
	modelSvc := usecases.NewModelService(featureSource, cfg)

	var geocodeSvc *usecases.GeocodeService
	if cache != nil {
		geocodeSvc = usecases.NewGeocodeService(geocoder, cache, cfg.Valkey.GeocodeTTL)
	} else {
		geocodeSvc = usecases.NewGeocodeService(geocoder, nil, cfg.Valkey.GeocodeTTL)
	}

	deps := &http.Dependencies{
		Models:  modelSvc,
		Geocode: geocodeSvc,
		Cache:   cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "print3dhood API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight builds up to 30s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
