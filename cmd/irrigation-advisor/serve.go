package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/irrigation-advisor/internal/api/http"
	"github.com/i474232898/irrigation-advisor/internal/config"
	"github.com/i474232898/irrigation-advisor/internal/farm"
	"github.com/i474232898/irrigation-advisor/internal/irrigation"
	"github.com/i474232898/irrigation-advisor/internal/refdata"
	"github.com/i474232898/irrigation-advisor/internal/scheduler"
	"github.com/i474232898/irrigation-advisor/internal/store"
	"github.com/i474232898/irrigation-advisor/internal/weather"
	"github.com/i474232898/irrigation-advisor/internal/weather/providers"
)

type ServeCmd struct {
	Port string `help:"Listen port; overrides PORT."`
}

func (c *ServeCmd) Run(catalog *refdata.Catalog) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.Port != "" {
		cfg.Port = c.Port
	}
	// .env is only loaded by config.Load, after flags were parsed.
	if cfg.RefdataPath != "" {
		if catalog, err = refdata.Load(cfg.RefdataPath); err != nil {
			return fmt.Errorf("failed to load reference data: %w", err)
		}
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory weather history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Providers with resilience (rate limit, backoff, circuit breaker).
	provs := providers.Build(providers.Options{
		HTTP:              providers.DefaultHTTPConfig(httpClient, cfg.ProviderRateLimit),
		OpenWeatherAPIKey: cfg.OpenWeatherAPIKey,
		WeatherAPIKey:     cfg.WeatherAPIKey,
		GeocoderAPIKey:    cfg.GeocoderAPIKey,
	})

	service := weather.NewService(memStore, provs, weather.ServiceConfig{
		CacheTTL: cfg.WeatherCacheTTL,
		TimeZone: cfg.TimeZone,
	})

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	farmStore := store.NewFarmStore(db)
	if err := farmStore.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	farms := farm.NewService(farmStore)
	if cfg.SeedSamples {
		if err := farms.SeedSamples(context.Background()); err != nil {
			log.Printf("WARN: seeding sample farms: %v", err)
		}
	}

	// Keep weather for the configured locations warm.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "irrigation-advisor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:        service,
		Engine:         irrigation.NewEngine(catalog),
		Catalog:        catalog,
		Farms:          farms,
		DefaultCountry: cfg.DefaultCountry,
	})

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return listenAndServe(ctx, app, ":"+cfg.Port)
}

// listenAndServe runs app until ctx is done, then shuts it down. A listener
// failure is returned immediately.
func listenAndServe(ctx context.Context, app *fiber.App, addr string) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Printf("INFO: irrigation API listening on %s", addr)
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}
