package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/city-weather/internal/api/http"
	"github.com/i474232898/city-weather/internal/config"
	"github.com/i474232898/city-weather/internal/notify"
	"github.com/i474232898/city-weather/internal/observability"
	"github.com/i474232898/city-weather/internal/scheduler"
	"github.com/i474232898/city-weather/internal/store"
	"github.com/i474232898/city-weather/internal/weather"
	"github.com/i474232898/city-weather/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.Instrument(buildProvider(cfg, httpClient, logger), metrics)
	logger.Info("weather provider configured", "provider", provider.Name())

	center := notify.NewCenter(cfg.NotificationTTL, logger, clockwork.NewRealClock())

	// The composition root owns the one city store.
	cities := store.NewCityStore()
	service := weather.NewService(cities, provider,
		weather.WithNotifier(center),
		weather.WithMetrics(metrics),
		weather.WithLogger(logger),
	)

	sched := scheduler.New(service, cfg.RefreshInterval,
		scheduler.WithTimeout(cfg.RefreshTimeout),
		scheduler.WithConcurrency(cfg.RefreshConcurrency),
		scheduler.WithLogger(logger),
		scheduler.WithMetrics(metrics),
	)
	service.OnChange(func() {
		if err := sched.Reschedule(); err != nil {
			logger.Error("failed to reschedule auto-refresh", "error", err)
		}
	})
	defer sched.Stop()

	seedCities(service, cfg, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:               "city-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":         "ok",
			"service":        "city-weather",
			"trackedCities":  len(service.Cities()),
			"autoRefreshing": sched.Active(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, service, center)

	go func() {
		logger.Info("http server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}
