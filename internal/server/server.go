// Package server serves readings and recorded history over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/cache"
	"github.com/monorkin/soleklart/internal/metrics"
	"github.com/monorkin/soleklart/internal/models"
	"github.com/monorkin/soleklart/internal/version"
	"github.com/monorkin/soleklart/nilu/api"
)

const (
	REQUEST_TIMEOUT = 15 * time.Second
	READY_TIMEOUT   = 3 * time.Second
)

type Source interface {
	Latest(ctx context.Context, component string) []airquality.Reading
	Nearest(ctx context.Context, q airquality.NearestQuery) *airquality.Reading
	Stations(ctx context.Context) []api.Station
}

type History interface {
	Stations(ctx context.Context) ([]models.Station, error)
	FindStation(ctx context.Context, idOrEOI string) (*models.Station, error)
	LatestMeasurement(ctx context.Context, stationID uint) (*models.Measurement, error)
	Ping(ctx context.Context) error
}

// Dependencies holds everything the handlers need. History and Cache are
// optional.
type Dependencies struct {
	Source    Source
	History   History
	Cache     cache.Cache
	Component string
	Logger    *slog.Logger
	// Timeout bounds the upstream-backed routes. Zero means REQUEST_TIMEOUT.
	Timeout time.Duration
}

func New(deps *Dependencies) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Component == "" {
		deps.Component = airquality.DEFAULT_COMPONENT
	}
	if deps.Timeout <= 0 {
		deps.Timeout = REQUEST_TIMEOUT
	}

	app := fiber.New(fiber.Config{
		AppName:               "Soleklart",
		ServerHeader:          version.UserAgent(),
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          deps.Timeout + 5*time.Second,
		ErrorHandler:          ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.Middleware())
	app.Use(AccessLogMiddleware(deps.Logger))

	SetupRoutes(app, deps)

	return app
}

func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Get("/metrics", metrics.Handler())
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/readings/latest", timeout.NewWithContext(LatestReadingsHandler(deps), deps.Timeout))
	v1.Get("/readings/nearest", timeout.NewWithContext(NearestReadingHandler(deps), deps.Timeout))
	v1.Get("/stations", timeout.NewWithContext(StationsHandler(deps), deps.Timeout))
	v1.Get("/history/stations", HistoryStationsHandler(deps))
	v1.Get("/history/stations/:id/latest", HistoryLatestHandler(deps))
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": version.GetVersion(),
		})
	}
}

// ReadyHandler checks the cache and history database.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), READY_TIMEOUT)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		if deps.Cache != nil {
			_, err := deps.Cache.Get(ctx, "__health_check__")
			if err != nil && !errors.Is(err, cache.ErrMiss) {
				checks["cache"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["cache"] = "ok"
			}
		} else {
			checks["cache"] = "not configured"
		}

		if deps.History != nil {
			if err := deps.History.Ping(ctx); err != nil {
				checks["history"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["history"] = "ok"
			}
		} else {
			checks["history"] = "not configured"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
