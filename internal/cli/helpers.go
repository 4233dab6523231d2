package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/cache"
	"github.com/monorkin/soleklart/internal/database"
	"github.com/monorkin/soleklart/internal/globals"
	"github.com/monorkin/soleklart/internal/history"
	"github.com/monorkin/soleklart/internal/telemetry"
	"github.com/monorkin/soleklart/nilu/api"
)

// errNoData is returned when the upstream had nothing to report. Cobra
// prints it and main exits with status 1.
var errNoData = errors.New("no data available")

// fail reports err on stderr and exits with status 1
func fail(message string, err error) {
	if err != nil {
		globals.Logger.Error(message, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
	os.Exit(1)
}

func newClient() *api.Client {
	settings := globals.Settings
	return api.NewClientWithOptions(api.Options{
		BaseURL: settings.API.BaseURL,
		Timeout: settings.API.Timeout(),
		Logger:  globals.Logger,
	})
}

// newSource builds the data source with the configured cache. The returned
// cache may be nil and must be closed by the caller otherwise.
func newSource() (*airquality.Source, cache.Cache) {
	settings := globals.Settings

	c, err := cache.FromSettings(settings.Cache)
	if err != nil {
		globals.Logger.Warn("Cache unavailable, continuing without it", "backend", settings.Cache.Backend, "error", err)
		c = nil
	}

	source := airquality.NewSource(newClient(), airquality.SourceOptions{
		Cache:    c,
		CacheTTL: settings.Cache.TTL(),
		Logger:   globals.Logger,
	})

	return source, c
}

func closeCache(c cache.Cache) {
	if c != nil {
		c.Close()
	}
}

func openHistory() (*history.Recorder, error) {
	if err := database.Init(); err != nil {
		return nil, err
	}
	globals.Logger.Debug("Database initialized")
	return history.NewRecorder(database.DB), nil
}

func mustOpenHistory() *history.Recorder {
	recorder, err := openHistory()
	if err != nil {
		fail("Failed to open database", err)
	}
	return recorder
}

// startTelemetry enables tracing when configured and returns its shutdown
// func, which is never nil.
func startTelemetry(ctx context.Context, service string) func() {
	settings := globals.Settings.Telemetry
	if !settings.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.InitTracer(ctx, service, settings.Endpoint)
	if err != nil {
		globals.Logger.Warn("Telemetry init failed", "error", err)
		return func() {}
	}

	globals.Logger.Debug("Telemetry enabled", "endpoint", settings.Endpoint)
	return shutdown
}

func printJSON(value any) error {
	output, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
