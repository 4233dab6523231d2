package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/discovery"
	"github.com/monorkin/soleklart/internal/globals"
	"github.com/monorkin/soleklart/internal/server"
	"github.com/monorkin/soleklart/internal/version"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

var (
	servePort      int
	serveAdvertise bool
	serveInstance  string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve readings over HTTP",
	Long: `Start an HTTP API serving the latest and nearest readings, the NILU station
register and the recorded history. Prometheus metrics are exposed on /metrics.

Examples:
  soleklart serve
  soleklart serve --port 9090 --advertise`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	settings := globals.Settings

	port := settings.Server.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}
	advertise := settings.Server.Advertise
	if cmd.Flags().Changed("advertise") {
		advertise = serveAdvertise
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer startTelemetry(ctx, "soleklart-api")()

	source, c := newSource()
	defer closeCache(c)

	deps := &server.Dependencies{
		Source:    source,
		Cache:     c,
		Component: settings.API.Component,
		Logger:    globals.Logger,
	}

	if recorder, err := openHistory(); err != nil {
		globals.Logger.Warn("History unavailable", "error", err)
	} else {
		deps.History = recorder
	}

	app := server.New(deps)

	errs := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", port)
		globals.Logger.Info("API server starting", "addr", addr)
		errs <- app.Listen(addr)
	}()

	if advertise {
		instance := serveInstance
		if instance == "" {
			instance, _ = os.Hostname()
		}
		advertisement, err := discovery.Advertise(instance, port, version.GetVersion())
		if err != nil {
			globals.Logger.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer advertisement.Shutdown()
			globals.Logger.Info("Advertising on the local network", "instance", instance, "service", discovery.SERVICE)
		}
	}

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	globals.Logger.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		globals.Logger.Error("Forced shutdown", "error", err)
	}

	globals.Logger.Info("Server stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (default from settings)")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Advertise the server over mDNS (default from settings)")
	serveCmd.Flags().StringVar(&serveInstance, "instance", "", "mDNS instance name (default is the hostname)")
}
