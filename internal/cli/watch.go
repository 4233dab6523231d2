package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/dbusservice"
	"github.com/monorkin/soleklart/internal/globals"
	"github.com/monorkin/soleklart/internal/publish"
	"github.com/monorkin/soleklart/internal/watch"
)

const BROKER_CONNECT_TIMEOUT = 10 * time.Second

var (
	watchInterval time.Duration
	watchDBus     bool
	watchOnce     bool
	watchRecord   bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Keep the nearest reading up to date",
	Long: `Refresh the reading of the closest station, or of the pinned station, on an
interval. Each reading is printed, recorded in the local database, published
to the configured NATS and MQTT brokers and announced on the D-Bus session bus.

Examples:
  soleklart watch
  soleklart watch --interval 5m --dbus=false
  soleklart watch --once`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	settings := globals.Settings

	interval := settings.Watch.Interval()
	if cmd.Flags().Changed("interval") {
		interval = watchInterval
	}
	enableDBus := settings.Watch.DBus
	if cmd.Flags().Changed("dbus") {
		enableDBus = watchDBus
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer startTelemetry(ctx, "soleklart-watch")()

	source, c := newSource()
	defer closeCache(c)

	var sinks []watch.Sink

	if watchRecord {
		recorder, err := openHistory()
		if err != nil {
			globals.Logger.Warn("History disabled", "error", err)
		} else {
			sinks = append(sinks, recorder)
		}
	}

	if settings.Publish.NATSURL != "" {
		nats, err := publish.NewNATS(settings.Publish.NATSURL, globals.Logger)
		if err != nil {
			globals.Logger.Warn("NATS unavailable", "error", err)
		} else {
			defer nats.Close()
			sinks = append(sinks, nats)
		}
	}

	if settings.Publish.MQTTBroker != "" {
		mqtt := publish.NewMQTT(settings.Publish.MQTTBroker, settings.Publish.MQTTTopicPrefix, globals.Logger)
		connectCtx, cancel := context.WithTimeout(ctx, BROKER_CONNECT_TIMEOUT)
		err := mqtt.Connect(connectCtx)
		cancel()
		if err != nil {
			globals.Logger.Warn("MQTT unavailable", "error", err)
		}
		// The client keeps retrying in the background.
		defer mqtt.Disconnect()
		sinks = append(sinks, mqtt)
	}

	watcher := watch.New(source, watch.Options{
		Query: airquality.NearestQuery{
			Origin:    settings.Location.Location(),
			RadiusKm:  settings.Location.RadiusKm,
			Component: settings.API.Component,
		},
		PinnedStation: settings.Watch.PinnedStation,
		Interval:      interval,
		Sinks:         sinks,
		Logger:        globals.Logger,
	})

	if watchOnce {
		reading := watcher.Refresh(ctx)
		if reading == nil {
			return errNoData
		}
		printRows(watch.Rows(reading))
		return nil
	}

	if enableDBus {
		service, err := dbusservice.NewService(ctx, watcher, globals.Logger)
		if err != nil {
			globals.Logger.Warn("D-Bus service unavailable", "error", err)
		} else {
			defer service.Close()
			go service.Forward(ctx)
		}
	}

	snapshots, cancel := watcher.Subscribe()
	defer cancel()
	go printSnapshots(snapshots)

	globals.Logger.Info("Watching", "interval", interval, "sinks", len(sinks))

	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	globals.Logger.Info("Watch stopped")
	return nil
}

func printSnapshots(snapshots <-chan watch.Snapshot) {
	for snapshot := range snapshots {
		if snapshot.State != watch.StateFinished {
			continue
		}

		fmt.Printf("-- %s --\n", snapshot.UpdatedAt.Format("2006-01-02 15:04"))
		if !snapshot.HasData() {
			fmt.Println("No data available")
			continue
		}
		printRows(snapshot.Rows)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", watch.DEFAULT_INTERVAL, "Refresh interval (default from settings)")
	watchCmd.Flags().BoolVar(&watchDBus, "dbus", true, "Expose the reading on the D-Bus session bus (default from settings)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Refresh once, print the reading and exit")
	watchCmd.Flags().BoolVar(&watchRecord, "record", true, "Record readings in the local database")
}
