package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/globals"
	"github.com/monorkin/soleklart/internal/server"
	"github.com/monorkin/soleklart/internal/watch"
)

var (
	nearestLat       float64
	nearestLon       float64
	nearestRadius    int
	nearestAt        string
	nearestComponent string
	nearestJSON      bool
)

// nearestCmd represents the nearest command
var nearestCmd = &cobra.Command{
	Use:     "nearest",
	Aliases: []string{"n"},
	Short:   "Show the reading of the closest station",
	Long: `Find the monitoring station closest to a location and show its reading.

Without flags the location from the settings file is used. The reading is
taken from the window starting 24 hours before --at.

Examples:
  soleklart nearest
  soleklart nearest --lat 60.3913 --lon 5.3221 --radius 30
  soleklart nearest --at 08:00 --json`,
	RunE: runNearest,
}

func runNearest(cmd *cobra.Command, args []string) error {
	settings := globals.Settings

	query := airquality.NearestQuery{
		Origin:    settings.Location.Location(),
		RadiusKm:  settings.Location.RadiusKm,
		At:        time.Now(),
		Component: settings.API.Component,
	}

	if cmd.Flags().Changed("lat") {
		query.Origin.Latitude = nearestLat
	}
	if cmd.Flags().Changed("lon") {
		query.Origin.Longitude = nearestLon
	}
	if cmd.Flags().Changed("radius") {
		query.RadiusKm = nearestRadius
	}
	if nearestComponent != "" {
		query.Component = nearestComponent
	}
	if nearestAt != "" {
		at, err := server.ParseClock(nearestAt, query.At)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		query.At = at
	}

	if err := validateNearestQuery(query); err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}

	globals.Logger.Debug("Finding nearest station",
		"latitude", query.Origin.Latitude,
		"longitude", query.Origin.Longitude,
		"radius_km", query.RadiusKm,
	)

	source, c := newSource()
	defer closeCache(c)

	reading := source.Nearest(context.Background(), query)
	if reading == nil {
		return errNoData
	}

	if nearestJSON {
		return printJSON(reading)
	}

	printRows(watch.Rows(reading))
	return nil
}

func validateNearestQuery(query airquality.NearestQuery) error {
	if !query.Origin.Valid() {
		return fmt.Errorf("(%v, %v) is not a valid coordinate", query.Origin.Latitude, query.Origin.Longitude)
	}
	if query.RadiusKm < server.MIN_RADIUS_KM || query.RadiusKm > server.MAX_RADIUS_KM {
		return fmt.Errorf("radius must be between %d and %d km", server.MIN_RADIUS_KM, server.MAX_RADIUS_KM)
	}
	return nil
}

func printRows(rows []watch.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\n", row.Label, row.Value)
	}
}

func init() {
	rootCmd.AddCommand(nearestCmd)

	nearestCmd.Flags().Float64Var(&nearestLat, "lat", 0, "Latitude (default from settings)")
	nearestCmd.Flags().Float64Var(&nearestLon, "lon", 0, "Longitude (default from settings)")
	nearestCmd.Flags().IntVar(&nearestRadius, "radius", 0, "Search radius in km, 1-100 (default from settings)")
	nearestCmd.Flags().StringVar(&nearestAt, "at", "", "Clock time HH:MM the window ends at (default now)")
	nearestCmd.Flags().StringVar(&nearestComponent, "component", "", "Component to show (default from settings)")
	nearestCmd.Flags().BoolVar(&nearestJSON, "json", false, "Print the reading as JSON")
}
