package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/globals"
	"github.com/monorkin/soleklart/internal/history"
)

// measurementCmd represents the measurement command
var measurementCmd = &cobra.Command{
	Use:     "measurement",
	Aliases: []string{"m", "measurements"},
	Short:   "Get recorded measurement data",
	Long:    `Commands for retrieving measurements recorded in the local database.`,
}

// measurementGetCmd represents the measurement get command
var measurementGetCmd = &cobra.Command{
	Use:   "get <station_id_or_eoi>",
	Short: "Get the latest measurement for a station",
	Long: `Get the latest recorded measurement for a station specified by either station ID or EOI code.

Examples:
  soleklart measurement get 1
  soleklart measurement get NO0057A`,
	Args: cobra.ExactArgs(1),
	Run:  runMeasurementGet,
}

func runMeasurementGet(cmd *cobra.Command, args []string) {
	identifier := args[0]
	globals.Logger.Debug("Getting measurement for station", "identifier", identifier)

	recorder := mustOpenHistory()
	ctx := context.Background()

	station, err := recorder.FindStation(ctx, identifier)
	if errors.Is(err, history.ErrNotFound) {
		fail("Station not found: "+identifier, nil)
	}
	if err != nil {
		fail("Failed to find station", err)
	}

	globals.Logger.Debug("Found station", "id", station.ID, "eoi", station.EOI, "name", station.Name)

	measurement, err := recorder.LatestMeasurement(ctx, station.ID)
	if errors.Is(err, history.ErrNotFound) {
		fail("No measurements found for station "+identifier, nil)
	}
	if err != nil {
		fail("Failed to load measurement", err)
	}

	err = printJSON(struct {
		Station     history.StationInfo     `json:"station"`
		Measurement history.MeasurementInfo `json:"measurement"`
	}{
		Station:     history.NewStationInfo(*station),
		Measurement: history.NewMeasurementInfo(*measurement),
	})
	if err != nil {
		fail("Failed to print measurement", err)
	}

	globals.Logger.Debug("Measurement get completed", "station_id", station.ID)
}

func init() {
	rootCmd.AddCommand(measurementCmd)

	measurementCmd.AddCommand(measurementGetCmd)
}
