package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/airquality"
	"github.com/monorkin/soleklart/internal/globals"
)

var (
	latestComponent string
	latestSave      bool
	latestJSON      bool
)

// latestCmd represents the latest command
var latestCmd = &cobra.Command{
	Use:     "latest",
	Aliases: []string{"l"},
	Short:   "Show the latest reading of every station",
	Long: `Show the most recent hourly value of a component at every NILU station.

Examples:
  soleklart latest
  soleklart latest --component no2 --json
  soleklart latest --save`,
	RunE: runLatest,
}

func runLatest(cmd *cobra.Command, args []string) error {
	component := latestComponent
	if component == "" {
		component = globals.Settings.API.Component
	}

	globals.Logger.Debug("Fetching latest readings", "component", component)

	source, c := newSource()
	defer closeCache(c)

	ctx := context.Background()

	readings := source.Latest(ctx, component)
	if readings == nil {
		return errNoData
	}

	if latestSave {
		recorder, err := openHistory()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		inserted, err := recorder.Record(ctx, readings)
		if err != nil {
			return fmt.Errorf("failed to save readings: %w", err)
		}
		globals.Logger.Info("Readings saved", "inserted", inserted)
	}

	if latestJSON {
		return printJSON(readings)
	}

	printReadings(readings)

	globals.Logger.Debug("Latest completed", "count", len(readings))
	return nil
}

func printReadings(readings []airquality.Reading) {
	if len(readings) == 0 {
		fmt.Println("No readings found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "EOI\tSTATION\tAREA\tCOMPONENT\tVALUE\tUNIT\tMEASURED")
	fmt.Fprintln(w, "---\t-------\t----\t---------\t-----\t----\t--------")

	for _, reading := range readings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%s\t%s\n",
			reading.StationID,
			reading.Station,
			reading.Area,
			reading.Component,
			reading.Value,
			reading.Unit,
			reading.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		)
	}
}

func init() {
	rootCmd.AddCommand(latestCmd)

	latestCmd.Flags().StringVar(&latestComponent, "component", "", "Component to show (default from settings)")
	latestCmd.Flags().BoolVar(&latestSave, "save", false, "Record the readings in the local database")
	latestCmd.Flags().BoolVar(&latestJSON, "json", false, "Print readings as JSON")
}
