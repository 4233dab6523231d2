package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/globals"
)

// stationCmd represents the station command
var stationCmd = &cobra.Command{
	Use:     "station",
	Aliases: []string{"s", "stations"},
	Short:   "List monitoring stations",
	Long:    `Commands for listing recorded stations and looking up the NILU station register.`,
}

// stationListCmd represents the station list command
var stationListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded stations",
	Long:    `List the stations recorded in the local database with their ID, EOI code, name, area and last seen timestamp.`,
	Run:     runStationList,
}

var stationLookupArea string

// stationLookupCmd represents the station lookup command
var stationLookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "List stations known to NILU",
	Long: `List the NILU station register, optionally filtered by area or municipality.

Examples:
  soleklart station lookup
  soleklart station lookup --area bergen`,
	RunE: runStationLookup,
}

func runStationList(cmd *cobra.Command, args []string) {
	globals.Logger.Debug("Fetching stations from database")

	recorder := mustOpenHistory()

	stations, err := recorder.Stations(context.Background())
	if err != nil {
		fail("Failed to fetch stations", err)
	}

	if len(stations) == 0 {
		fmt.Println("No stations found.")
		return
	}

	// Create tabwriter for aligned output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tEOI\tNAME\tAREA\tLAST SEEN")
	fmt.Fprintln(w, "--\t---\t----\t----\t---------")

	for _, station := range stations {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			station.ID,
			station.EOI,
			station.Name,
			station.Area,
			station.LastSeen.Format("2006-01-02T15:04:05Z07:00"),
		)
	}

	globals.Logger.Debug("Station list completed", "count", len(stations))
}

func runStationLookup(cmd *cobra.Command, args []string) error {
	source, c := newSource()
	defer closeCache(c)

	stations := source.Stations(context.Background())
	if stations == nil {
		return errNoData
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "EOI\tSTATION\tAREA\tMUNICIPALITY\tCOMPONENTS")
	fmt.Fprintln(w, "---\t-------\t----\t------------\t----------")

	shown := 0
	for _, station := range stations {
		if stationLookupArea != "" &&
			!strings.EqualFold(station.Area, stationLookupArea) &&
			!strings.EqualFold(station.Municipality, stationLookupArea) {
			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			station.EOI,
			station.Station,
			station.Area,
			station.Municipality,
			station.Components,
		)
		shown++
	}

	globals.Logger.Debug("Station lookup completed", "count", shown)
	return nil
}

func init() {
	rootCmd.AddCommand(stationCmd)

	stationCmd.AddCommand(stationListCmd)
	stationCmd.AddCommand(stationLookupCmd)

	stationLookupCmd.Flags().StringVar(&stationLookupArea, "area", "", "Only show stations in this area or municipality")
}
