package cli

import (
	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/globals"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soleklart",
	Short: "Air quality at your location",
	Long: `Soleklart reports air quality from the NILU monitoring network.

It finds the monitoring station closest to a location and shows its latest
reading in the terminal, over HTTP, on the D-Bus session bus, or on a
message broker. Readings can be recorded to a local database.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		globals.Initialize(verbose, configPath)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the settings file (default is settings.json in the config directory)")
}
