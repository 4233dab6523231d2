package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
