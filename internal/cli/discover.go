package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/monorkin/soleklart/internal/discovery"
	"github.com/monorkin/soleklart/internal/globals"
)

var discoverTimeout = discovery.DISCOVERY_TIMEOUT

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find soleklart servers on the local network",
	Long: `Browse mDNS for servers started with "soleklart serve --advertise".

Examples:
  soleklart discover
  soleklart discover --timeout 10s`,
	Run: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) {
	globals.Logger.Debug("Browsing for servers", "service", discovery.SERVICE, "timeout", discoverTimeout)

	servers, err := discovery.Browse(context.Background(), discoverTimeout, globals.Logger)
	if err != nil {
		fail("Failed to browse for servers", err)
	}

	if len(servers) == 0 {
		fmt.Println("No servers found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "INSTANCE\tURL\tVERSION")
	fmt.Fprintln(w, "--------\t---\t-------")

	for _, server := range servers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", server.Instance, server.URL(), server.Version)
	}
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DISCOVERY_TIMEOUT, "How long to wait for answers")
}
