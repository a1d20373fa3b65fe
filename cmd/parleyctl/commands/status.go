package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/marmos91/parley/cmd/parleyctl/cmdutil"
	"github.com/marmos91/parley/internal/cli/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display uptime and live counters of the connected Parley server.

Examples:
  # Check status of connected server
  parleyctl status

  # Output as JSON
  parleyctl status -o json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		uptime := (time.Duration(status.UptimeSeconds) * time.Second).String()

		data := output.NewTableData("FIELD", "VALUE")
		data.AddRow("Uptime", uptime)
		data.AddRow("Active connections", fmt.Sprintf("%d", status.ActiveConnections))
		data.AddRow("Registered users", fmt.Sprintf("%d", status.RegisteredUsers))
		data.AddRow("Channels", fmt.Sprintf("%d", status.Channels))
		return output.PrintTable(os.Stdout, data)
	}
}
