package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/parley/cmd/parleyctl/cmdutil"
	"github.com/marmos91/parley/pkg/apiclient"
	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List channels",
	Long: `List all channels with their members in join order.

Examples:
  # List channels as table
  parleyctl channels

  # List as YAML
  parleyctl channels -o yaml`,
	RunE: runChannels,
}

// ChannelList is a list of channels for table rendering.
type ChannelList []apiclient.Channel

// Headers implements TableRenderer.
func (cl ChannelList) Headers() []string {
	return []string{"NAME", "MEMBERS"}
}

// Rows implements TableRenderer.
func (cl ChannelList) Rows() [][]string {
	rows := make([][]string, 0, len(cl))
	for _, ch := range cl {
		members := strings.Join(ch.Members, ", ")
		if members == "" {
			members = "-"
		}
		rows = append(rows, []string{ch.Name, members})
	}
	return rows
}

func runChannels(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	channels, err := client.ListChannels()
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, channels, len(channels) == 0, "No channels.", ChannelList(channels))
}
