// Package commands implements the CLI commands for the parleyctl client.
package commands

import (
	"github.com/marmos91/parley/cmd/parleyctl/cmdutil"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "parleyctl",
	Short: "Parley Control - Remote administration client",
	Long: `parleyctl is the command-line client for inspecting Parley chat servers
through the admin REST API.

Use this tool to list registered users, channels and their members, and to
check server status.

Use "parleyctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Sync flags to cmdutil.Flags for subcommands
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().String("server", "", "Server URL (overrides stored credential)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides stored credential)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(statusCmd)
}
