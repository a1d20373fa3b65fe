package commands

import (
	"fmt"
	"os"

	"github.com/marmos91/parley/cmd/parleyctl/cmdutil"
	"github.com/marmos91/parley/pkg/apiclient"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	Long: `List all registered users and whether they are currently online.

Examples:
  # List users as table
  parleyctl users

  # List as JSON
  parleyctl users -o json`,
	RunE: runUsers,
}

// UserList is a list of users for table rendering.
type UserList []apiclient.User

// Headers implements TableRenderer.
func (ul UserList) Headers() []string {
	return []string{"NAME", "ONLINE"}
}

// Rows implements TableRenderer.
func (ul UserList) Rows() [][]string {
	rows := make([][]string, 0, len(ul))
	for _, u := range ul {
		rows = append(rows, []string{u.Name, cmdutil.BoolToYesNo(u.Online)})
	}
	return rows
}

func runUsers(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	users, err := client.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, users, len(users) == 0, "No users registered.", UserList(users))
}
