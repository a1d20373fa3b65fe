package commands

import (
	"fmt"
	"net/url"

	"github.com/marmos91/parley/cmd/parleyctl/cmdutil"
	"github.com/marmos91/parley/internal/cli/credentials"
	"github.com/marmos91/parley/internal/cli/prompt"
	"github.com/marmos91/parley/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a Parley server",
	Long: `Authenticate with a Parley server's admin API and store the credentials.

On first login, you must specify the server URL. Subsequent logins will
use the stored server URL unless overridden.

Examples:
  # First login to a server
  parleyctl login --server http://localhost:8080 --username admin

  # Login with password on command line (less secure)
  parleyctl login --server http://localhost:8080 -u admin -p secret

  # Re-login to stored server
  parleyctl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Server URL (required on first login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	// Determine server URL
	serverURLStr := loginServer
	if serverURLStr == "" {
		creds, err := store.Load()
		if err != nil || creds.ServerURL == "" {
			return fmt.Errorf("no server URL specified and no saved login found\n\n" +
				"Specify server URL:\n" +
				"  parleyctl login --server http://localhost:8080")
		}
		serverURLStr = creds.ServerURL
	}

	// Validate server URL
	parsedURL, err := url.Parse(serverURLStr)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsedURL.Scheme == "" {
		parsedURL.Scheme = "http"
		serverURLStr = parsedURL.String()
	}

	// Get username (prompt if not provided)
	username := loginUsername
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	// Get password (prompt if not provided)
	password := loginPassword
	if password == "" {
		password, err = prompt.Password("Password")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	client := apiclient.New(serverURLStr)

	fmt.Printf("Logging in to %s as %s...\n", serverURLStr, username)
	token, err := client.Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	creds := &credentials.Credentials{
		ServerURL:   serverURLStr,
		Username:    username,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}

	if err := store.Save(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("Logged in successfully as %s\n", username)
	fmt.Printf("Credentials saved to: %s\n", store.Path())

	return nil
}
