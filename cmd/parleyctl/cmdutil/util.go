// Package cmdutil provides shared utilities for parleyctl commands.
package cmdutil

import (
	"fmt"
	"io"

	"github.com/marmos91/parley/internal/cli/credentials"
	"github.com/marmos91/parley/internal/cli/output"
	"github.com/marmos91/parley/internal/cli/prompt"
	"github.com/marmos91/parley/pkg/apiclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	Token     string
	Output    string
}

// GetAuthenticatedClient returns an API client configured from stored
// credentials, or from the --server and --token flags when both are given.
func GetAuthenticatedClient() (*apiclient.Client, error) {
	if Flags.ServerURL != "" && Flags.Token != "" {
		return apiclient.New(Flags.ServerURL).WithToken(Flags.Token), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	creds, err := store.Load()
	if err != nil {
		return nil, err
	}

	url := creds.ServerURL
	if Flags.ServerURL != "" {
		url = Flags.ServerURL
	}
	if url == "" {
		return nil, fmt.Errorf("no server URL configured. Run 'parleyctl login --server <url>' first")
	}

	tok := creds.AccessToken
	if Flags.Token != "" {
		tok = Flags.Token
	}

	// There is no refresh token; an expired session means re-login.
	if Flags.Token == "" && creds.IsExpired() {
		return nil, fmt.Errorf("session expired. Run 'parleyctl login' to re-authenticate")
	}

	if tok == "" {
		return nil, fmt.Errorf("no access token. Run 'parleyctl login' first")
	}

	return apiclient.New(url).WithToken(tok), nil
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data in the specified format (JSON, YAML, or table).
// For table format, it displays emptyMsg if data is empty, otherwise uses
// the tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// BoolToYesNo converts a boolean to "yes" or "no" string.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// HandleAbort checks if error is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
