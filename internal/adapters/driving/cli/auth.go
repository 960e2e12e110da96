package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pagemirror/pagemirror/internal/adapters/driven/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the integration token",
	Long: `Store and verify the integration token used against the remote API.

The remote document database authenticates with a long-lived integration
token. The token is stored in the pagemirror config file; the ` + auth.EnvToken + `
environment variable overrides it.

Examples:
  # Store the token interactively (input is hidden)
  pagemirror auth set-token

  # Store the token non-interactively
  pagemirror auth set-token --token secret_xxx

  # Verify the stored token against the API
  pagemirror auth status`,
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store the integration token",
	RunE:  runAuthSetToken,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Verify the stored token against the remote API",
	RunE:  runAuthStatus,
}

// Flag for auth set-token.
var authToken string

func init() {
	authSetTokenCmd.Flags().StringVar(
		&authToken, "token", "", "Integration token (prompted when omitted)")

	authCmd.AddCommand(authSetTokenCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthSetToken(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	token := strings.TrimSpace(authToken)
	if token == "" {
		var err error
		token, err = promptToken(cmd)
		if err != nil {
			return err
		}
	}
	if token == "" {
		return errors.New("no token provided")
	}

	if err := configStore.Set(auth.ConfigKeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	cmd.Println("Integration token stored.")
	return nil
}

// promptToken reads the token without echo when connected to a terminal,
// falling back to a plain line read otherwise.
func promptToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		cmd.Print("Integration token: ")
		data, err := term.ReadPassword(fd)
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if validateCredentials == nil {
		return errors.New("auth service not configured")
	}

	if err := validateCredentials(context.Background()); err != nil {
		return fmt.Errorf("token check failed: %w", err)
	}

	cmd.Println("Integration token OK.")
	return nil
}
