package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/cli/internal/output"
	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/cliconfig"
)

// Build metadata. Overridden at release time via -ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Persistent flag values shared by all subcommands.
var (
	controlURL string
	jsonOutput bool
	colorFlag  string
)

// requestTimeout bounds every control API call made by a subcommand.
const requestTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:   "mockbird",
	Short: "HTTP mock server for integration testing",
	Long: `mockbird runs throwaway HTTP servers that answer requests with canned
responses. Register expectations over a JSON control API, point the code
under test at the server, then verify which expectations were hit.

Start a server with 'mockbird serve', then manage it from another shell:

  mockbird add --method GET --path /api/users --status 200 --body '[]'
  mockbird list
  mockbird verify 1 --exactly 1`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&controlURL, "control-url", "",
		"Control API base URL (default from "+cliconfig.EnvURL+" or the config file)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "Colorize output (auto, always, never)")
}

// newClient builds a control API client for the resolved server URL.
func newClient() (*client.Client, *cliconfig.Resolved) {
	res := cliconfig.Resolve(controlURL)
	var opts []client.Option
	if res.AdminPrefix != "" {
		opts = append(opts, client.WithAdminPrefix(res.AdminPrefix))
	}
	return client.New(res.URL, opts...), res
}

// commandContext returns the context for a single control API call.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func colors() *output.Colors {
	return output.NewColors(output.ParseColorMode(colorFlag))
}

// clientError rewraps a control API failure for display. Connection
// failures get a hint about starting a server; everything else keeps the
// action prefix so the user can tell which call failed.
func clientError(action string, err error) error {
	if client.IsConnectionError(err) {
		var apiErr *client.APIError
		errors.As(err, &apiErr)
		return fmt.Errorf(`%s

Suggestions:
  • Start a server: mockbird serve
  • Check which URL the CLI resolved: mockbird status`, apiErr.Message)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// notFoundError formats an unknown-mock-id failure with a lookup hint.
func notFoundError(id int) error {
	return fmt.Errorf("mock %d not found (list ids with: mockbird list)", id)
}
