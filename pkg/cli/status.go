package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/cliconfig"
)

// StatusOutput is the JSON output format for status.
type StatusOutput struct {
	Running   bool   `json:"running"`
	URL       string `json:"url"`
	URLSource string `json:"urlSource"`
	// ConfigFile is the config file consulted during URL resolution,
	// present even when another source won.
	ConfigFile string `json:"configFile,omitempty"`
	Mocks      int    `json:"mocks,omitempty"`
	Uptime     string `json:"uptime,omitempty"`
	Error      string `json:"error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which server the CLI talks to and whether it is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, res := newClient()
		return runStatus(c, res)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(c *client.Client, res *cliconfig.Resolved) error {
	out := StatusOutput{
		URL:       res.URL,
		URLSource: res.Source,
	}
	if res.Source == cliconfig.SourceFile {
		out.ConfigFile = res.Path
	}

	ctx, cancel := commandContext()
	defer cancel()
	health, err := c.Health(ctx)
	if err != nil {
		out.Running = false
		out.Error = err.Error()
	} else {
		out.Running = true
		out.Mocks = health.Mocks
		out.Uptime = (time.Duration(health.UptimeSeconds) * time.Second).String()
	}

	printResult(out, func() {
		col := colors()
		fmt.Printf("Control URL: %s (from %s)\n", out.URL, out.URLSource)
		if out.ConfigFile != "" {
			fmt.Printf("Config file: %s\n", out.ConfigFile)
		}
		if !out.Running {
			fmt.Printf("Status:      %s\n", col.Fail("not reachable"))
			fmt.Printf("\nStart a server with: mockbird serve\n")
			return
		}
		fmt.Printf("Status:      %s\n", col.Pass("running"))
		fmt.Printf("Mocks:       %d\n", out.Mocks)
		fmt.Printf("Uptime:      %s\n", out.Uptime)
	})
	return nil
}
