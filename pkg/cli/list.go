package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/cli/internal/output"
	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/stub"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered mocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _ := newClient()
		return runList(c)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(c *client.Client) error {
	ctx, cancel := commandContext()
	defer cancel()
	mocks, err := c.ListMocks(ctx)
	if err != nil {
		return clientError("list mocks", err)
	}

	if jsonOutput {
		return output.JSON(mocks)
	}
	return outputMocksTable(mocks)
}

// outputMocksTable renders mocks as an aligned table.
func outputMocksTable(mocks []*stub.Detail) error {
	if len(mocks) == 0 {
		fmt.Println("No mocks registered")
		return nil
	}

	w := output.Table()
	fmt.Fprintln(w, "ID\tNAME\tMETHOD\tPATH\tSTATUS\tHITS\tLEFT\tSTATE")

	for _, m := range mocks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			m.ID,
			truncate(m.Name, 20),
			summarizeMethod(&m.Expectation),
			truncate(summarizePath(&m.Expectation), 30),
			m.Response.StatusOrDefault(),
			m.Hits,
			formatRemaining(m.Remaining),
			m.State)
	}

	return w.Flush()
}

// summarizeMethod describes the method constraint for one table cell.
func summarizeMethod(e *stub.Expectation) string {
	if e.Method == "" {
		return "*"
	}
	return e.Method
}

// summarizePath describes the path constraint for one table cell, whichever
// clause the expectation uses.
func summarizePath(e *stub.Expectation) string {
	switch {
	case e.Path != "":
		return e.Path
	case e.PathGlob != "":
		return e.PathGlob
	case e.PathRegex != "":
		return "~" + e.PathRegex
	case e.PathContains != "":
		return "*" + e.PathContains + "*"
	default:
		return "*"
	}
}

func formatRemaining(remaining *int) string {
	if remaining == nil {
		return "-"
	}
	return strconv.Itoa(*remaining)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
