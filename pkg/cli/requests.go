package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/cli/internal/output"
	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/journal"
)

// requestsFlagVals is the package-level instance bound to cobra flags.
var requestsFlagVals requestsFlags

type requestsFlags struct {
	method  string
	path    string
	outcome string
	mockID  int
	limit   int
	offset  int
	verbose bool
	clear   bool
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Show the request journal",
	Long: `List recorded requests, newest first. The journal keeps the most
recent requests (default 1000) including the ones no mock matched,
which makes it the first place to look when a call you expected to be
mocked came back 404.`,
	Example: `  # Last 20 requests
  mockbird requests

  # Only unmatched POSTs under /api
  mockbird requests --method POST --path /api --outcome no_match

  # Requests served by mock 3, with headers and body
  mockbird requests --mock 3 --verbose

  # Clear the journal
  mockbird requests --clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _ := newClient()
		if requestsFlagVals.clear {
			return runRequestsClear(c)
		}
		return runRequests(c, &requestsFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(requestsCmd)

	f := &requestsFlagVals
	requestsCmd.Flags().StringVarP(&f.method, "method", "m", "", "Filter by HTTP method")
	requestsCmd.Flags().StringVarP(&f.path, "path", "p", "", "Filter by path prefix")
	requestsCmd.Flags().StringVar(&f.outcome, "outcome", "", "Filter by outcome (matched, no_match)")
	requestsCmd.Flags().IntVar(&f.mockID, "mock", 0, "Filter by the mock id that served the request")
	requestsCmd.Flags().IntVarP(&f.limit, "limit", "n", 20, "Number of entries to show")
	requestsCmd.Flags().IntVar(&f.offset, "offset", 0, "Skip this many entries from the newest")
	requestsCmd.Flags().BoolVar(&f.verbose, "verbose", false, "Show headers and body")
	requestsCmd.Flags().BoolVar(&f.clear, "clear", false, "Clear the journal")
}

func runRequests(c *client.Client, f *requestsFlags) error {
	filter := &journal.Filter{
		Method:        f.method,
		Path:          f.path,
		Outcome:       f.outcome,
		MatchedMockID: f.mockID,
		Limit:         f.limit,
		Offset:        f.offset,
	}

	ctx, cancel := commandContext()
	defer cancel()
	result, err := c.Requests(ctx, filter)
	if err != nil {
		return clientError("list requests", err)
	}

	if jsonOutput {
		return output.JSON(result)
	}
	if f.verbose {
		return outputRequestsVerbose(result)
	}
	return outputRequestsTable(result)
}

func runRequestsClear(c *client.Client) error {
	ctx, cancel := commandContext()
	defer cancel()
	cleared, err := c.ClearRequests(ctx)
	if err != nil {
		return clientError("clear requests", err)
	}

	printResult(map[string]int{"cleared": cleared}, func() {
		fmt.Printf("Cleared %d journal entries\n", cleared)
	})
	return nil
}

func outputRequestsTable(result *journal.ListResult) error {
	if len(result.Requests) == 0 {
		fmt.Println("No requests recorded")
		return nil
	}

	w := output.Table()
	fmt.Fprintln(w, "TIME\tMETHOD\tPATH\tSTATUS\tOUTCOME\tMOCK\tDURATION")

	for _, e := range result.Requests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%.1fms\n",
			e.Timestamp.Format("15:04:05.000"),
			e.Method,
			truncate(requestPath(e), 40),
			e.ResponseStatus,
			e.Outcome,
			formatMockRef(e.MatchedMockID),
			e.DurationMs)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if result.Total > len(result.Requests) {
		fmt.Printf("\nShowing %d of %d recorded requests\n", len(result.Requests), result.Total)
	}
	return nil
}

func outputRequestsVerbose(result *journal.ListResult) error {
	if len(result.Requests) == 0 {
		fmt.Println("No requests recorded")
		return nil
	}

	col := colors()
	for i, e := range result.Requests {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s %s %s %s %s\n",
			col.Muted(e.Timestamp.Format("15:04:05.000")),
			e.Method,
			requestPath(e),
			col.Status(e.ResponseStatus),
			outcomeLabel(col, e))
		for _, key := range sortedHeaderKeys(e.Headers) {
			for _, v := range e.Headers[key] {
				fmt.Printf("  %s: %s\n", key, v)
			}
		}
		if e.Body != "" {
			body := e.Body
			if len(body) > 500 {
				body = body[:500] + "..."
			}
			fmt.Printf("  %s\n", strings.ReplaceAll(body, "\n", "\n  "))
		}
		for _, nm := range e.NearMisses {
			fmt.Printf("  near miss: mock %d (%s)\n", nm.MockID, nm.Reason)
		}
	}
	return nil
}

func outcomeLabel(col *output.Colors, e *journal.Entry) string {
	if e.Outcome == journal.OutcomeMatched {
		return col.Pass("matched mock %d", e.MatchedMockID)
	}
	return col.Fail("no match")
}

func requestPath(e *journal.Entry) string {
	if e.QueryString == "" {
		return e.Path
	}
	return e.Path + "?" + e.QueryString
}

func formatMockRef(id int) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}

func sortedHeaderKeys(headers map[string][]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
