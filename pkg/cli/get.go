package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/client"
)

var getCmd = &cobra.Command{
	Use:   "get <mock-id>",
	Short: "Show one mock's definition and hit count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMockID(args[0])
		if err != nil {
			return err
		}
		c, _ := newClient()
		return runGet(c, id)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(c *client.Client, id int) error {
	ctx, cancel := commandContext()
	defer cancel()
	detail, err := c.GetMock(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return notFoundError(id)
		}
		return clientError("get mock", err)
	}

	printResult(detail, func() {
		name := detail.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("Mock %d: %s\n", detail.ID, name)
		fmt.Printf("  State:    %s\n", detail.State)
		fmt.Printf("  Hits:     %d\n", detail.Hits)
		if detail.Remaining != nil {
			fmt.Printf("  Left:     %d\n", *detail.Remaining)
		}
		fmt.Printf("  Matches:  %s %s\n", summarizeMethod(&detail.Expectation), summarizePath(&detail.Expectation))
		fmt.Printf("  Responds: %d", detail.Response.StatusOrDefault())
		if detail.Response.DelayMs > 0 {
			fmt.Printf(" after %dms", detail.Response.DelayMs)
		}
		fmt.Println()
		if exp := describeExpectation(&detail.Expectation); exp != "" {
			fmt.Printf("  Expectation:\n%s", exp)
		}
	})
	return nil
}

// describeExpectation renders the full expectation as indented JSON so
// rarely-used clauses stay visible without a bespoke formatter each.
func describeExpectation(e any) string {
	data, err := json.MarshalIndent(e, "    ", "  ")
	if err != nil {
		return ""
	}
	return "    " + string(data) + "\n"
}

func parseMockID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid mock id %q: want a positive integer", arg)
	}
	return id, nil
}
