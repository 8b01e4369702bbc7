package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/stub"
)

var (
	verifyExactly uint64
	verifyAtLeast uint64
	verifyAtMost  uint64
	verifyNever   bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <mock-id>",
	Short: "Assert that a mock was called the expected number of times",
	Long: `Assert a call count condition for a mock. Exits 0 when the condition
holds and 1 when it does not, so the command slots into CI scripts.

Without assertion flags the condition defaults to "called at least
once".`,
	Example: `  # Called exactly once
  mockbird verify 3 --exactly 1

  # Never called (exit 1 if it was)
  mockbird verify 3 --never

  # Called at least once
  mockbird verify 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMockID(args[0])
		if err != nil {
			return err
		}
		req := buildVerifyRequest(cmd)
		c, _ := newClient()
		return runVerify(c, id, req)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Uint64Var(&verifyExactly, "exactly", 0, "Assert exactly N calls")
	verifyCmd.Flags().Uint64Var(&verifyAtLeast, "at-least", 0, "Assert at least N calls")
	verifyCmd.Flags().Uint64Var(&verifyAtMost, "at-most", 0, "Assert at most N calls")
	verifyCmd.Flags().BoolVar(&verifyNever, "never", false, "Assert zero calls")
}

// buildVerifyRequest translates set flags into a verification request.
// Returns nil when no assertion flag was given: the server then applies
// its default condition, at least one call.
func buildVerifyRequest(cmd *cobra.Command) *stub.VerifyRequest {
	req := &stub.VerifyRequest{}
	set := false
	if cmd.Flags().Changed("exactly") {
		v := verifyExactly
		req.Exactly = &v
		set = true
	}
	if cmd.Flags().Changed("at-least") {
		v := verifyAtLeast
		req.AtLeast = &v
		set = true
	}
	if cmd.Flags().Changed("at-most") {
		v := verifyAtMost
		req.AtMost = &v
		set = true
	}
	if verifyNever {
		req.Never = true
		set = true
	}
	if !set {
		return nil
	}
	return req
}

func runVerify(c *client.Client, id int, req *stub.VerifyRequest) error {
	ctx, cancel := commandContext()
	defer cancel()
	result, err := c.Verify(ctx, id, req)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return notFoundError(id)
		}
		return clientError("verify mock", err)
	}

	printResult(result, func() {
		col := colors()
		if result.Passed {
			fmt.Printf("%s mock %d: %s (called %d times)\n", col.Pass("PASS"), id, result.Expected, result.Actual)
		} else {
			fmt.Printf("%s mock %d: %s\n", col.Fail("FAIL"), id, result.Message)
		}
	})

	// Non-zero exit on failure for CI usage.
	if !result.Passed {
		return fmt.Errorf("verification failed")
	}
	return nil
}
