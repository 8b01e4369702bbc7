package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/client"
)

var deleteAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete [mock-id]",
	Short: "Delete a mock, or all mocks with --all",
	Long: `Delete a mock by id. The mock stops matching immediately; its entry
stays listable with the hits it served until the server is reset.

With --all, every mock is removed and the server returns to its initial
state (id counter included).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _ := newClient()
		if deleteAll {
			if len(args) > 0 {
				return fmt.Errorf("--all does not take a mock id")
			}
			return runDeleteAll(c)
		}
		if len(args) == 0 {
			return fmt.Errorf("mock id required (or --all)")
		}
		id, err := parseMockID(args[0])
		if err != nil {
			return err
		}
		return runDelete(c, id)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete every mock and reset the server")
}

func runDelete(c *client.Client, id int) error {
	ctx, cancel := commandContext()
	defer cancel()
	if err := c.DeleteMock(ctx, id); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return notFoundError(id)
		}
		return clientError("delete mock", err)
	}

	printResult(map[string]any{"deleted": id}, func() {
		fmt.Printf("Deleted mock %d\n", id)
	})
	return nil
}

func runDeleteAll(c *client.Client) error {
	ctx, cancel := commandContext()
	defer cancel()
	if err := c.DeleteAllMocks(ctx); err != nil {
		return clientError("delete all mocks", err)
	}

	printResult(map[string]string{"message": "all mocks deleted"}, func() {
		fmt.Println("All mocks deleted")
	})
	return nil
}
