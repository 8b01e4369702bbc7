package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/stub"
)

// addFlagVals is the package-level instance bound to cobra flags.
var addFlagVals addFlags

type addFlags struct {
	file         string
	name         string
	method       string
	path         string
	pathGlob     string
	pathRegex    string
	status       int
	body         string
	bodyFile     string
	headers      []string
	matchHeaders []string
	matchQueries []string
	limit        int
	delayMs      int
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a mock on a running server",
	Long: `Register a mock from command line flags, or load a stub collection
file with --file. Flags cover the common exact-match cases; richer
expectations (JSON bodies, regexes on headers, expressions) are easier
to write in a collection file.`,
	Example: `  # Match GET /api/users, answer 200 with a JSON array
  mockbird add --method GET --path /api/users --status 200 \
      --body '[]' --header 'Content-Type:application/json'

  # One-shot mock that matches any /orders/<id>
  mockbird add --path-glob '/orders/*' --status 202 --limit 1

  # Register every stub in a collection file
  mockbird add --file fixtures/payment-api.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _ := newClient()
		if addFlagVals.file != "" {
			return runAddFile(c, addFlagVals.file)
		}
		return runAdd(c, &addFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	f := &addFlagVals
	addCmd.Flags().StringVarP(&f.file, "file", "f", "", "Stub collection file to register (YAML or JSON)")
	addCmd.Flags().StringVarP(&f.name, "name", "n", "", "Mock display name")
	addCmd.Flags().StringVarP(&f.method, "method", "m", "GET", "HTTP method to match")
	addCmd.Flags().StringVar(&f.path, "path", "", "Exact URL path to match")
	addCmd.Flags().StringVar(&f.pathGlob, "path-glob", "", "Glob pattern the path must match")
	addCmd.Flags().StringVar(&f.pathRegex, "path-regex", "", "Regular expression the path must match")
	addCmd.Flags().IntVarP(&f.status, "status", "s", 200, "Response status code")
	addCmd.Flags().StringVarP(&f.body, "body", "b", "", "Response body")
	addCmd.Flags().StringVar(&f.bodyFile, "body-file", "", "Read response body from file")
	addCmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Response header (key:value), repeatable")
	addCmd.Flags().StringArrayVar(&f.matchHeaders, "match-header", nil, "Required request header (key:value), repeatable")
	addCmd.Flags().StringArrayVar(&f.matchQueries, "match-query", nil, "Required query param (key:value), repeatable")
	addCmd.Flags().IntVar(&f.limit, "limit", 0, "Match budget; the mock stops matching after this many hits (0 = unlimited)")
	addCmd.Flags().IntVar(&f.delayMs, "delay", 0, "Response delay in milliseconds")
}

func runAdd(c *client.Client, f *addFlags) error {
	st, err := buildStubFromFlags(f)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()
	id, err := c.CreateMock(ctx, st)
	if err != nil {
		return clientError("create mock", err)
	}

	printResult(stub.CreateResult{ID: id}, func() {
		fmt.Printf("Created mock %d\n", id)
	})
	return nil
}

func runAddFile(c *client.Client, path string) error {
	stubs, err := config.LoadStubsFromFile(path)
	if err != nil {
		return err
	}
	if len(stubs) == 0 {
		return fmt.Errorf("%s: collection contains no stubs", path)
	}

	ctx, cancel := commandContext()
	defer cancel()

	ids := make([]int, 0, len(stubs))
	for i, st := range stubs {
		id, err := c.CreateMock(ctx, st)
		if err != nil {
			return clientError(fmt.Sprintf("create stub %d from %s", i, path), err)
		}
		ids = append(ids, id)
	}

	printResult(map[string]any{"ids": ids}, func() {
		fmt.Printf("Created %d mocks from %s\n", len(ids), path)
	})
	return nil
}

// buildStubFromFlags assembles a stub definition from the inline flags.
func buildStubFromFlags(f *addFlags) (*stub.Stub, error) {
	pathMatchers := 0
	for _, p := range []string{f.path, f.pathGlob, f.pathRegex} {
		if p != "" {
			pathMatchers++
		}
	}
	if pathMatchers == 0 {
		return nil, fmt.Errorf("one of --path, --path-glob or --path-regex is required (or use --file)")
	}
	if pathMatchers > 1 {
		return nil, fmt.Errorf("--path, --path-glob and --path-regex are mutually exclusive")
	}

	body := f.body
	if f.bodyFile != "" {
		if body != "" {
			return nil, fmt.Errorf("--body and --body-file are mutually exclusive")
		}
		data, err := os.ReadFile(f.bodyFile)
		if err != nil {
			return nil, fmt.Errorf("reading body file: %w", err)
		}
		body = string(data)
	}

	matchHeaders, err := parsePairs(f.matchHeaders, "--match-header")
	if err != nil {
		return nil, err
	}
	matchQueries, err := parsePairs(f.matchQueries, "--match-query")
	if err != nil {
		return nil, err
	}
	respHeaders, err := parsePairs(f.headers, "--header")
	if err != nil {
		return nil, err
	}

	st := &stub.Stub{
		Name: f.name,
		Expectation: stub.Expectation{
			Method:    strings.ToUpper(f.method),
			Path:      f.path,
			PathGlob:  f.pathGlob,
			PathRegex: f.pathRegex,
			Headers:   matchHeaders,
			Query:     matchQueries,
			Limit:     f.limit,
		},
		Response: stub.ResponseSpec{
			Status:  f.status,
			Headers: respHeaders,
			Body:    body,
			DelayMs: f.delayMs,
		},
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// parsePairs parses repeated "key:value" flag values into a map.
func parsePairs(pairs []string, flagName string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%s %q: want key:value", flagName, pair)
		}
		m[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return m, nil
}
