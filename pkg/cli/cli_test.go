package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/cliconfig"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/server"
	"github.com/mockbird/mockbird/pkg/stub"
)

// startTestServer boots a real server on a random port and returns a client
// pointed at it.
func startTestServer(t *testing.T) *client.Client {
	t.Helper()

	cfg := config.DefaultServerConfig()
	cfg.Port = 0
	srv := server.New(cfg)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			t.Errorf("stop server: %v", err)
		}
	})

	return client.New(srv.URL())
}

// captureStdout runs fn and returns everything it wrote to stdout.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = oldStdout

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data), fnErr
}

// setJSONOutput flips the --json flag for the duration of the test.
func setJSONOutput(t *testing.T, v bool) {
	t.Helper()
	old := jsonOutput
	jsonOutput = v
	t.Cleanup(func() { jsonOutput = old })
}

func mustCreate(t *testing.T, c *client.Client, st *stub.Stub) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := c.CreateMock(ctx, st)
	require.NoError(t, err)
	return id
}

func TestRunAddAndList(t *testing.T) {
	c := startTestServer(t)

	out, err := captureStdout(t, func() error {
		return runAdd(c, &addFlags{
			name: "users", method: "get", path: "/api/users",
			status: 200, body: "[]",
		})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Created mock 1")

	out, err = captureStdout(t, func() error { return runList(c) })
	require.NoError(t, err)
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "GET")
	assert.Contains(t, out, "/api/users")
	assert.Contains(t, out, "active")
}

func TestRunListEmpty(t *testing.T) {
	c := startTestServer(t)

	out, err := captureStdout(t, func() error { return runList(c) })
	require.NoError(t, err)
	assert.Contains(t, out, "No mocks registered")
}

func TestRunAddFile(t *testing.T) {
	c := startTestServer(t)

	collection := `version: "1"
name: checkout fixtures
stubs:
  - expectation:
      method: GET
      path: /a
    response:
      status: 200
  - expectation:
      path: /b
    response:
      status: 201
`
	path := filepath.Join(t.TempDir(), "stubs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(collection), 0o644))

	out, err := captureStdout(t, func() error { return runAddFile(c, path) })
	require.NoError(t, err)
	assert.Contains(t, out, "Created 2 mocks")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mocks, err := c.ListMocks(ctx)
	require.NoError(t, err)
	assert.Len(t, mocks, 2)
}

func TestRunGet(t *testing.T) {
	c := startTestServer(t)
	id := mustCreate(t, c, &stub.Stub{
		Name:        "orders",
		Expectation: stub.Expectation{Method: "POST", Path: "/orders"},
		Response:    stub.ResponseSpec{Status: 202, DelayMs: 100},
	})

	out, err := captureStdout(t, func() error { return runGet(c, id) })
	require.NoError(t, err)
	assert.Contains(t, out, "Mock 1: orders")
	assert.Contains(t, out, "State:    active")
	assert.Contains(t, out, "POST /orders")
	assert.Contains(t, out, "202 after 100ms")
}

func TestRunGetNotFound(t *testing.T) {
	c := startTestServer(t)

	err := runGet(c, 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock 42 not found")
	assert.Contains(t, err.Error(), "mockbird list")
}

func TestRunDelete(t *testing.T) {
	c := startTestServer(t)
	id := mustCreate(t, c, &stub.Stub{
		Expectation: stub.Expectation{Path: "/gone"},
		Response:    stub.ResponseSpec{Status: 200},
	})

	out, err := captureStdout(t, func() error { return runDelete(c, id) })
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted mock 1")

	err = runDelete(c, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunDeleteAll(t *testing.T) {
	c := startTestServer(t)
	mustCreate(t, c, &stub.Stub{
		Expectation: stub.Expectation{Path: "/one"},
		Response:    stub.ResponseSpec{Status: 200},
	})
	mustCreate(t, c, &stub.Stub{
		Expectation: stub.Expectation{Path: "/two"},
		Response:    stub.ResponseSpec{Status: 200},
	})

	out, err := captureStdout(t, func() error { return runDeleteAll(c) })
	require.NoError(t, err)
	assert.Contains(t, out, "All mocks deleted")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mocks, err := c.ListMocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, mocks)
}

func TestRunVerify(t *testing.T) {
	c := startTestServer(t)
	id := mustCreate(t, c, &stub.Stub{
		Expectation: stub.Expectation{Method: "GET", Path: "/ping"},
		Response:    stub.ResponseSpec{Status: 200},
	})

	resp, err := http.Get(c.BaseURL() + "/ping")
	require.NoError(t, err)
	resp.Body.Close()

	one := uint64(1)
	out, err := captureStdout(t, func() error {
		return runVerify(c, id, &stub.VerifyRequest{Exactly: &one})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "exactly 1 calls")

	out, err = captureStdout(t, func() error {
		return runVerify(c, id, &stub.VerifyRequest{Never: true})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed")
	assert.Contains(t, out, "FAIL")
}

func TestRunRequests(t *testing.T) {
	c := startTestServer(t)
	mustCreate(t, c, &stub.Stub{
		Expectation: stub.Expectation{Method: "GET", Path: "/hit"},
		Response:    stub.ResponseSpec{Status: 200},
	})

	for _, path := range []string{"/hit", "/miss"} {
		resp, err := http.Get(c.BaseURL() + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	out, err := captureStdout(t, func() error {
		return runRequests(c, &requestsFlags{limit: 20})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "/hit")
	assert.Contains(t, out, "/miss")
	assert.Contains(t, out, "matched")
	assert.Contains(t, out, "no_match")

	out, err = captureStdout(t, func() error {
		return runRequests(c, &requestsFlags{limit: 20, outcome: "no_match"})
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "/hit")
	assert.Contains(t, out, "/miss")

	out, err = captureStdout(t, func() error { return runRequestsClear(c) })
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 2 journal entries")
}

func TestRunRequestsVerbose(t *testing.T) {
	c := startTestServer(t)

	req, err := http.NewRequest(http.MethodPost, c.BaseURL()+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "r-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	out, err := captureStdout(t, func() error {
		return runRequests(c, &requestsFlags{limit: 20, verbose: true})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "POST /events")
	assert.Contains(t, out, "X-Request-Id: r-1")
}

func TestRunStatusRunning(t *testing.T) {
	c := startTestServer(t)
	mustCreate(t, c, &stub.Stub{
		Expectation: stub.Expectation{Path: "/x"},
		Response:    stub.ResponseSpec{Status: 200},
	})

	res := &cliconfig.Resolved{URL: c.BaseURL(), Source: cliconfig.SourceFlag}
	out, err := captureStdout(t, func() error { return runStatus(c, res) })
	require.NoError(t, err)
	assert.Contains(t, out, "Control URL: "+c.BaseURL())
	assert.Contains(t, out, "(from flag)")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "Mocks:       1")
}

func TestRunStatusUnreachable(t *testing.T) {
	c := client.New("http://192.0.2.1:4280", client.WithTimeout(100*time.Millisecond))
	res := &cliconfig.Resolved{URL: "http://192.0.2.1:4280", Source: cliconfig.SourceDefault}

	out, err := captureStdout(t, func() error { return runStatus(c, res) })
	require.NoError(t, err)
	assert.Contains(t, out, "not reachable")
	assert.Contains(t, out, "mockbird serve")
}

func TestJSONOutputContract(t *testing.T) {
	c := startTestServer(t)
	mustCreate(t, c, &stub.Stub{
		Name:        "contract",
		Expectation: stub.Expectation{Path: "/c"},
		Response:    stub.ResponseSpec{Status: 200},
	})
	setJSONOutput(t, true)

	out, err := captureStdout(t, func() error { return runList(c) })
	require.NoError(t, err)
	var mocks []*stub.Detail
	require.NoError(t, json.Unmarshal([]byte(out), &mocks), "stdout must be pure JSON: %s", out)
	require.Len(t, mocks, 1)
	assert.Equal(t, "contract", mocks[0].Name)

	res := &cliconfig.Resolved{URL: c.BaseURL(), Source: cliconfig.SourceFlag}
	out, err = captureStdout(t, func() error { return runStatus(c, res) })
	require.NoError(t, err)
	var status StatusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &status), "stdout must be pure JSON: %s", out)
	assert.True(t, status.Running)
	assert.Equal(t, 1, status.Mocks)
}

func TestClientErrorHint(t *testing.T) {
	c := client.New("http://192.0.2.1:4280", client.WithTimeout(100*time.Millisecond))

	err := runList(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reach control API")
	assert.Contains(t, err.Error(), "mockbird serve")
}
