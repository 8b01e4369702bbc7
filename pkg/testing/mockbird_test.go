package testing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	stdtesting "testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/server"
	"github.com/mockbird/mockbird/pkg/stub"
)

// recordingT captures assertion failures instead of failing the real test.
// Everything not overridden falls through to the embedded TB.
type recordingT struct {
	stdtesting.TB
	failed   bool
	messages []string
}

func (r *recordingT) Helper() {}

func (r *recordingT) Error(args ...any) {
	r.failed = true
	r.messages = append(r.messages, fmt.Sprint(args...))
}

func (r *recordingT) Errorf(format string, args ...any) {
	r.failed = true
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

func TestNewServesRegisteredMock(t *stdtesting.T) {
	srv := New(t)

	m := srv.Mock().
		Method("GET").
		Path("/users/42").
		ReplyJSON(200, map[string]any{"id": 42, "name": "ada"}).
		Register()

	resp, err := http.Get(srv.Endpoint("/users/42"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.EqualValues(t, 1, m.Hits())
	m.Assert(t)
	m.AssertHits(t, 1)
}

func TestGetLeaseStartsClean(t *stdtesting.T) {
	t.Run("first lease registers a mock", func(t *stdtesting.T) {
		srv := Get(t)
		srv.Mock().Path("/leftover").ReplyStatus(204).Register()
	})

	t.Run("next lease sees none of it", func(t *stdtesting.T) {
		srv := Get(t)

		mocks, err := srv.Client().ListMocks(context.Background())
		require.NoError(t, err)
		assert.Empty(t, mocks)
		assert.Empty(t, srv.Requests())
	})
}

func TestGetHonorsRemoteEnv(t *stdtesting.T) {
	cfg := config.DefaultServerConfig()
	cfg.Port = 0
	standalone := server.New(cfg)
	require.NoError(t, standalone.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, standalone.Stop(ctx))
	})

	// Stale state the helper must clear on attach.
	seed := client.New(standalone.URL())
	_, err := seed.CreateMock(context.Background(), &stub.Stub{
		Expectation: stub.Expectation{Path: "/stale"},
		Response:    stub.ResponseSpec{Status: 200},
	})
	require.NoError(t, err)

	t.Setenv(EnvHost, "127.0.0.1")
	t.Setenv(EnvPort, strconv.Itoa(standalone.Port()))

	srv := Get(t)
	assert.Equal(t, standalone.URL(), srv.URL())

	mocks, err := srv.Client().ListMocks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mocks)

	m := srv.Mock().Path("/remote").Reply(200, "remote ok").Register()
	resp, err := http.Get(srv.Endpoint("/remote"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	m.AssertHits(t, 1)
}

func TestBuilderDefersDefinitionErrors(t *stdtesting.T) {
	srv := Get(t)

	b := srv.Mock().JSON("{not json").Path("/x")
	require.Error(t, b.Err())
	assert.Contains(t, b.Err().Error(), "JSON: invalid JSON document")

	// First error wins over later ones.
	b = b.JSONPartial("{also bad")
	assert.Contains(t, b.Err().Error(), "JSON: invalid JSON document")
}

func TestBuilderRichMatching(t *stdtesting.T) {
	srv := Get(t)

	srv.Mock().
		Method("POST").
		Path("/orders").
		Header("X-Tenant", "acme").
		Query("dry_run", "false").
		JSONPartial(map[string]any{"sku": "A-1"}).
		ReplyJSON(201, map[string]any{"id": 7}).
		Register()

	send := func(tenant string) int {
		req, err := http.NewRequest(http.MethodPost, srv.Endpoint("/orders?dry_run=false"),
			strings.NewReader(`{"sku": "A-1", "qty": 2}`))
		require.NoError(t, err)
		req.Header.Set("X-Tenant", tenant)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusCreated, send("acme"))
	assert.Equal(t, http.StatusNotFound, send("other"))
}

func TestBuilderLimitExhausts(t *stdtesting.T) {
	srv := Get(t)

	m := srv.Mock().Method("GET").Path("/limited").Once().Reply(200, "only once").Register()

	resp, err := http.Get(srv.Endpoint("/limited"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.Endpoint("/limited"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	m.AssertHits(t, 1)
}

func TestBuilderReplyDelay(t *stdtesting.T) {
	srv := Get(t)

	srv.Mock().Path("/slow").ReplyDelay(30 * time.Millisecond).Reply(200, "ok").Register()

	start := time.Now()
	resp, err := http.Get(srv.Endpoint("/slow"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestMockDelete(t *stdtesting.T) {
	srv := Get(t)

	m := srv.Mock().Path("/temp").ReplyStatus(204).Register()

	resp, err := http.Get(srv.Endpoint("/temp"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	m.Delete()

	resp, err = http.Get(srv.Endpoint("/temp"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Historical hits stay queryable after delete.
	assert.EqualValues(t, 1, m.Hits())
}

func TestAssertionFailuresAreReported(t *stdtesting.T) {
	srv := Get(t)

	m := srv.Mock().Path("/never").ReplyStatus(200).Register()
	resp, err := http.Get(srv.Endpoint("/never"))
	require.NoError(t, err)
	resp.Body.Close()

	rec := &recordingT{TB: t}
	m.AssertNotCalled(rec)
	require.True(t, rec.failed)
	require.NotEmpty(t, rec.messages)
	assert.Contains(t, rec.messages[0], "expected no calls")

	clean := &recordingT{TB: t}
	m.Assert(clean)
	m.AssertHits(clean, 1)
	assert.False(t, clean.failed)
}

func TestRequestsAndEntryAssertions(t *stdtesting.T) {
	srv := Get(t)

	srv.Mock().Method("POST").Path("/events").ReplyStatus(202).Register()

	req, err := http.NewRequest(http.MethodPost, srv.Endpoint("/events?source=billing"),
		strings.NewReader(`{"user": {"id": "u-1"}, "kind": "signup"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "r-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.Endpoint("/other"))
	require.NoError(t, err)
	resp.Body.Close()

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/other", reqs[0].Path)

	entry := reqs[1]
	AssertJSONBody(t, entry, `{"kind": "signup", "user": {"id": "u-1"}}`)
	AssertJSONField(t, entry, "user.id", "u-1")
	AssertBody(t, entry, `{"user": {"id": "u-1"}, "kind": "signup"}`)
	AssertBodyContains(t, entry, "signup")
	AssertHeader(t, entry, "x-request-id", "r-42")
	AssertHeaderExists(t, entry, "Content-Type")
	AssertQueryParam(t, entry, "source", "billing")
	AssertQueryParamExists(t, entry, "source")
}

func TestEntryAssertionFailures(t *stdtesting.T) {
	srv := Get(t)

	srv.Mock().Method("POST").Path("/events").ReplyStatus(202).Register()
	resp, err := http.Post(srv.Endpoint("/events"), "application/json", strings.NewReader(`{"kind": "signup"}`))
	require.NoError(t, err)
	resp.Body.Close()

	entry := srv.Requests()[0]

	rec := &recordingT{TB: t}
	AssertJSONBody(rec, entry, `{"kind": "login"}`)
	AssertHeader(rec, entry, "X-Missing", "v")
	AssertQueryParam(rec, entry, "absent", "v")
	AssertJSONField(rec, entry, "kind", "login")
	require.True(t, rec.failed)
	assert.Len(t, rec.messages, 4)
}

func TestReset(t *stdtesting.T) {
	srv := Get(t)

	srv.Mock().Path("/a").ReplyStatus(200).Register()
	resp, err := http.Get(srv.Endpoint("/a"))
	require.NoError(t, err)
	resp.Body.Close()

	srv.Reset()

	mocks, err := srv.Client().ListMocks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mocks)
	assert.Empty(t, srv.Requests())
}

func TestEndpoint(t *stdtesting.T) {
	srv := Get(t)

	assert.Equal(t, srv.URL()+"/x", srv.Endpoint("/x"))
	assert.Equal(t, srv.URL()+"/x", srv.Endpoint("x"))
}
