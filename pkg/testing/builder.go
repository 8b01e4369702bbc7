package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/stub"
)

// Builder assembles a mock definition with a fluent API. Definition errors
// are deferred: the first one wins and Register reports it, so chains never
// need intermediate error checks.
type Builder struct {
	t   testing.TB
	srv *MockServer
	st  stub.Stub
	err error
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first definition error collected so far, nil when the
// chain is clean.
func (b *Builder) Err() error {
	return b.err
}

// Name labels the mock for diagnostics and listings.
func (b *Builder) Name(name string) *Builder {
	b.st.Name = name
	return b
}

// Method matches the HTTP method, case-insensitively.
func (b *Builder) Method(method string) *Builder {
	b.st.Expectation.Method = method
	return b
}

// Path matches the URL path exactly.
func (b *Builder) Path(path string) *Builder {
	b.st.Expectation.Path = path
	return b
}

// PathContains matches paths containing the substring.
func (b *Builder) PathContains(substr string) *Builder {
	b.st.Expectation.PathContains = substr
	return b
}

// PathGlob matches the path against a glob pattern, e.g. "/users/*/orders/**".
func (b *Builder) PathGlob(pattern string) *Builder {
	b.st.Expectation.PathGlob = pattern
	return b
}

// PathRegex matches the path against a regular expression.
func (b *Builder) PathRegex(pattern string) *Builder {
	b.st.Expectation.PathRegex = pattern
	return b
}

// Header matches a request header value exactly.
func (b *Builder) Header(name, value string) *Builder {
	if b.st.Expectation.Headers == nil {
		b.st.Expectation.Headers = make(map[string]string)
	}
	b.st.Expectation.Headers[name] = value
	return b
}

// HeaderRegex matches a request header value against a regular expression.
func (b *Builder) HeaderRegex(name, pattern string) *Builder {
	if b.st.Expectation.HeaderRegexes == nil {
		b.st.Expectation.HeaderRegexes = make(map[string]string)
	}
	b.st.Expectation.HeaderRegexes[name] = pattern
	return b
}

// HeaderExists requires the named headers to be present, any value.
func (b *Builder) HeaderExists(names ...string) *Builder {
	b.st.Expectation.HeaderExists = append(b.st.Expectation.HeaderExists, names...)
	return b
}

// Query matches a query parameter value exactly.
func (b *Builder) Query(name, value string) *Builder {
	if b.st.Expectation.Query == nil {
		b.st.Expectation.Query = make(map[string]string)
	}
	b.st.Expectation.Query[name] = value
	return b
}

// QueryRegex matches a query parameter value against a regular expression.
func (b *Builder) QueryRegex(name, pattern string) *Builder {
	if b.st.Expectation.QueryRegexes == nil {
		b.st.Expectation.QueryRegexes = make(map[string]string)
	}
	b.st.Expectation.QueryRegexes[name] = pattern
	return b
}

// QueryExists requires the named query parameters to be present.
func (b *Builder) QueryExists(names ...string) *Builder {
	b.st.Expectation.QueryExists = append(b.st.Expectation.QueryExists, names...)
	return b
}

// Cookie matches a cookie value exactly.
func (b *Builder) Cookie(name, value string) *Builder {
	if b.st.Expectation.Cookies == nil {
		b.st.Expectation.Cookies = make(map[string]string)
	}
	b.st.Expectation.Cookies[name] = value
	return b
}

// CookieRegex matches a cookie value against a regular expression.
func (b *Builder) CookieRegex(name, pattern string) *Builder {
	if b.st.Expectation.CookieRegexes == nil {
		b.st.Expectation.CookieRegexes = make(map[string]string)
	}
	b.st.Expectation.CookieRegexes[name] = pattern
	return b
}

// Body matches the raw request body exactly.
func (b *Builder) Body(body string) *Builder {
	b.st.Expectation.Body = body
	return b
}

// BodyContains matches bodies containing the substring.
func (b *Builder) BodyContains(substr string) *Builder {
	b.st.Expectation.BodyContains = substr
	return b
}

// BodyRegex matches the body against a regular expression.
func (b *Builder) BodyRegex(pattern string) *Builder {
	b.st.Expectation.BodyRegex = pattern
	return b
}

// JSON matches the request body as JSON, deep-equal and order-insensitive.
// doc may be a raw JSON string, []byte, or any Go value.
func (b *Builder) JSON(doc any) *Builder {
	v, err := jsonDocument("JSON", doc)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.st.Expectation.JSONBody = v
	return b
}

// JSONPartial matches when every key/value pair in doc is present in the
// request body; extra keys are ignored. doc may be a raw JSON string,
// []byte, or any Go value.
func (b *Builder) JSONPartial(doc any) *Builder {
	v, err := jsonDocument("JSONPartial", doc)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.st.Expectation.JSONPartial = v
	return b
}

// JSONPath requires the JSONPath expression to select at least one value in
// the request's JSON body.
func (b *Builder) JSONPath(expr string) *Builder {
	b.st.Expectation.JSONPath = append(b.st.Expectation.JSONPath, stub.JSONPathCondition{Expr: expr})
	return b
}

// JSONPathEquals requires the value selected by the JSONPath expression to
// equal v.
func (b *Builder) JSONPathEquals(expr string, v any) *Builder {
	b.st.Expectation.JSONPath = append(b.st.Expectation.JSONPath, stub.JSONPathCondition{Expr: expr, Equals: v})
	return b
}

// XML matches the request body as XML, structurally.
func (b *Builder) XML(doc string) *Builder {
	b.st.Expectation.XMLBody = doc
	return b
}

// FormField matches an application/x-www-form-urlencoded body field exactly.
func (b *Builder) FormField(name, value string) *Builder {
	if b.st.Expectation.Form == nil {
		b.st.Expectation.Form = make(map[string]string)
	}
	b.st.Expectation.Form[name] = value
	return b
}

// MultipartPart requires a multipart/form-data part with the given name.
// A non-empty contains additionally requires the part content to contain
// the substring.
func (b *Builder) MultipartPart(name, contains string) *Builder {
	b.st.Expectation.Multipart = append(b.st.Expectation.Multipart, stub.MultipartCondition{
		Name:     name,
		Contains: contains,
	})
	return b
}

// Expr matches with a boolean expression over the request, e.g.
// `method == "POST" && len(body) > 0`.
func (b *Builder) Expr(src string) *Builder {
	b.st.Expectation.Expr = src
	return b
}

// Limit caps how many times the mock may match. Zero means unlimited.
func (b *Builder) Limit(n int) *Builder {
	b.st.Expectation.Limit = n
	return b
}

// Once limits the mock to a single match.
func (b *Builder) Once() *Builder {
	return b.Limit(1)
}

// Twice limits the mock to two matches.
func (b *Builder) Twice() *Builder {
	return b.Limit(2)
}

// ReplyStatus sets the response status code. The default is 200.
func (b *Builder) ReplyStatus(status int) *Builder {
	b.st.Response.Status = status
	return b
}

// Reply sets the response status and raw body.
func (b *Builder) Reply(status int, body string) *Builder {
	b.st.Response.Status = status
	b.st.Response.Body = body
	return b
}

// ReplyJSON sets the response status and marshals v as the JSON body, with
// Content-Type application/json.
func (b *Builder) ReplyJSON(status int, v any) *Builder {
	data, err := json.Marshal(v)
	if err != nil {
		b.setErr(fmt.Errorf("ReplyJSON: %w", err))
		return b
	}
	b.st.Response.Status = status
	b.st.Response.Body = string(data)
	return b.ReplyHeader("Content-Type", "application/json")
}

// ReplyHeader adds a response header.
func (b *Builder) ReplyHeader(name, value string) *Builder {
	if b.st.Response.Headers == nil {
		b.st.Response.Headers = make(map[string]string)
	}
	b.st.Response.Headers[name] = value
	return b
}

// ReplyDelay holds the response back for d before writing it.
func (b *Builder) ReplyDelay(d time.Duration) *Builder {
	b.st.Response.DelayMs = int(d.Milliseconds())
	return b
}

// Register submits the definition to the server and returns a handle for
// assertions. Definition and registration errors fail the test.
func (b *Builder) Register() *Mock {
	b.t.Helper()

	if b.err != nil {
		b.t.Fatalf("invalid mock definition: %v", b.err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := b.srv.client.CreateMock(ctx, &b.st)
	if err != nil {
		b.t.Fatalf("register mock: %v", err)
	}
	return &Mock{ID: id, t: b.t, client: b.srv.client}
}

func jsonDocument(method string, doc any) (any, error) {
	switch raw := doc.(type) {
	case string:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%s: invalid JSON document: %w", method, err)
		}
		return v, nil
	case []byte:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s: invalid JSON document: %w", method, err)
		}
		return v, nil
	default:
		return doc, nil
	}
}

// Mock is a registered mock on a server, addressable for assertions and
// removal.
type Mock struct {
	// ID is the server-assigned mock id.
	ID int

	t      testing.TB
	client *client.Client
}

// Hits returns how many requests the mock has served so far.
func (m *Mock) Hits() uint64 {
	m.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d, err := m.client.GetMock(ctx, m.ID)
	if err != nil {
		m.t.Fatalf("get mock %d: %v", m.ID, err)
	}
	return d.Hits
}

// Assert fails the test unless the mock was called at least once.
func (m *Mock) Assert(t testing.TB) {
	t.Helper()
	m.verify(t, nil)
}

// AssertHits fails the test unless the mock was called exactly n times.
func (m *Mock) AssertHits(t testing.TB, n uint64) {
	t.Helper()
	m.verify(t, &stub.VerifyRequest{Exactly: &n})
}

// AssertNotCalled fails the test if the mock served any request.
func (m *Mock) AssertNotCalled(t testing.TB) {
	t.Helper()
	m.verify(t, &stub.VerifyRequest{Never: true})
}

func (m *Mock) verify(t testing.TB, req *stub.VerifyRequest) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := m.client.Verify(ctx, m.ID, req)
	if err != nil {
		t.Fatalf("verify mock %d: %v", m.ID, err)
	}
	if !result.Passed {
		t.Error(result.Message)
	}
}

// Delete removes the mock from matching.
func (m *Mock) Delete() {
	m.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.DeleteMock(ctx, m.ID); err != nil {
		m.t.Fatalf("delete mock %d: %v", m.ID, err)
	}
}
