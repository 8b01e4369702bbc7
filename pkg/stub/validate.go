package stub

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a structural problem in a stub definition with the
// field that caused it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// validHTTPMethods are the allowed HTTP methods.
var validHTTPMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// headerNameRegex validates HTTP header names (RFC 7230 token).
var headerNameRegex = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+\-.^_\x60|~]+$`)

// MaxDelayMs caps the configurable artificial response delay (60s).
const MaxDelayMs = 60_000

// Validate checks the stub definition structurally. Pattern compilation
// (regex, glob, JSONPath, expression) is checked separately when the stub is
// registered; a stub that fails either check is never stored.
func (s *Stub) Validate() error {
	if err := s.Expectation.Validate(); err != nil {
		return err
	}
	return s.Response.Validate()
}

// Validate checks the expectation's structural constraints.
func (e *Expectation) Validate() error {
	if e.IsEmpty() {
		return &ValidationError{Field: "expectation", Message: "at least one matcher clause is required"}
	}

	if e.Method != "" && !validHTTPMethods[strings.ToUpper(e.Method)] {
		return &ValidationError{Field: "expectation.method", Message: fmt.Sprintf("invalid HTTP method: %s", e.Method)}
	}

	pathKinds := 0
	for _, p := range []string{e.Path, e.PathGlob, e.PathRegex} {
		if p != "" {
			pathKinds++
		}
	}
	if pathKinds > 1 {
		return &ValidationError{Field: "expectation.path", Message: "path, pathGlob and pathRegex are mutually exclusive"}
	}
	if e.Path != "" && !strings.HasPrefix(e.Path, "/") {
		return &ValidationError{Field: "expectation.path", Message: "path must start with /"}
	}

	for name := range e.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "expectation.headers", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}
	for name := range e.HeaderRegexes {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "expectation.headerRegexes", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}
	for _, name := range e.HeaderExists {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "expectation.headerExists", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}

	for i, c := range e.JSONPath {
		if strings.TrimSpace(c.Expr) == "" {
			return &ValidationError{Field: fmt.Sprintf("expectation.jsonPath[%d].expr", i), Message: "expression is required"}
		}
	}
	for i, c := range e.Multipart {
		if c.Name == "" {
			return &ValidationError{Field: fmt.Sprintf("expectation.multipart[%d].name", i), Message: "part name is required"}
		}
	}

	if e.Limit < 0 {
		return &ValidationError{Field: "expectation.limit", Message: "limit must not be negative"}
	}
	return nil
}

// Validate checks the response's structural constraints.
func (r *ResponseSpec) Validate() error {
	if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
		return &ValidationError{Field: "response.status", Message: fmt.Sprintf("status code out of range: %d", r.Status)}
	}
	for name := range r.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "response.headers", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}
	if r.DelayMs < 0 {
		return &ValidationError{Field: "response.delayMs", Message: "delay must not be negative"}
	}
	if r.DelayMs > MaxDelayMs {
		return &ValidationError{Field: "response.delayMs", Message: fmt.Sprintf("delay exceeds maximum of %dms", MaxDelayMs)}
	}
	return nil
}
