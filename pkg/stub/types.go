package stub

// Expectation is the set of conditions a request must satisfy to be served by
// a stub. Every populated clause must hold (logical AND). Zero-value fields
// are unconstrained.
type Expectation struct {
	// Method matches the HTTP method, case-insensitively ("get" == "GET").
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// Path matches the URL path exactly (case-sensitive).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// PathContains matches when the URL path contains the substring.
	PathContains string `json:"pathContains,omitempty" yaml:"pathContains,omitempty"`
	// PathGlob matches the URL path against a glob pattern
	// (doublestar syntax, e.g. "/users/*/orders/**").
	PathGlob string `json:"pathGlob,omitempty" yaml:"pathGlob,omitempty"`
	// PathRegex matches the URL path against a regular expression.
	PathRegex string `json:"pathRegex,omitempty" yaml:"pathRegex,omitempty"`

	// Headers matches header values exactly. Names are case-insensitive,
	// values case-sensitive.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// HeaderRegexes matches header values against regular expressions.
	HeaderRegexes map[string]string `json:"headerRegexes,omitempty" yaml:"headerRegexes,omitempty"`
	// HeaderExists requires the named headers to be present, any value.
	HeaderExists []string `json:"headerExists,omitempty" yaml:"headerExists,omitempty"`

	// Query matches query parameter values exactly (first value wins for
	// repeated parameters).
	Query map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	// QueryRegexes matches query parameter values against regular expressions.
	QueryRegexes map[string]string `json:"queryRegexes,omitempty" yaml:"queryRegexes,omitempty"`
	// QueryExists requires the named query parameters to be present.
	QueryExists []string `json:"queryExists,omitempty" yaml:"queryExists,omitempty"`

	// Cookies matches cookie values exactly.
	Cookies map[string]string `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	// CookieRegexes matches cookie values against regular expressions.
	CookieRegexes map[string]string `json:"cookieRegexes,omitempty" yaml:"cookieRegexes,omitempty"`

	// Body matches the raw request body exactly.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
	// BodyContains matches when the raw body contains the substring.
	BodyContains string `json:"bodyContains,omitempty" yaml:"bodyContains,omitempty"`
	// BodyRegex matches the raw body against a regular expression.
	BodyRegex string `json:"bodyRegex,omitempty" yaml:"bodyRegex,omitempty"`

	// JSONBody matches the request body as JSON, deep-equal and
	// order-insensitive. Extra keys in the actual body are a mismatch.
	JSONBody any `json:"jsonBody,omitempty" yaml:"jsonBody,omitempty"`
	// JSONPartial matches when every key/value pair here is present in the
	// request body, recursing into nested objects and arrays. Extra keys in
	// the actual body are ignored.
	JSONPartial any `json:"jsonPartial,omitempty" yaml:"jsonPartial,omitempty"`
	// JSONPath lists JSONPath conditions evaluated against the JSON body.
	JSONPath []JSONPathCondition `json:"jsonPath,omitempty" yaml:"jsonPath,omitempty"`

	// XMLBody matches the request body as XML, structurally, ignoring
	// insignificant whitespace.
	XMLBody string `json:"xmlBody,omitempty" yaml:"xmlBody,omitempty"`

	// Form matches application/x-www-form-urlencoded body fields exactly.
	Form map[string]string `json:"form,omitempty" yaml:"form,omitempty"`

	// Multipart lists conditions over multipart/form-data parts.
	Multipart []MultipartCondition `json:"multipart,omitempty" yaml:"multipart,omitempty"`

	// Expr is a boolean expression over the request, evaluated with
	// expr-lang. The environment exposes method, path, query, headers and
	// body. Example: `method == "POST" && len(body) > 0`.
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`

	// Limit caps how many times the stub may be matched (one-shot budget).
	// Zero means unlimited.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// JSONPathCondition asserts something about the value selected by a JSONPath
// expression in the request's JSON body.
type JSONPathCondition struct {
	// Expr is the JSONPath expression, e.g. "$.user.id".
	Expr string `json:"expr" yaml:"expr"`
	// Exists, when set, requires the expression to select at least one value
	// (true) or none (false). When nil and Equals is nil, defaults to
	// requiring existence.
	Exists *bool `json:"exists,omitempty" yaml:"exists,omitempty"`
	// Equals, when set, requires the first selected value to equal this one
	// (numeric comparison is type-coercing: 1 == 1.0).
	Equals any `json:"equals,omitempty" yaml:"equals,omitempty"`
}

// MultipartCondition asserts the presence (and optionally the content) of a
// multipart/form-data part.
type MultipartCondition struct {
	// Name is the form part name.
	Name string `json:"name" yaml:"name"`
	// Contains, when non-empty, requires the part content to contain the
	// substring.
	Contains string `json:"contains,omitempty" yaml:"contains,omitempty"`
}

// IsEmpty reports whether the expectation constrains nothing.
func (e *Expectation) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.Method == "" && e.Path == "" && e.PathContains == "" &&
		e.PathGlob == "" && e.PathRegex == "" &&
		len(e.Headers) == 0 && len(e.HeaderRegexes) == 0 && len(e.HeaderExists) == 0 &&
		len(e.Query) == 0 && len(e.QueryRegexes) == 0 && len(e.QueryExists) == 0 &&
		len(e.Cookies) == 0 && len(e.CookieRegexes) == 0 &&
		e.Body == "" && e.BodyContains == "" && e.BodyRegex == "" &&
		e.JSONBody == nil && e.JSONPartial == nil && len(e.JSONPath) == 0 &&
		e.XMLBody == "" && len(e.Form) == 0 && len(e.Multipart) == 0 && e.Expr == ""
}

// Unlimited reports whether the stub has no match-count budget.
func (e *Expectation) Unlimited() bool {
	return e == nil || e.Limit <= 0
}

// Stub pairs an Expectation with the response it elicits. This is the body of
// POST {prefix}/mocks and the definition part of everything the control
// protocol returns.
type Stub struct {
	// ID is assigned by the server on create and is unique for the lifetime
	// of the server instance that issued it.
	ID int `json:"id,omitempty" yaml:"id,omitempty"`
	// Name is an optional label used in diagnostics and listings.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Expectation Expectation  `json:"expectation" yaml:"expectation"`
	Response    ResponseSpec `json:"response" yaml:"response"`
}
