package match

// Clause kinds, one per matcher variant. The set is closed: adding a matcher
// means adding a kind constant and a Clause implementation.
const (
	KindMethod       = "method"
	KindPath         = "path"
	KindPathContains = "pathContains"
	KindPathGlob     = "pathGlob"
	KindPathRegex    = "pathRegex"
	KindHeader       = "header"
	KindHeaderRegex  = "headerRegex"
	KindHeaderExists = "headerExists"
	KindQuery        = "query"
	KindQueryRegex   = "queryRegex"
	KindQueryExists  = "queryExists"
	KindCookie       = "cookie"
	KindCookieRegex  = "cookieRegex"
	KindBody         = "body"
	KindBodyContains = "bodyContains"
	KindBodyRegex    = "bodyRegex"
	KindJSONBody     = "jsonBody"
	KindJSONPartial  = "jsonPartial"
	KindJSONPath     = "jsonPath"
	KindXMLBody      = "xmlBody"
	KindForm         = "form"
	KindMultipart    = "multipart"
	KindExpr         = "expr"
)

// maxDistance is the dissimilarity assigned to binary clauses on failure and
// to absent values.
const maxDistance = 1.0

// Result is the outcome of evaluating one clause against one request.
type Result struct {
	// Kind identifies the clause variant.
	Kind string `json:"kind"`
	// Target narrows the kind where applicable: the header/query/cookie/form
	// field name, the JSONPath expression, or the multipart part name.
	Target string `json:"target,omitempty"`
	// Expected and Actual are human-readable renderings of both sides,
	// truncated for display.
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`

	Matched bool `json:"matched"`
	// Distance is the normalized dissimilarity in [0,1]; zero when Matched.
	Distance float64 `json:"distance"`

	// Details lists field-level mismatches for structured clauses (JSON
	// paths, form fields).
	Details []string `json:"details,omitempty"`
	// Diff is a compact textual diff for body-sized mismatches, filled by
	// the near-miss collector.
	Diff string `json:"diff,omitempty"`
}

// Clause is one compiled matcher condition. Evaluate must be pure: no
// side effects, no retained references to the request.
type Clause interface {
	Evaluate(r *Request) Result
}

// MatchResult aggregates every clause of one expectation against one request.
type MatchResult struct {
	Matched bool
	// TotalDistance is the sum of the distances of failing clauses, used to
	// rank non-matching stubs. Zero when Matched.
	TotalDistance float64
	Clauses       []Result
}

// Evaluate reports whether every clause matches the request. It
// short-circuits on the first failing clause; use Breakdown when per-clause
// outcomes are needed.
func Evaluate(clauses []Clause, r *Request) bool {
	for _, c := range clauses {
		if !c.Evaluate(r).Matched {
			return false
		}
	}
	return true
}

// Breakdown evaluates every clause without short-circuiting and returns the
// full per-clause picture. Used by the diagnostic path.
func Breakdown(clauses []Clause, r *Request) MatchResult {
	out := MatchResult{Matched: true, Clauses: make([]Result, 0, len(clauses))}
	for _, c := range clauses {
		res := c.Evaluate(r)
		out.Clauses = append(out.Clauses, res)
		if !res.Matched {
			out.Matched = false
			out.TotalDistance += res.Distance
		}
	}
	return out
}
