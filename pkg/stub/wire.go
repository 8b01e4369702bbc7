package stub

// Stub lifecycle states as reported by the control protocol. A deleted stub
// stays listable (with its historical hit count) until the instance is reset.
const (
	StateActive  = "active"
	StateDeleted = "deleted"
)

// Detail is one stub as returned by GET {prefix}/mocks and
// GET {prefix}/mocks/{id}: the definition plus registry bookkeeping.
type Detail struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	State string `json:"state"`
	// Hits is how many times the stub has served a request.
	Hits uint64 `json:"hits"`
	// Remaining is the unused match budget for limited stubs; nil when
	// unlimited.
	Remaining *int `json:"remaining,omitempty"`

	Expectation Expectation  `json:"expectation"`
	Response    ResponseSpec `json:"response"`
}

// CreateResult is the body of a successful POST {prefix}/mocks.
type CreateResult struct {
	ID int `json:"id"`
}

// ListResult is the body of GET {prefix}/mocks.
type ListResult struct {
	Mocks []*Detail `json:"mocks"`
	Total int       `json:"total"`
}

// VerifyRequest asserts a condition on a stub's hit count. Exactly one field
// should be set; Exactly wins when several are.
type VerifyRequest struct {
	Exactly *uint64 `json:"exactly,omitempty"`
	AtLeast *uint64 `json:"atLeast,omitempty"`
	AtMost  *uint64 `json:"atMost,omitempty"`
	Never   bool    `json:"never,omitempty"`
}

// VerifyResult reports the outcome of a verification call.
type VerifyResult struct {
	Passed bool `json:"passed"`
	// Expected describes the asserted condition, e.g. "exactly 3 calls".
	Expected string `json:"expected"`
	// Actual is the stub's current hit count.
	Actual  uint64 `json:"actual"`
	Message string `json:"message,omitempty"`
}

// Health is the body of GET {prefix}/health.
type Health struct {
	Status        string `json:"status"`
	Mocks         int    `json:"mocks"`
	UptimeSeconds int    `json:"uptimeSeconds"`
}

// ErrorBody is the structured JSON error returned by the control protocol
// and by the dispatcher's diagnostic 404.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
