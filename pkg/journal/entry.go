package journal

import (
	"strings"
	"time"
)

// Dispatch outcomes recorded on entries.
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
)

// maxRecordedBody caps how much request body an entry keeps.
const maxRecordedBody = 10 * 1024

// Entry captures one dispatched request and how it was answered.
type Entry struct {
	// ID is a unique identifier for the entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	Method string `json:"method"`
	Path   string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (multi-value).
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body, truncated to 10KB.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr,omitempty"`

	// Outcome is OutcomeMatched or OutcomeNoMatch.
	Outcome string `json:"outcome"`

	// MatchedMockID is the id of the mock that served the request; zero on
	// no match.
	MatchedMockID int `json:"matchedMockId,omitempty"`

	// ResponseStatus is the status code written to the client.
	ResponseStatus int `json:"responseStatus"`

	// DurationMs is the dispatch time in milliseconds.
	DurationMs float64 `json:"durationMs"`

	// NearMisses summarizes the closest candidates on a no-match.
	NearMisses []NearMiss `json:"nearMisses,omitempty"`
}

// NearMiss is a journal-friendly summary of one ranked candidate from a
// no-match diagnostic.
type NearMiss struct {
	MockID   int     `json:"mockId"`
	MockName string  `json:"mockName,omitempty"`
	Distance float64 `json:"distance"`
	Reason   string  `json:"reason"`
}

// SetBody records the request body on the entry, truncating oversized
// payloads while keeping the original size.
func (e *Entry) SetBody(body []byte) {
	e.BodySize = len(body)
	if len(body) > maxRecordedBody {
		body = body[:maxRecordedBody]
	}
	e.Body = string(body)
}

// ListResult is the wire shape of the journal listing endpoint: the filtered
// page plus the total number of stored entries.
type ListResult struct {
	Requests []*Entry `json:"requests"`
	Count    int      `json:"count"`
	Total    int      `json:"total"`
}

// Filter selects entries in List. Zero values mean "any".
type Filter struct {
	// Method filters by exact HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// MatchedMockID filters by the mock that served the request.
	MatchedMockID int

	// Outcome filters by dispatch outcome.
	Outcome string

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

func (f *Filter) matches(e *Entry) bool {
	if f.Method != "" && e.Method != f.Method {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(e.Path, f.Path) {
		return false
	}
	if f.MatchedMockID != 0 && e.MatchedMockID != f.MatchedMockID {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	return true
}
