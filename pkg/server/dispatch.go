package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mockbird/mockbird/internal/match"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/journal"
	"github.com/mockbird/mockbird/pkg/stub"
)

// NearMissHeader carries the number of ranked candidates on a diagnostic 404.
const NearMissHeader = "X-Mockbird-Near-Misses"

// noMatchBody is the diagnostic 404 payload.
type noMatchBody struct {
	Error      string           `json:"error"`
	Message    string           `json:"message"`
	Path       string           `json:"path"`
	Method     string           `json:"method"`
	NearMisses []match.NearMiss `json:"nearMisses,omitempty"`
}

// dispatch answers every request outside the admin prefix: snapshot, match,
// replay or diagnose.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	// MaxBytesReader errors out when the limit is exceeded, unlike
	// LimitReader which silently truncates.
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxBodySize))
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.log.Warn("request body too large", "path", r.URL.Path, "limit", s.cfg.MaxBodySize)
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body exceeds maximum allowed size")
			s.metrics.CountRequest(journal.OutcomeNoMatch)
			s.recordDispatch(startTime, r, body, journal.OutcomeNoMatch, 0, http.StatusRequestEntityTooLarge, nil)
			return
		}
		s.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
	}

	snap := match.NewRequest(r, body)

	matchStart := time.Now()
	sel, ok := s.mocks.FindBestMatch(snap)
	if !ok && snap.Method == http.MethodHead {
		// HEAD falls back to a stub registered for GET.
		retry := *snap
		retry.Method = http.MethodGet
		sel, ok = s.mocks.FindBestMatch(&retry)
	}
	s.metrics.ObserveMatchDuration(time.Since(matchStart))

	if !ok {
		s.dispatchNoMatch(w, r, snap, body, startTime)
		return
	}

	s.log.Debug("request matched",
		"method", snap.Method,
		"path", snap.Path,
		"mock_id", sel.ID,
		"hits", sel.Hits,
	)
	s.metrics.CountRequest(journal.OutcomeMatched)

	status := writeStubResponse(r.Context(), w, &sel.Response)
	s.recordDispatch(startTime, r, body, journal.OutcomeMatched, sel.ID, status, nil)
}

// dispatchNoMatch ranks the closest candidates and writes the diagnostic 404.
func (s *Server) dispatchNoMatch(w http.ResponseWriter, r *http.Request, snap *match.Request, body []byte, startTime time.Time) {
	nearMisses := match.Collect(s.mocks.Candidates(), snap, match.DefaultNearMissLimit)

	s.log.Debug("no mock matched",
		"method", snap.Method,
		"path", snap.Path,
		"near_misses", len(nearMisses),
	)
	s.metrics.CountRequest(journal.OutcomeNoMatch)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(NearMissHeader, strconv.Itoa(len(nearMisses)))
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(noMatchBody{
		Error:      "no_match",
		Message:    "No mock matched the request",
		Path:       snap.Path,
		Method:     snap.Method,
		NearMisses: nearMisses,
	})

	summary := make([]journal.NearMiss, len(nearMisses))
	for i, nm := range nearMisses {
		summary[i] = journal.NearMiss{
			MockID:   nm.MockID,
			MockName: nm.MockName,
			Distance: nm.Distance,
			Reason:   nm.Reason,
		}
	}
	s.recordDispatch(startTime, r, body, journal.OutcomeNoMatch, 0, http.StatusNotFound, summary)
}

// recordDispatch journals one dispatch decision. The journal never blocks.
func (s *Server) recordDispatch(startTime time.Time, r *http.Request, body []byte, outcome string, mockID, status int, nearMisses []journal.NearMiss) {
	headers := make(map[string][]string, len(r.Header))
	maps.Copy(headers, r.Header)

	e := &journal.Entry{
		Timestamp:      startTime,
		Method:         r.Method,
		Path:           r.URL.Path,
		QueryString:    r.URL.RawQuery,
		Headers:        headers,
		RemoteAddr:     r.RemoteAddr,
		Outcome:        outcome,
		MatchedMockID:  mockID,
		ResponseStatus: status,
		DurationMs:     float64(time.Since(startTime).Microseconds()) / 1000,
		NearMisses:     nearMisses,
	}
	e.SetBody(body)
	s.journal.Record(e)
}

// writeStubResponse replays a stubbed response: delay, headers, status, body.
// The delay is cut short when the client goes away. Returns the status code
// written, for the journal.
func writeStubResponse(ctx context.Context, w http.ResponseWriter, resp *stub.ResponseSpec) int {
	status := resp.StatusOrDefault()

	if resp.DelayMs > 0 {
		t := time.NewTimer(time.Duration(resp.DelayMs) * time.Millisecond)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return status
		}
	}

	userSetContentType := false
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
		if strings.EqualFold(name, "Content-Type") {
			userSetContentType = true
		}
	}

	// Default the Content-Type from the body shape when the stub does not
	// pin one.
	if !userSetContentType && resp.Body != "" {
		switch {
		case looksLikeJSON(resp.Body):
			w.Header().Set("Content-Type", "application/json")
		case looksLikeXML(resp.Body):
			w.Header().Set("Content-Type", "application/xml")
		default:
			w.Header().Set("Content-Type", "text/plain")
		}
	}

	w.WriteHeader(status)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
	return status
}

// looksLikeJSON returns true if the string appears to be JSON content.
func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

// looksLikeXML returns true if the string appears to be XML content.
func looksLikeXML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<")
}
