package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/journal"
	"github.com/mockbird/mockbird/pkg/stub"
)

// routes builds the root handler: the control protocol mounted under the
// admin prefix, everything else to the dispatcher. The whole admin subtree
// is claimed up front so no admin-prefixed path ever falls through to stub
// matching.
func (s *Server) routes() http.Handler {
	prefix := strings.TrimSuffix(s.cfg.AdminPrefix, "/")
	if prefix == "" {
		prefix = config.DefaultAdminPrefix
	}

	ctl := http.NewServeMux()
	ctl.HandleFunc("POST /mocks", s.handleCreateMock)
	ctl.HandleFunc("GET /mocks", s.handleListMocks)
	ctl.HandleFunc("DELETE /mocks", s.handleDeleteAllMocks)
	ctl.HandleFunc("GET /mocks/{id}", s.handleGetMock)
	ctl.HandleFunc("DELETE /mocks/{id}", s.handleDeleteMock)
	ctl.HandleFunc("GET /mocks/{id}/verify", s.handleVerifyMockQuery)
	ctl.HandleFunc("POST /mocks/{id}/verify", s.handleVerifyMock)
	ctl.HandleFunc("GET /requests", s.handleListRequests)
	ctl.HandleFunc("DELETE /requests", s.handleClearRequests)
	ctl.HandleFunc("GET /health", s.handleHealth)
	ctl.Handle("GET /metrics", s.metrics.Handler())

	mux := http.NewServeMux()
	mux.Handle(prefix+"/", http.StripPrefix(prefix, ctl))
	mux.HandleFunc("/", s.dispatch)
	return mux
}

func (s *Server) handleCreateMock(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)

	var st stub.Stub
	if err := decodeJSON(r, &st, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	id, err := s.mocks.Create(&st)
	if err != nil {
		// Compile errors describe the caller's own payload, so the full
		// message goes back.
		httputil.WriteBadRequest(w, "invalid_expectation", err.Error())
		return
	}

	s.log.Info("mock created", "id", id, "name", st.Name)
	httputil.WriteCreated(w, stub.CreateResult{ID: id})
}

func (s *Server) handleListMocks(w http.ResponseWriter, _ *http.Request) {
	mocks := s.mocks.List()
	httputil.WriteOK(w, stub.ListResult{Mocks: mocks, Total: len(mocks)})
}

func (s *Server) handleGetMock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	detail, err := s.mocks.Get(id)
	if err != nil {
		httputil.WriteNotFound(w, "not_found", "Mock not found")
		return
	}
	httputil.WriteOK(w, detail)
}

func (s *Server) handleDeleteMock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.mocks.Delete(id); err != nil {
		httputil.WriteNotFound(w, "not_found", "Mock not found")
		return
	}

	s.log.Info("mock deleted", "id", id)
	httputil.WriteNoContent(w)
}

func (s *Server) handleDeleteAllMocks(w http.ResponseWriter, _ *http.Request) {
	s.mocks.DeleteAll()
	s.log.Info("all mocks deleted")
	httputil.WriteNoContent(w)
}

// handleVerifyMock evaluates a hit-count assertion posted as JSON:
// {"exactly": n}, {"atLeast": n}, {"atMost": n}, {"never": true}, or any
// atLeast/atMost combination. An empty body asserts at-least-once.
func (s *Server) handleVerifyMock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.limitBody(w, r)
	var req stub.VerifyRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := s.mocks.Verify(id, req)
	if err != nil {
		httputil.WriteNotFound(w, "not_found", "Mock not found")
		return
	}
	httputil.WriteOK(w, result)
}

// handleVerifyMockQuery is the GET form: ?expected=N asserts an exact count,
// no parameter asserts at-least-once.
func (s *Server) handleVerifyMockQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req stub.VerifyRequest
	if raw := r.URL.Query().Get("expected"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid_parameter", "expected must be a non-negative integer")
			return
		}
		req.Exactly = &n
	}

	result, err := s.mocks.Verify(id, req)
	if err != nil {
		httputil.WriteNotFound(w, "not_found", "Mock not found")
		return
	}
	httputil.WriteOK(w, result)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter := &journal.Filter{Limit: 100}

	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Offset = n
		}
	}
	filter.Method = q.Get("method")
	filter.Path = q.Get("path")
	filter.Outcome = q.Get("outcome")
	if raw := q.Get("matched"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid_parameter", "matched must be a mock id")
			return
		}
		filter.MatchedMockID = n
	}

	entries := s.journal.List(filter)
	httputil.WriteOK(w, journal.ListResult{
		Requests: entries,
		Count:    len(entries),
		Total:    s.journal.Count(),
	})
}

func (s *Server) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	cleared := s.journal.Clear()
	s.log.Info("request journal cleared", "entries", cleared)
	httputil.WriteOK(w, map[string]any{
		"cleared": cleared,
		"message": "request journal cleared",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, stub.Health{
		Status:        "ok",
		Mocks:         s.mocks.Count(),
		UptimeSeconds: int(s.Uptime().Seconds()),
	})
}

// limitBody caps the control-plane request body at the configured maximum.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxBodySize))
}

// decodeJSON decodes the request body into v. When allowEOF is true an
// empty body decodes to the zero value.
func decodeJSON(r *http.Request, v any, allowEOF bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if allowEOF && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeDecodeError maps a body decode failure to the matching status code.
func writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}
	httputil.WriteBadRequest(w, "invalid_json", "invalid JSON in request body")
}

// pathID parses the {id} path segment, writing a 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_id", "mock id must be an integer")
		return 0, false
	}
	return id, true
}
