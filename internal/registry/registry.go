package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mockbird/mockbird/internal/match"
	"github.com/mockbird/mockbird/pkg/stub"
)

// Sentinel errors returned by registry operations.
var (
	ErrNotFound           = errors.New("mock not found")
	ErrInvalidExpectation = errors.New("invalid expectation")
)

// entry is one registered mock with its compiled clauses and bookkeeping.
type entry struct {
	def     stub.Stub
	clauses []match.Clause
	hits    uint64
	// remaining is the unused match budget; -1 means unlimited.
	remaining int
	deleted   bool
}

func (e *entry) limited() bool {
	return e.remaining >= 0
}

func (e *entry) exhausted() bool {
	return e.remaining == 0
}

func (e *entry) detail() *stub.Detail {
	d := &stub.Detail{
		ID:          e.def.ID,
		Name:        e.def.Name,
		State:       stub.StateActive,
		Hits:        e.hits,
		Expectation: e.def.Expectation,
		Response:    e.def.Response,
	}
	if e.deleted {
		d.State = stub.StateDeleted
	}
	if e.limited() {
		rem := e.remaining
		d.Remaining = &rem
	}
	return d
}

// Registry is the single source of truth for one server instance's mocks.
type Registry struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]*entry
	// order holds ids in registration order; deleted ids stay until
	// DeleteAll so historical hit counts remain queryable.
	order  []int
	policy SelectionPolicy
}

// Option configures a Registry.
type Option func(*Registry)

// WithSelectionPolicy replaces the ordering applied when several mocks fully
// match the same request.
func WithSelectionPolicy(p SelectionPolicy) Option {
	return func(r *Registry) {
		if p != nil {
			r.policy = p
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[int]*entry),
		policy:  DefaultSelectionPolicy,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates and compiles the stub, stores it in Active state and
// returns its id. A stub whose pattern or expression fails to compile is
// never stored.
func (r *Registry) Create(s *stub.Stub) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("%w: stub is nil", ErrInvalidExpectation)
	}
	if err := s.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidExpectation, err)
	}
	clauses, err := match.Compile(&s.Expectation)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidExpectation, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	e := &entry{
		def:       *s,
		clauses:   clauses,
		remaining: -1,
	}
	e.def.ID = r.nextID
	if !s.Expectation.Unlimited() {
		e.remaining = s.Expectation.Limit
	}
	r.entries[e.def.ID] = e
	r.order = append(r.order, e.def.ID)
	return e.def.ID, nil
}

// Delete marks the mock Deleted. It keeps the entry (and its hit count)
// around until DeleteAll. Returns ErrNotFound for unknown or already deleted
// ids.
func (r *Registry) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.deleted {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	e.deleted = true
	return nil
}

// DeleteAll removes every mock and restarts the id sequence.
func (r *Registry) DeleteAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID = 0
	r.entries = make(map[int]*entry)
	r.order = nil
}

// Get returns the mock definition plus current bookkeeping. Deleted mocks
// are returned with their state marked until DeleteAll.
func (r *Registry) Get(id int) (*stub.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return e.detail(), nil
}

// List returns every mock in registration order, deleted ones included.
func (r *Registry) List() []*stub.Detail {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*stub.Detail, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.entries[id]; ok {
			out = append(out, e.detail())
		}
	}
	return out
}

// Count returns the number of active mocks.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}

// Hits returns the mock's hit count. Deleted mocks keep theirs until
// DeleteAll.
func (r *Registry) Hits(id int) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return e.hits, nil
}

// Verify checks the mock's hit count against the asserted condition.
func (r *Registry) Verify(id int, req stub.VerifyRequest) (stub.VerifyResult, error) {
	hits, err := r.Hits(id)
	if err != nil {
		return stub.VerifyResult{}, err
	}

	res := stub.VerifyResult{Actual: hits}
	switch {
	case req.Exactly != nil:
		res.Expected = fmt.Sprintf("exactly %d calls", *req.Exactly)
		res.Passed = hits == *req.Exactly
	case req.AtLeast != nil:
		res.Expected = fmt.Sprintf("at least %d calls", *req.AtLeast)
		res.Passed = hits >= *req.AtLeast
	case req.AtMost != nil:
		res.Expected = fmt.Sprintf("at most %d calls", *req.AtMost)
		res.Passed = hits <= *req.AtMost
	case req.Never:
		res.Expected = "no calls"
		res.Passed = hits == 0
	default:
		res.Expected = "at least 1 call"
		res.Passed = hits >= 1
	}
	if !res.Passed {
		res.Message = fmt.Sprintf("mock %d: expected %s, got %d", id, res.Expected, hits)
	}
	return res, nil
}

// Selection is the outcome of a successful FindBestMatch.
type Selection struct {
	ID       int
	Name     string
	Response stub.ResponseSpec
	// Hits is the counter value after this match was recorded.
	Hits uint64
}

// FindBestMatch evaluates every active, non-exhausted mock against the
// request, applies the selection policy among full matches, and records the
// hit. Evaluation, selection and the counter update happen inside one
// critical section, so a limited mock's last use goes to exactly one caller.
func (r *Registry) FindBestMatch(req *match.Request) (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *entry
	var bestC Contender
	for _, id := range r.order {
		e, ok := r.entries[id]
		if !ok || e.deleted || e.exhausted() {
			continue
		}
		if !match.Evaluate(e.clauses, req) {
			continue
		}
		c := Contender{
			ID:        e.def.ID,
			Limited:   e.limited(),
			Remaining: e.remaining,
			Hits:      e.hits,
		}
		if best == nil || r.policy(c, bestC) {
			best, bestC = e, c
		}
	}
	if best == nil {
		return Selection{}, false
	}

	best.hits++
	if best.limited() {
		best.remaining--
	}
	return Selection{
		ID:       best.def.ID,
		Name:     best.def.Name,
		Response: best.def.Response,
		Hits:     best.hits,
	}, true
}

// Candidates snapshots the active mocks for the diagnostic engine. Clause
// slices are shared; compiled clauses are immutable after Create.
func (r *Registry) Candidates() []match.Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]match.Candidate, 0, len(r.order))
	for _, id := range r.order {
		e, ok := r.entries[id]
		if !ok || e.deleted {
			continue
		}
		out = append(out, match.Candidate{
			ID:        e.def.ID,
			Name:      e.def.Name,
			Exhausted: e.exhausted(),
			Clauses:   e.clauses,
		})
	}
	return out
}
