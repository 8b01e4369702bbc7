package registry

import (
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mockbird/mockbird/internal/match"
	"github.com/mockbird/mockbird/pkg/stub"
)

// --- Helpers ---

func getStub(path string) *stub.Stub {
	return &stub.Stub{
		Expectation: stub.Expectation{Method: "GET", Path: path},
		Response:    stub.ResponseSpec{Status: 200, Body: "ok"},
	}
}

func oneShotStub(path string, limit int) *stub.Stub {
	s := getStub(path)
	s.Expectation.Limit = limit
	return s
}

func getRequest(path string) *match.Request {
	r := httptest.NewRequest("GET", path, nil)
	return match.NewRequest(r, nil)
}

func mustCreate(t *testing.T, r *Registry, s *stub.Stub) int {
	t.Helper()
	id, err := r.Create(s)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return id
}

// --- Create ---

func TestCreate_AssignsSequentialIDs(t *testing.T) {
	r := New()
	for want := 1; want <= 3; want++ {
		id := mustCreate(t, r, getStub("/a"))
		if id != want {
			t.Errorf("Create() id = %d, want %d", id, want)
		}
	}
}

func TestCreate_RejectsEmptyExpectation(t *testing.T) {
	r := New()
	_, err := r.Create(&stub.Stub{Response: stub.ResponseSpec{Status: 200}})
	if !errors.Is(err, ErrInvalidExpectation) {
		t.Fatalf("Create() error = %v, want ErrInvalidExpectation", err)
	}
	if n := len(r.List()); n != 0 {
		t.Errorf("rejected stub was stored, List() len = %d", n)
	}
}

func TestCreate_RejectsBadRegex(t *testing.T) {
	r := New()
	s := &stub.Stub{
		Expectation: stub.Expectation{PathRegex: "[unclosed"},
		Response:    stub.ResponseSpec{Status: 200},
	}
	_, err := r.Create(s)
	if !errors.Is(err, ErrInvalidExpectation) {
		t.Fatalf("Create() error = %v, want ErrInvalidExpectation", err)
	}
	var verr *stub.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create() error should carry the field detail, got %v", err)
	}
	if verr.Field != "pathRegex" {
		t.Errorf("ValidationError.Field = %q, want %q", verr.Field, "pathRegex")
	}
}

func TestCreate_RejectsNil(t *testing.T) {
	r := New()
	if _, err := r.Create(nil); !errors.Is(err, ErrInvalidExpectation) {
		t.Errorf("Create(nil) error = %v, want ErrInvalidExpectation", err)
	}
}

// --- Delete / DeleteAll ---

func TestDelete(t *testing.T) {
	r := New()
	id := mustCreate(t, r, getStub("/a"))

	if err := r.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := r.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if err := r.Delete(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestDelete_StopsMatchingKeepsHistory(t *testing.T) {
	r := New()
	id := mustCreate(t, r, getStub("/a"))

	if _, ok := r.FindBestMatch(getRequest("/a")); !ok {
		t.Fatal("request should match before delete")
	}
	if err := r.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := r.FindBestMatch(getRequest("/a")); ok {
		t.Error("deleted mock still matches")
	}

	d, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if d.State != stub.StateDeleted {
		t.Errorf("State = %q, want %q", d.State, stub.StateDeleted)
	}
	if d.Hits != 1 {
		t.Errorf("historical Hits = %d, want 1", d.Hits)
	}
	if hits, err := r.Hits(id); err != nil || hits != 1 {
		t.Errorf("Hits() = %d, %v, want 1, nil", hits, err)
	}
}

func TestDeleteAll_ResetsIDSequence(t *testing.T) {
	r := New()
	mustCreate(t, r, getStub("/a"))
	mustCreate(t, r, getStub("/b"))

	r.DeleteAll()

	if n := len(r.List()); n != 0 {
		t.Fatalf("List() after DeleteAll len = %d, want 0", n)
	}
	if _, err := r.Get(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(1) after DeleteAll error = %v, want ErrNotFound", err)
	}
	if id := mustCreate(t, r, getStub("/c")); id != 1 {
		t.Errorf("id after DeleteAll = %d, want 1", id)
	}
}

// --- Get / List / Count ---

func TestGetAndList(t *testing.T) {
	r := New()
	a := mustCreate(t, r, getStub("/a"))
	b := mustCreate(t, r, oneShotStub("/b", 2))

	d, err := r.Get(a)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.ID != a || d.State != stub.StateActive || d.Remaining != nil {
		t.Errorf("unexpected detail: %+v", d)
	}
	if d.Expectation.Path != "/a" || d.Response.Body != "ok" {
		t.Errorf("definition not returned verbatim: %+v", d)
	}

	d, err = r.Get(b)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.Remaining == nil || *d.Remaining != 2 {
		t.Errorf("limited stub Remaining = %v, want 2", d.Remaining)
	}

	list := r.List()
	if len(list) != 2 || list[0].ID != a || list[1].ID != b {
		t.Errorf("List() not in registration order: %+v", list)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}

	if err := r.Delete(a); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(r.List()) != 2 {
		t.Error("List() should keep deleted mocks until DeleteAll")
	}
	if r.Count() != 1 {
		t.Errorf("Count() after delete = %d, want 1", r.Count())
	}
}

// --- FindBestMatch ---

func TestFindBestMatch_SingleMatch(t *testing.T) {
	r := New()
	a := mustCreate(t, r, getStub("/a"))
	b := mustCreate(t, r, getStub("/b"))

	sel, ok := r.FindBestMatch(getRequest("/a"))
	if !ok {
		t.Fatal("FindBestMatch() found nothing")
	}
	if sel.ID != a {
		t.Errorf("selected id = %d, want %d", sel.ID, a)
	}
	if sel.Response.Body != "ok" {
		t.Errorf("unexpected response: %+v", sel.Response)
	}
	if sel.Hits != 1 {
		t.Errorf("Selection.Hits = %d, want 1", sel.Hits)
	}

	if hits, _ := r.Hits(a); hits != 1 {
		t.Errorf("Hits(a) = %d, want 1", hits)
	}
	if hits, _ := r.Hits(b); hits != 0 {
		t.Errorf("Hits(b) = %d, want 0; only the winner's counter moves", hits)
	}
}

func TestFindBestMatch_NoMatch(t *testing.T) {
	r := New()
	mustCreate(t, r, getStub("/a"))
	if _, ok := r.FindBestMatch(getRequest("/nope")); ok {
		t.Error("FindBestMatch() matched a non-matching request")
	}
}

func TestFindBestMatch_MostRecentWins(t *testing.T) {
	r := New()
	first := mustCreate(t, r, getStub("/a"))
	second := mustCreate(t, r, getStub("/a"))
	third := mustCreate(t, r, getStub("/a"))

	sel, ok := r.FindBestMatch(getRequest("/a"))
	if !ok {
		t.Fatal("FindBestMatch() found nothing")
	}
	if sel.ID != third {
		t.Errorf("selected id = %d, want most recent %d (others: %d, %d)", sel.ID, third, first, second)
	}
}

func TestFindBestMatch_LimitedBeforeUnlimited(t *testing.T) {
	r := New()
	limited := mustCreate(t, r, oneShotStub("/a", 1))
	unlimited := mustCreate(t, r, getStub("/a"))

	// The one-shot wins while its budget lasts even though the unlimited
	// mock registered later.
	sel, ok := r.FindBestMatch(getRequest("/a"))
	if !ok || sel.ID != limited {
		t.Fatalf("first request: selected %d, want limited %d", sel.ID, limited)
	}

	// Budget spent: fall back to the unlimited mock.
	sel, ok = r.FindBestMatch(getRequest("/a"))
	if !ok || sel.ID != unlimited {
		t.Fatalf("second request: selected %d, want unlimited %d", sel.ID, unlimited)
	}

	if hits, _ := r.Hits(limited); hits != 1 {
		t.Errorf("Hits(limited) = %d, want 1", hits)
	}
}

func TestFindBestMatch_ExhaustedYieldsNoMatch(t *testing.T) {
	r := New()
	id := mustCreate(t, r, oneShotStub("/a", 2))

	for i := 0; i < 2; i++ {
		if _, ok := r.FindBestMatch(getRequest("/a")); !ok {
			t.Fatalf("request %d should match", i+1)
		}
	}
	if _, ok := r.FindBestMatch(getRequest("/a")); ok {
		t.Error("exhausted mock still matches")
	}
	if hits, _ := r.Hits(id); hits != 2 {
		t.Errorf("Hits() = %d, want 2", hits)
	}

	d, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.Remaining == nil || *d.Remaining != 0 {
		t.Errorf("Remaining = %v, want 0", d.Remaining)
	}
}

func TestFindBestMatch_OneShotConcurrent(t *testing.T) {
	r := New()
	id := mustCreate(t, r, oneShotStub("/a", 1))

	const goroutines = 32
	var wins int64
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.FindBestMatch(getRequest("/a")); ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("one-shot mock served %d requests, want exactly 1", wins)
	}
	if hits, _ := r.Hits(id); hits != 1 {
		t.Errorf("Hits() = %d, want exactly 1", hits)
	}
}

func TestFindBestMatch_OneShotConcurrentWithFallback(t *testing.T) {
	r := New()
	limited := mustCreate(t, r, oneShotStub("/a", 1))
	fallback := mustCreate(t, r, getStub("/a"))

	const goroutines = 32
	var limitedWins, fallbackWins int64
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sel, ok := r.FindBestMatch(getRequest("/a"))
			if !ok {
				return
			}
			switch sel.ID {
			case limited:
				atomic.AddInt64(&limitedWins, 1)
			case fallback:
				atomic.AddInt64(&fallbackWins, 1)
			}
		}()
	}
	wg.Wait()

	if limitedWins != 1 {
		t.Errorf("limited mock served %d requests, want exactly 1", limitedWins)
	}
	if fallbackWins != goroutines-1 {
		t.Errorf("fallback served %d requests, want %d", fallbackWins, goroutines-1)
	}
}

func TestFindBestMatch_CustomPolicy(t *testing.T) {
	// Oldest-first policy inverts the default recency preference.
	oldestFirst := func(a, b Contender) bool { return a.ID < b.ID }

	r := New(WithSelectionPolicy(oldestFirst))
	first := mustCreate(t, r, getStub("/a"))
	mustCreate(t, r, getStub("/a"))

	sel, ok := r.FindBestMatch(getRequest("/a"))
	if !ok || sel.ID != first {
		t.Errorf("selected %d, want oldest %d", sel.ID, first)
	}
}

// --- Verify ---

func TestVerify(t *testing.T) {
	r := New()
	id := mustCreate(t, r, getStub("/a"))
	for i := 0; i < 2; i++ {
		r.FindBestMatch(getRequest("/a"))
	}

	u := func(n uint64) *uint64 { return &n }

	tests := []struct {
		name       string
		req        stub.VerifyRequest
		wantPassed bool
	}{
		{name: "exactly pass", req: stub.VerifyRequest{Exactly: u(2)}, wantPassed: true},
		{name: "exactly fail", req: stub.VerifyRequest{Exactly: u(3)}, wantPassed: false},
		{name: "at least pass", req: stub.VerifyRequest{AtLeast: u(1)}, wantPassed: true},
		{name: "at least fail", req: stub.VerifyRequest{AtLeast: u(5)}, wantPassed: false},
		{name: "at most pass", req: stub.VerifyRequest{AtMost: u(2)}, wantPassed: true},
		{name: "at most fail", req: stub.VerifyRequest{AtMost: u(1)}, wantPassed: false},
		{name: "never fail", req: stub.VerifyRequest{Never: true}, wantPassed: false},
		{name: "default at least once", req: stub.VerifyRequest{}, wantPassed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Verify(id, tt.req)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if res.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v (%s)", res.Passed, tt.wantPassed, res.Message)
			}
			if res.Actual != 2 {
				t.Errorf("Actual = %d, want 2", res.Actual)
			}
			if !res.Passed && res.Message == "" {
				t.Error("failed verification should carry a message")
			}
		})
	}

	if _, err := r.Verify(999, stub.VerifyRequest{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Verify(unknown) error = %v, want ErrNotFound", err)
	}
}

// --- Candidates ---

func TestCandidates(t *testing.T) {
	r := New()
	a := mustCreate(t, r, oneShotStub("/a", 1))
	b := mustCreate(t, r, getStub("/b"))
	c := mustCreate(t, r, getStub("/c"))

	r.FindBestMatch(getRequest("/a")) // exhaust a
	if err := r.Delete(c); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	cands := r.Candidates()
	if len(cands) != 2 {
		t.Fatalf("Candidates() len = %d, want 2 (deleted excluded)", len(cands))
	}
	if cands[0].ID != a || !cands[0].Exhausted {
		t.Errorf("candidate a = %+v, want exhausted", cands[0])
	}
	if cands[1].ID != b || cands[1].Exhausted {
		t.Errorf("candidate b = %+v, want not exhausted", cands[1])
	}
}

// --- Benchmarks ---

func BenchmarkFindBestMatch(b *testing.B) {
	r := New()
	for i := 0; i < 50; i++ {
		s := getStub("/api/resource/" + strconv.Itoa(i))
		if _, err := r.Create(s); err != nil {
			b.Fatalf("Create() error = %v", err)
		}
	}
	req := getRequest("/api/resource/49")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := r.FindBestMatch(req); !ok {
			b.Fatal("expected a match")
		}
	}
}

func BenchmarkFindBestMatchMiss(b *testing.B) {
	r := New()
	for i := 0; i < 50; i++ {
		s := getStub("/api/resource/" + strconv.Itoa(i))
		if _, err := r.Create(s); err != nil {
			b.Fatalf("Create() error = %v", err)
		}
	}
	req := getRequest("/api/other")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := r.FindBestMatch(req); ok {
			b.Fatal("expected no match")
		}
	}
}
