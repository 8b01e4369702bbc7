// Package testing is the in-test SDK for mockbird. It stands up a mock
// server scoped to the test, registers mocks through a fluent builder, and
// verifies calls when the test is done.
//
// Import it under an alias, since it shares its name with the standard
// library:
//
//	import mockbird "github.com/mockbird/mockbird/pkg/testing"
//
// # Basic usage
//
// Get leases a server from a shared pool and returns it automatically when
// the test finishes:
//
//	func TestCheckout(t *testing.T) {
//	    srv := mockbird.Get(t)
//
//	    payment := srv.Mock().
//	        Method("POST").
//	        Path("/v1/charges").
//	        JSONPartial(`{"currency": "eur"}`).
//	        ReplyJSON(201, map[string]any{"id": "ch_1", "status": "succeeded"}).
//	        Register()
//
//	    svc := checkout.New(srv.URL())
//	    if err := svc.Charge(ctx, order); err != nil {
//	        t.Fatal(err)
//	    }
//
//	    payment.AssertHits(t, 1)
//	}
//
// New starts a dedicated instance instead of a pooled one; NewRemote
// attaches to an external server addressed by MOCKBIRD_HOST and
// MOCKBIRD_PORT. When either variable is set, Get switches to remote mode
// too, so a suite can be pointed at a standalone server without code
// changes.
//
// # Matching
//
// Builder methods mirror the expectation clauses: method, exact path, glob,
// regex, headers, query parameters, cookies, raw/JSON/XML/form bodies,
// JSONPath conditions and expr-lang expressions. All clauses must hold for
// a mock to serve a request. When no mock matches, the server answers 404
// with a diagnosis of the nearest misses, which shows up in test logs via
// the request journal.
//
// Limited mocks serve a fixed number of times and then stop matching:
//
//	srv.Mock().Path("/token").Once().ReplyJSON(200, tok).Register()
//
// # Assertions
//
// The *Mock handle checks call counts server-side:
//
//	m.Assert(t)          // called at least once
//	m.AssertHits(t, 3)   // called exactly 3 times
//	m.AssertNotCalled(t) // never called
//
// For payload checks, walk the journal (newest first):
//
//	reqs := srv.Requests()
//	mockbird.AssertJSONField(t, reqs[0], "user.id", "u-1")
//	mockbird.AssertHeader(t, reqs[0], "Authorization", "Bearer test")
package testing
