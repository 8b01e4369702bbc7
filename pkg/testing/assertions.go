package testing

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/mockbird/mockbird/pkg/journal"
)

// AssertJSONBody asserts that the entry's body equals the expected JSON,
// ignoring key order. expected may be a raw JSON string, []byte, or any Go
// value.
func AssertJSONBody(t testing.TB, e *journal.Entry, expected any) {
	t.Helper()

	want, err := jsonDocument("AssertJSONBody", expected)
	if err != nil {
		t.Error(err)
		return
	}
	// Round-trip Go values through encoding/json so numbers compare as
	// float64 on both sides.
	data, err := json.Marshal(want)
	if err != nil {
		t.Errorf("AssertJSONBody: %v", err)
		return
	}
	var wantNorm any
	if err := json.Unmarshal(data, &wantNorm); err != nil {
		t.Errorf("AssertJSONBody: %v", err)
		return
	}

	var got any
	if err := json.Unmarshal([]byte(e.Body), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, e.Body)
		return
	}

	if !reflect.DeepEqual(got, wantNorm) {
		wantPretty, _ := json.MarshalIndent(wantNorm, "", "  ")
		gotPretty, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match\nexpected:\n%s\nactual:\n%s", wantPretty, gotPretty)
	}
}

// AssertBody asserts that the entry's raw body equals expected.
func AssertBody(t testing.TB, e *journal.Entry, expected string) {
	t.Helper()

	if e.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, e.Body)
	}
}

// AssertBodyContains asserts that the entry's body contains the substring.
func AssertBodyContains(t testing.TB, e *journal.Entry, substr string) {
	t.Helper()

	if !strings.Contains(e.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, e.Body)
	}
}

// AssertHeader asserts that the request carried the header with the expected
// value. Names are case-insensitive.
func AssertHeader(t testing.TB, e *journal.Entry, name, expected string) {
	t.Helper()

	values, ok := headerValues(e, name)
	if !ok {
		t.Errorf("request does not have header %q", name)
		return
	}
	for _, v := range values {
		if v == expected {
			return
		}
	}
	t.Errorf("header %q mismatch\nexpected: %q\nactual: %q", name, expected, values)
}

// AssertHeaderExists asserts that the request carried the header, any value.
func AssertHeaderExists(t testing.TB, e *journal.Entry, name string) {
	t.Helper()

	if _, ok := headerValues(e, name); !ok {
		t.Errorf("request does not have header %q", name)
	}
}

// AssertQueryParam asserts that the request carried the query parameter with
// the expected value.
func AssertQueryParam(t testing.TB, e *journal.Entry, name, expected string) {
	t.Helper()

	params, _ := url.ParseQuery(e.QueryString)
	if !params.Has(name) {
		t.Errorf("request does not have query parameter %q", name)
		return
	}
	if got := params.Get(name); got != expected {
		t.Errorf("query parameter %q mismatch\nexpected: %q\nactual: %q", name, expected, got)
	}
}

// AssertQueryParamExists asserts that the request carried the query
// parameter, any value.
func AssertQueryParamExists(t testing.TB, e *journal.Entry, name string) {
	t.Helper()

	params, _ := url.ParseQuery(e.QueryString)
	if !params.Has(name) {
		t.Errorf("request does not have query parameter %q", name)
	}
}

// JSONField extracts a field from the entry's JSON body using dot notation,
// e.g. "user.address.city". Returns nil when the body is not JSON or the
// path does not resolve.
func JSONField(e *journal.Entry, field string) any {
	var data map[string]any
	if err := json.Unmarshal([]byte(e.Body), &data); err != nil {
		return nil
	}

	var current any = data
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}

// AssertJSONField asserts that a dot-notation field in the entry's JSON body
// has the expected value.
func AssertJSONField(t testing.TB, e *journal.Entry, field string, expected any) {
	t.Helper()

	actual := JSONField(e, field)
	if actual == nil {
		t.Errorf("JSON field %q not found in request body: %s", field, e.Body)
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			field, expected, expected, actual, actual)
	}
}

func headerValues(e *journal.Entry, name string) ([]string, bool) {
	if values, ok := e.Headers[http.CanonicalHeaderKey(name)]; ok && len(values) > 0 {
		return values, true
	}
	for k, values := range e.Headers {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return values, true
		}
	}
	return nil, false
}
