package match

import (
	"strings"
	"testing"
)

func TestStringDistance(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     float64
	}{
		{name: "identical", expected: "/api/users", actual: "/api/users", want: 0},
		{name: "both empty", expected: "", actual: "", want: 0},
		{name: "expected empty", expected: "", actual: "abc", want: 1},
		{name: "actual empty", expected: "abc", actual: "", want: 1},
		{name: "completely different same length", expected: "aaaa", actual: "bbbb", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringDistance(tt.expected, tt.actual); got != tt.want {
				t.Errorf("stringDistance(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestStringDistanceOrdering(t *testing.T) {
	// A one-character typo must score closer than a different word.
	typo := stringDistance("/api/users", "/api/user")
	other := stringDistance("/api/users", "/healthz")
	if typo <= 0 || typo >= 1 {
		t.Fatalf("typo distance out of range: %v", typo)
	}
	if typo >= other {
		t.Errorf("typo distance %v should be smaller than %v", typo, other)
	}
}

func TestStringDistanceLargeInputsBounded(t *testing.T) {
	big := strings.Repeat("x", 1<<20)
	d := stringDistance(big, big+"y")
	if d < 0 || d > 1 {
		t.Fatalf("distance out of range: %v", d)
	}
}

func TestJSONDistancePartialSubset(t *testing.T) {
	expected := map[string]any{"a": int64(1)}
	actual := map[string]any{"a": int64(1), "b": int64(2)}

	d, details := jsonDistance(expected, actual, false)
	if d != 0 {
		t.Errorf("partial subset should have distance 0, got %v (%v)", d, details)
	}

	// With exact matching the extra key counts.
	d, _ = jsonDistance(expected, actual, true)
	if d == 0 {
		t.Error("exact match should penalize the extra key")
	}
}

func TestJSONDistanceMismatchedLeaf(t *testing.T) {
	expected := map[string]any{"a": int64(1), "b": int64(3)}
	actual := map[string]any{"a": int64(1), "b": int64(2)}

	d, details := jsonDistance(expected, actual, false)
	if d != 0.5 {
		t.Errorf("one of two leaves wrong: want 0.5, got %v", d)
	}
	if len(details) != 1 || details[0] != "b: expected 3, got 2" {
		t.Errorf("unexpected details: %v", details)
	}
}

func TestJSONDistanceMissingLeaf(t *testing.T) {
	expected := map[string]any{"a": int64(1), "b": int64(2)}
	actual := map[string]any{"a": int64(1)}

	d, details := jsonDistance(expected, actual, false)
	if d != 0.5 {
		t.Errorf("want 0.5, got %v", d)
	}
	if len(details) != 1 {
		t.Fatalf("want one detail, got %v", details)
	}
}

func TestJSONDistanceNestedArrays(t *testing.T) {
	expected := map[string]any{
		"items": []any{
			map[string]any{"id": int64(1)},
			map[string]any{"id": int64(2)},
		},
	}
	actual := map[string]any{
		"items": []any{
			map[string]any{"id": int64(1)},
			map[string]any{"id": int64(9)},
		},
	}

	d, _ := jsonDistance(expected, actual, false)
	if d != 0.5 {
		t.Errorf("one of two leaves wrong: want 0.5, got %v", d)
	}
}

func TestJSONDistanceTypeMismatch(t *testing.T) {
	expected := map[string]any{"a": map[string]any{"b": int64(1), "c": int64(2)}}
	actual := map[string]any{"a": "flat"}

	d, _ := jsonDistance(expected, actual, false)
	if d != 1 {
		t.Errorf("all leaves under a failed object should fail: want 1, got %v", d)
	}
}

func TestValuesEqualCoercion(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{name: "int64 vs float64", expected: int64(3), actual: float64(3), want: true},
		{name: "int vs int64", expected: int(7), actual: int64(7), want: true},
		{name: "float mismatch", expected: float64(3), actual: float64(3.5), want: false},
		{name: "string equal", expected: "x", actual: "x", want: true},
		{name: "string vs number", expected: "3", actual: int64(3), want: false},
		{name: "bool equal", expected: true, actual: true, want: true},
		{name: "nil vs nil", expected: nil, actual: nil, want: true},
		{name: "nil vs value", expected: nil, actual: int64(0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valuesEqual(tt.expected, tt.actual); got != tt.want {
				t.Errorf("valuesEqual(%v, %v) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}
