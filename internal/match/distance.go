package match

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// distanceCap bounds the inputs to the edit-distance computation. Levenshtein
// is quadratic; clauses can see multi-megabyte bodies, so both sides are
// truncated to this many runes before scoring. Relative ordering is all the
// diagnostic ranking needs.
const distanceCap = 1024

// stringDistance returns the normalized edit distance between two strings:
// 0 for identical values, 1 for a complete mismatch or an absent value.
func stringDistance(expected, actual string) float64 {
	if expected == actual {
		return 0
	}
	expected = truncateRunes(expected, distanceCap)
	actual = truncateRunes(actual, distanceCap)

	maxLen := utf8.RuneCountInString(expected)
	if n := utf8.RuneCountInString(actual); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}

	d := float64(levenshtein.ComputeDistance(expected, actual)) / float64(maxLen)
	if d > maxDistance {
		d = maxDistance
	}
	return d
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// jsonDistance walks expected against actual and returns the fraction of
// expected leaf values that are missing or mismatched, along with a detail
// line per failure. In exact mode, keys present in the actual document but
// not expected also count against the score.
func jsonDistance(expected, actual any, exact bool) (float64, []string) {
	w := &jsonWalk{exact: exact}
	w.walk("$", expected, actual, true)
	if w.total == 0 {
		return 0, nil
	}
	d := float64(w.failed) / float64(w.total)
	if d > maxDistance {
		d = maxDistance
	}
	return d, w.details
}

type jsonWalk struct {
	exact   bool
	total   int
	failed  int
	details []string
}

func (w *jsonWalk) walk(path string, expected, actual any, present bool) {
	switch exp := expected.(type) {
	case map[string]any:
		actMap, ok := actual.(map[string]any)
		if !present || !ok {
			w.fail(fmt.Sprintf("%s: expected object, got %s", displayPath(path), typeName(actual, present)), leafCount(exp))
			return
		}
		for _, k := range sortedKeys(exp) {
			child, childPresent := actMap[k]
			w.walk(path+"."+k, exp[k], child, childPresent)
		}
		if w.exact {
			for _, k := range sortedKeys(actMap) {
				if _, expectedToo := exp[k]; !expectedToo {
					n := leafCount(actMap[k])
					w.total += n
					w.failed += n
					w.details = append(w.details, fmt.Sprintf("%s: unexpected key", displayPath(path+"."+k)))
				}
			}
		}
	case []any:
		actArr, ok := actual.([]any)
		if !present || !ok {
			w.fail(fmt.Sprintf("%s: expected array, got %s", displayPath(path), typeName(actual, present)), leafCount(exp))
			return
		}
		for i, v := range exp {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			if i < len(actArr) {
				w.walk(elemPath, v, actArr[i], true)
			} else {
				w.walk(elemPath, v, nil, false)
			}
		}
		if w.exact && len(actArr) > len(exp) {
			for i := len(exp); i < len(actArr); i++ {
				n := leafCount(actArr[i])
				w.total += n
				w.failed += n
				w.details = append(w.details, fmt.Sprintf("%s[%d]: unexpected element", displayPath(path), i))
			}
		}
	default:
		w.total++
		if !present {
			w.failed++
			w.details = append(w.details, fmt.Sprintf("%s: missing (expected %s)", displayPath(path), renderScalar(expected)))
			return
		}
		if !valuesEqual(expected, actual) {
			w.failed++
			w.details = append(w.details, fmt.Sprintf("%s: expected %s, got %s", displayPath(path), renderScalar(expected), renderScalar(actual)))
		}
	}
}

func (w *jsonWalk) fail(detail string, leaves int) {
	if leaves == 0 {
		leaves = 1
	}
	w.total += leaves
	w.failed += leaves
	w.details = append(w.details, detail)
}

// leafCount counts the scalar leaves in a JSON value; empty containers count
// as one so they still contribute to the score.
func leafCount(v any) int {
	switch t := v.(type) {
	case map[string]any:
		n := 0
		for _, child := range t {
			n += leafCount(child)
		}
		if n == 0 {
			return 1
		}
		return n
	case []any:
		n := 0
		for _, child := range t {
			n += leafCount(child)
		}
		if n == 0 {
			return 1
		}
		return n
	default:
		return 1
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// displayPath strips the "$." root so details read "b: expected 3, got 2".
func displayPath(path string) string {
	if path == "$" {
		return "$"
	}
	if len(path) > 2 && path[:2] == "$." {
		return path[2:]
	}
	if len(path) > 1 && path[0] == '$' {
		return path[1:]
	}
	return path
}

func typeName(v any, present bool) string {
	if !present {
		return "nothing"
	}
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

func renderScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// valuesEqual compares two scalar JSON values with numeric type coercion, so
// an int64 from one decoder equals a float64 from another.
func valuesEqual(expected, actual any) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if en, ok := toFloat64(expected); ok {
		if an, ok := toFloat64(actual); ok {
			return en == an
		}
		return false
	}

	switch e := expected.(type) {
	case string:
		a, ok := actual.(string)
		return ok && e == a
	case bool:
		a, ok := actual.(bool)
		return ok && e == a
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
