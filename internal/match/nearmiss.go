package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultNearMissLimit is how many ranked candidates a diagnostic reports
// when the caller does not say otherwise.
const DefaultNearMissLimit = 3

// Candidate is a registered mock as the diagnostic engine sees it.
// Exhausted marks a mock whose response limit is spent; it still ranks, so a
// perfect-but-used-up mock shows at the top of the report.
type Candidate struct {
	ID        int
	Name      string
	Exhausted bool
	Clauses   []Clause
}

// NearMiss is one ranked candidate in a no-match diagnostic.
type NearMiss struct {
	MockID   int      `json:"mockId"`
	MockName string   `json:"mockName,omitempty"`
	Distance float64  `json:"distance"`
	Reason   string   `json:"reason"`
	Clauses  []Result `json:"clauses"`
}

// Collect evaluates every candidate against the request with a full
// breakdown and returns the closest limit candidates, ordered by ascending
// total distance with ties broken by ascending mock id. It is read-only:
// hit counters and budgets are untouched. Only called on the no-match path.
func Collect(candidates []Candidate, r *Request, limit int) []NearMiss {
	if limit <= 0 {
		limit = DefaultNearMissLimit
	}

	misses := make([]NearMiss, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Clauses) == 0 && !c.Exhausted {
			continue
		}
		breakdown := Breakdown(c.Clauses, r)
		nm := NearMiss{
			MockID:   c.ID,
			MockName: c.Name,
			Distance: breakdown.TotalDistance,
			Clauses:  breakdown.Clauses,
		}
		attachDiffs(nm.Clauses)
		if breakdown.Matched && c.Exhausted {
			nm.Reason = "all clauses matched, but the response limit was reached"
		} else {
			nm.Reason = renderReason(nm.Clauses)
		}
		misses = append(misses, nm)
	}

	sort.SliceStable(misses, func(i, j int) bool {
		if misses[i].Distance != misses[j].Distance {
			return misses[i].Distance < misses[j].Distance
		}
		return misses[i].MockID < misses[j].MockID
	})

	if len(misses) > limit {
		misses = misses[:limit]
	}
	return misses
}

// diffKinds are the clauses whose expected/actual pairs are worth a
// character-level diff in the report.
var diffKinds = map[string]bool{
	KindBody:        true,
	KindJSONBody:    true,
	KindJSONPartial: true,
	KindXMLBody:     true,
}

func attachDiffs(clauses []Result) {
	for i := range clauses {
		c := &clauses[i]
		if c.Matched || !diffKinds[c.Kind] {
			continue
		}
		if c.Expected == "" || c.Actual == "" {
			continue
		}
		if len(c.Expected) > renderCap || len(c.Actual) > renderCap {
			continue
		}
		dmp := diffmatchpatch.New()
		c.Diff = dmp.PatchToText(dmp.PatchMake(c.Expected, c.Actual))
	}
}

// renderReason explains why a candidate failed: which clauses matched, and
// the first one that did not.
func renderReason(clauses []Result) string {
	if len(clauses) == 0 {
		return "no clauses to compare"
	}

	var matched []string
	var firstMiss *Result
	for i := range clauses {
		if clauses[i].Matched {
			matched = append(matched, clauseLabel(&clauses[i]))
		} else if firstMiss == nil {
			firstMiss = &clauses[i]
		}
	}

	if firstMiss == nil {
		return "all clauses matched"
	}
	if len(matched) == 0 {
		return formatMiss(firstMiss)
	}
	return joinLabels(matched) + " matched, but " + formatMiss(firstMiss)
}

func clauseLabel(c *Result) string {
	if c.Target != "" {
		return fmt.Sprintf("%s %q", c.Kind, c.Target)
	}
	return c.Kind
}

func formatMiss(c *Result) string {
	if len(c.Details) > 0 {
		return c.Details[0]
	}
	switch c.Kind {
	case KindMethod:
		return fmt.Sprintf("method expected %q, got %q", c.Expected, c.Actual)
	case KindPath:
		return fmt.Sprintf("path expected %q, got %q", c.Expected, c.Actual)
	case KindBody:
		return fmt.Sprintf("body expected %q, got %q", truncateRunes(c.Expected, 200), truncateRunes(c.Actual, 200))
	default:
		return clauseLabel(c) + " did not match"
	}
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 1:
		return labels[0]
	case 2:
		return labels[0] + " and " + labels[1]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + ", and " + labels[len(labels)-1]
	}
}
