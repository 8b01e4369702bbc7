package match

import (
	"fmt"
	"regexp"
)

type queryClause struct {
	name  string
	value string
}

func (c queryClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindQuery,
		Target:   c.name,
		Expected: c.value,
	}
	got, ok := r.Query[c.name]
	if !ok || len(got) == 0 {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("query parameter %q not present", c.name)}
		return res
	}
	res.Actual = got[0]
	best := maxDistance
	for _, v := range got {
		if v == c.value {
			res.Matched = true
			res.Actual = v
			return res
		}
		if d := stringDistance(c.value, v); d < best {
			best = d
			res.Actual = v
		}
	}
	res.Distance = best
	res.Details = []string{fmt.Sprintf("query parameter %q: expected %q, got %q", c.name, c.value, res.Actual)}
	return res
}

type queryRegexClause struct {
	name string
	expr string
	re   *regexp.Regexp
}

func (c queryRegexClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindQueryRegex,
		Target:   c.name,
		Expected: c.expr,
	}
	got, ok := r.Query[c.name]
	if !ok || len(got) == 0 {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("query parameter %q not present", c.name)}
		return res
	}
	res.Actual = got[0]
	for _, v := range got {
		if c.re.MatchString(v) {
			res.Matched = true
			res.Actual = v
			return res
		}
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("query parameter %q: %q does not match regex %q", c.name, res.Actual, c.expr)}
	return res
}

type queryExistsClause struct {
	name string
}

func (c queryExistsClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:   KindQueryExists,
		Target: c.name,
	}
	if got, ok := r.Query[c.name]; ok {
		res.Matched = true
		if len(got) > 0 {
			res.Actual = got[0]
		}
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("query parameter %q not present", c.name)}
	return res
}
