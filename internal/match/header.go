package match

import (
	"fmt"
	"regexp"
)

type headerClause struct {
	name  string
	value string
}

func (c headerClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindHeader,
		Target:   c.name,
		Expected: c.value,
	}
	got := r.Header.Values(c.name)
	if len(got) == 0 {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("header %q not present", c.name)}
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
	res.Details = []string{fmt.Sprintf("header %q: expected %q, got %q", c.name, c.value, res.Actual)}
	return res
}

type headerRegexClause struct {
	name string
	expr string
	re   *regexp.Regexp
}

func (c headerRegexClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindHeaderRegex,
		Target:   c.name,
		Expected: c.expr,
	}
	got := r.Header.Values(c.name)
	if len(got) == 0 {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("header %q not present", c.name)}
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
	res.Details = []string{fmt.Sprintf("header %q: %q does not match regex %q", c.name, res.Actual, c.expr)}
	return res
}

type headerExistsClause struct {
	name string
}

func (c headerExistsClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:   KindHeaderExists,
		Target: c.name,
	}
	if got := r.Header.Values(c.name); len(got) > 0 {
		res.Matched = true
		res.Actual = got[0]
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("header %q not present", c.name)}
	return res
}
