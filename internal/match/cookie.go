package match

import (
	"fmt"
	"regexp"
)

type cookieClause struct {
	name  string
	value string
}

func (c cookieClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindCookie,
		Target:   c.name,
		Expected: c.value,
	}
	got, ok := r.Cookie(c.name)
	if !ok {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("cookie %q not present", c.name)}
		return res
	}
	res.Actual = got
	if got == c.value {
		res.Matched = true
		return res
	}
	res.Distance = stringDistance(c.value, got)
	res.Details = []string{fmt.Sprintf("cookie %q: expected %q, got %q", c.name, c.value, got)}
	return res
}

type cookieRegexClause struct {
	name string
	expr string
	re   *regexp.Regexp
}

func (c cookieRegexClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindCookieRegex,
		Target:   c.name,
		Expected: c.expr,
	}
	got, ok := r.Cookie(c.name)
	if !ok {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("cookie %q not present", c.name)}
		return res
	}
	res.Actual = got
	if c.re.MatchString(got) {
		res.Matched = true
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("cookie %q: %q does not match regex %q", c.name, got, c.expr)}
	return res
}
