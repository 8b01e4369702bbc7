package match

import (
	"fmt"
	"regexp"
	"strings"
)

type bodyClause struct {
	body string
}

func (c bodyClause) Evaluate(r *Request) Result {
	actual := string(r.Body)
	res := Result{
		Kind:     KindBody,
		Expected: c.body,
		Actual:   actual,
	}
	if c.body == actual {
		res.Matched = true
		return res
	}
	res.Distance = stringDistance(c.body, actual)
	return res
}

type bodyContainsClause struct {
	substr string
}

func (c bodyContainsClause) Evaluate(r *Request) Result {
	actual := string(r.Body)
	res := Result{
		Kind:     KindBodyContains,
		Expected: c.substr,
		Actual:   actual,
	}
	if strings.Contains(actual, c.substr) {
		res.Matched = true
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("body does not contain %q", c.substr)}
	return res
}

type bodyRegexClause struct {
	expr string
	re   *regexp.Regexp
}

func (c bodyRegexClause) Evaluate(r *Request) Result {
	actual := string(r.Body)
	res := Result{
		Kind:     KindBodyRegex,
		Expected: c.expr,
		Actual:   actual,
	}
	if c.re.MatchString(actual) {
		res.Matched = true
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("body does not match regex %q", c.expr)}
	return res
}
