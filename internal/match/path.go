package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type pathClause struct {
	path string
}

func (c pathClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindPath,
		Expected: c.path,
		Actual:   r.Path,
	}
	if c.path == r.Path {
		res.Matched = true
		return res
	}
	res.Distance = stringDistance(c.path, r.Path)
	return res
}

type pathContainsClause struct {
	substr string
}

func (c pathContainsClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindPathContains,
		Expected: c.substr,
		Actual:   r.Path,
	}
	if strings.Contains(r.Path, c.substr) {
		res.Matched = true
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("path %q does not contain %q", r.Path, c.substr)}
	return res
}

type pathGlobClause struct {
	pattern string
}

func (c pathGlobClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindPathGlob,
		Expected: c.pattern,
		Actual:   r.Path,
	}
	ok, err := doublestar.Match(c.pattern, r.Path)
	if err == nil && ok {
		res.Matched = true
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("path %q does not match pattern %q", r.Path, c.pattern)}
	return res
}

type pathRegexClause struct {
	expr string
	re   *regexp.Regexp
}

func (c pathRegexClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindPathRegex,
		Expected: c.expr,
		Actual:   r.Path,
	}
	if c.re.MatchString(r.Path) {
		res.Matched = true
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("path %q does not match regex %q", r.Path, c.expr)}
	return res
}
