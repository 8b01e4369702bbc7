package match

import (
	"github.com/ohler55/ojg/oj"
)

// renderCap bounds rendered document snippets in diagnostic output.
const renderCap = 2048

type jsonClause struct {
	expected any
	exact    bool
}

func (c jsonClause) Evaluate(r *Request) Result {
	kind := KindJSONPartial
	if c.exact {
		kind = KindJSONBody
	}
	res := Result{
		Kind:     kind,
		Expected: renderJSON(c.expected),
	}
	doc, ok := r.JSON()
	if !ok {
		res.Actual = truncateRunes(string(r.Body), renderCap)
		res.Distance = maxDistance
		res.Details = []string{"body is not valid JSON"}
		return res
	}
	res.Actual = renderJSON(doc)
	d, details := jsonDistance(c.expected, doc, c.exact)
	if d == 0 {
		res.Matched = true
		return res
	}
	res.Distance = d
	res.Details = details
	return res
}

func renderJSON(v any) string {
	return truncateRunes(oj.JSON(v), renderCap)
}
