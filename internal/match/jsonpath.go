package match

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

type jsonPathClause struct {
	expr   string
	path   jp.Expr
	exists *bool
	equals any
}

func (c jsonPathClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:   KindJSONPath,
		Target: c.expr,
	}
	doc, ok := r.JSON()
	if !ok {
		res.Distance = maxDistance
		res.Details = []string{"body is not valid JSON"}
		return res
	}
	results := c.path.Get(doc)

	switch {
	case c.equals != nil:
		res.Expected = renderScalar(c.equals)
		if len(results) == 0 {
			res.Distance = maxDistance
			res.Details = []string{fmt.Sprintf("jsonpath %q matched nothing", c.expr)}
			return res
		}
		res.Actual = renderScalar(results[0])
		for _, v := range results {
			if valuesEqual(c.equals, v) {
				res.Matched = true
				res.Actual = renderScalar(v)
				return res
			}
		}
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("jsonpath %q: expected %s, got %s", c.expr, res.Expected, res.Actual)}
		return res

	case c.exists != nil && !*c.exists:
		res.Expected = "absent"
		if len(results) == 0 {
			res.Matched = true
			return res
		}
		res.Actual = renderScalar(results[0])
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("jsonpath %q matched %d value(s), expected none", c.expr, len(results))}
		return res

	default:
		res.Expected = "present"
		if len(results) > 0 {
			res.Matched = true
			res.Actual = renderScalar(results[0])
			return res
		}
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("jsonpath %q matched nothing", c.expr)}
		return res
	}
}
