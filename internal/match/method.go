package match

import "strings"

type methodClause struct {
	method string
}

func (c methodClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindMethod,
		Expected: c.method,
		Actual:   r.Method,
	}
	if strings.EqualFold(c.method, r.Method) {
		res.Matched = true
		return res
	}
	res.Distance = stringDistance(strings.ToUpper(c.method), r.Method)
	return res
}
