package match

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// exprEnv is the evaluation environment for expression clauses. Header keys
// are canonical (Content-Type); multi-valued fields carry their first value.
type exprEnv struct {
	Method  string            `expr:"method"`
	Path    string            `expr:"path"`
	Body    string            `expr:"body"`
	Headers map[string]string `expr:"headers"`
	Query   map[string]string `expr:"query"`
	Cookies map[string]string `expr:"cookies"`
}

func compileExpr(expression string) (*vm.Program, error) {
	return expr.Compile(expression, expr.Env(exprEnv{}), expr.AsBool())
}

type exprClause struct {
	expression string
	program    *vm.Program
}

func (c exprClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindExpr,
		Expected: c.expression,
	}
	env := exprEnv{
		Method:  r.Method,
		Path:    r.Path,
		Body:    string(r.Body),
		Headers: make(map[string]string, len(r.Header)),
		Query:   make(map[string]string, len(r.Query)),
		Cookies: r.Cookies(),
	}
	for k, v := range r.Header {
		if len(v) > 0 {
			env.Headers[k] = v[0]
		}
	}
	for k, v := range r.Query {
		if len(v) > 0 {
			env.Query[k] = v[0]
		}
	}

	out, err := expr.Run(c.program, env)
	if err != nil {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("expression error: %v", err)}
		return res
	}
	ok, _ := out.(bool)
	if ok {
		res.Matched = true
		res.Actual = "true"
		return res
	}
	res.Actual = "false"
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("expression %q evaluated to false", c.expression)}
	return res
}
