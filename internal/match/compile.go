package match

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/beevik/etree"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/mockbird/mockbird/pkg/stub"
)

// Compile turns an expectation into its clause list. Patterns, expressions
// and expected documents are parsed once here; Evaluate never compiles.
// Clause order is fixed and map-backed fields are walked in sorted key order,
// so the same expectation always yields the same breakdown.
func Compile(e *stub.Expectation) ([]Clause, error) {
	if e == nil {
		return nil, nil
	}
	var clauses []Clause

	if e.Method != "" {
		clauses = append(clauses, methodClause{method: e.Method})
	}
	if e.Path != "" {
		clauses = append(clauses, pathClause{path: e.Path})
	}
	if e.PathContains != "" {
		clauses = append(clauses, pathContainsClause{substr: e.PathContains})
	}
	if e.PathGlob != "" {
		if !doublestar.ValidatePattern(e.PathGlob) {
			return nil, &stub.ValidationError{Field: "pathGlob", Message: fmt.Sprintf("invalid pattern %q", e.PathGlob)}
		}
		clauses = append(clauses, pathGlobClause{pattern: e.PathGlob})
	}
	if e.PathRegex != "" {
		re, err := regexp.Compile(e.PathRegex)
		if err != nil {
			return nil, &stub.ValidationError{Field: "pathRegex", Message: err.Error()}
		}
		clauses = append(clauses, pathRegexClause{expr: e.PathRegex, re: re})
	}

	for _, name := range sortedStringKeys(e.Headers) {
		clauses = append(clauses, headerClause{name: name, value: e.Headers[name]})
	}
	for _, name := range sortedStringKeys(e.HeaderRegexes) {
		pattern := e.HeaderRegexes[name]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &stub.ValidationError{Field: "headerRegexes." + name, Message: err.Error()}
		}
		clauses = append(clauses, headerRegexClause{name: name, expr: pattern, re: re})
	}
	for _, name := range e.HeaderExists {
		clauses = append(clauses, headerExistsClause{name: name})
	}

	for _, name := range sortedStringKeys(e.Query) {
		clauses = append(clauses, queryClause{name: name, value: e.Query[name]})
	}
	for _, name := range sortedStringKeys(e.QueryRegexes) {
		pattern := e.QueryRegexes[name]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &stub.ValidationError{Field: "queryRegexes." + name, Message: err.Error()}
		}
		clauses = append(clauses, queryRegexClause{name: name, expr: pattern, re: re})
	}
	for _, name := range e.QueryExists {
		clauses = append(clauses, queryExistsClause{name: name})
	}

	for _, name := range sortedStringKeys(e.Cookies) {
		clauses = append(clauses, cookieClause{name: name, value: e.Cookies[name]})
	}
	for _, name := range sortedStringKeys(e.CookieRegexes) {
		pattern := e.CookieRegexes[name]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &stub.ValidationError{Field: "cookieRegexes." + name, Message: err.Error()}
		}
		clauses = append(clauses, cookieRegexClause{name: name, expr: pattern, re: re})
	}

	if e.Body != "" {
		clauses = append(clauses, bodyClause{body: e.Body})
	}
	if e.BodyContains != "" {
		clauses = append(clauses, bodyContainsClause{substr: e.BodyContains})
	}
	if e.BodyRegex != "" {
		re, err := regexp.Compile(e.BodyRegex)
		if err != nil {
			return nil, &stub.ValidationError{Field: "bodyRegex", Message: err.Error()}
		}
		clauses = append(clauses, bodyRegexClause{expr: e.BodyRegex, re: re})
	}

	if e.JSONBody != nil {
		norm, err := normalizeJSON(e.JSONBody)
		if err != nil {
			return nil, &stub.ValidationError{Field: "jsonBody", Message: err.Error()}
		}
		clauses = append(clauses, jsonClause{expected: norm, exact: true})
	}
	if e.JSONPartial != nil {
		norm, err := normalizeJSON(e.JSONPartial)
		if err != nil {
			return nil, &stub.ValidationError{Field: "jsonPartial", Message: err.Error()}
		}
		clauses = append(clauses, jsonClause{expected: norm, exact: false})
	}
	for i, cond := range e.JSONPath {
		path, err := jp.ParseString(cond.Expr)
		if err != nil {
			return nil, &stub.ValidationError{Field: fmt.Sprintf("jsonPath[%d].expr", i), Message: err.Error()}
		}
		clauses = append(clauses, jsonPathClause{
			expr:   cond.Expr,
			path:   path,
			exists: cond.Exists,
			equals: cond.Equals,
		})
	}

	if e.XMLBody != "" {
		doc := etree.NewDocument()
		if err := doc.ReadFromString(e.XMLBody); err != nil {
			return nil, &stub.ValidationError{Field: "xmlBody", Message: err.Error()}
		}
		if doc.Root() == nil {
			return nil, &stub.ValidationError{Field: "xmlBody", Message: "document has no root element"}
		}
		clauses = append(clauses, xmlClause{raw: e.XMLBody, canonical: canonicalXML(doc)})
	}

	for _, name := range sortedStringKeys(e.Form) {
		clauses = append(clauses, formClause{name: name, value: e.Form[name]})
	}
	for _, cond := range e.Multipart {
		clauses = append(clauses, multipartClause{name: cond.Name, contains: cond.Contains})
	}

	if e.Expr != "" {
		program, err := compileExpr(e.Expr)
		if err != nil {
			return nil, &stub.ValidationError{Field: "expr", Message: err.Error()}
		}
		clauses = append(clauses, exprClause{expression: e.Expr, program: program})
	}

	return clauses, nil
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeJSON round-trips an expected document through JSON so values built
// in Go code, decoded from YAML, or decoded from JSON all compare the same
// way against request bodies.
func normalizeJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return oj.Parse(b)
}
