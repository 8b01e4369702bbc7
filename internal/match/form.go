package match

import (
	"fmt"
	"strings"
)

type formClause struct {
	name  string
	value string
}

func (c formClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindForm,
		Target:   c.name,
		Expected: c.value,
	}
	form, ok := r.Form()
	if !ok {
		res.Distance = maxDistance
		res.Details = []string{"body is not form-encoded"}
		return res
	}
	got, present := form[c.name]
	if !present || len(got) == 0 {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("form field %q not present", c.name)}
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
	res.Details = []string{fmt.Sprintf("form field %q: expected %q, got %q", c.name, c.value, res.Actual)}
	return res
}

type multipartClause struct {
	name     string
	contains string
}

func (c multipartClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindMultipart,
		Target:   c.name,
		Expected: c.contains,
	}
	parts, ok := r.MultipartParts()
	if !ok {
		res.Distance = maxDistance
		res.Details = []string{"body is not multipart"}
		return res
	}
	got, present := parts[c.name]
	if !present {
		res.Distance = maxDistance
		res.Details = []string{fmt.Sprintf("multipart field %q not present", c.name)}
		return res
	}
	if len(got) > 0 {
		res.Actual = truncateRunes(got[0], renderCap)
	}
	if c.contains == "" {
		res.Matched = true
		return res
	}
	for _, v := range got {
		if strings.Contains(v, c.contains) {
			res.Matched = true
			res.Actual = truncateRunes(v, renderCap)
			return res
		}
	}
	res.Distance = maxDistance
	res.Details = []string{fmt.Sprintf("multipart field %q does not contain %q", c.name, c.contains)}
	return res
}
