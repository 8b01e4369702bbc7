package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

type xmlClause struct {
	raw       string
	canonical string
}

func (c xmlClause) Evaluate(r *Request) Result {
	res := Result{
		Kind:     KindXMLBody,
		Expected: truncateRunes(c.raw, renderCap),
		Actual:   truncateRunes(string(r.Body), renderCap),
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(r.Body); err != nil || doc.Root() == nil {
		res.Distance = maxDistance
		res.Details = []string{"body is not valid XML"}
		return res
	}
	actual := canonicalXML(doc)
	if actual == c.canonical {
		res.Matched = true
		return res
	}
	res.Distance = maxDistance
	res.Details = []string{"XML documents differ"}
	return res
}

// canonicalXML renders a document with sorted attributes and trimmed text so
// two structurally equal documents compare byte-equal.
func canonicalXML(doc *etree.Document) string {
	root := doc.Root()
	if root == nil {
		return ""
	}
	var sb strings.Builder
	canonicalElement(&sb, root)
	return sb.String()
}

func canonicalElement(sb *strings.Builder, el *etree.Element) {
	sb.WriteByte('<')
	sb.WriteString(el.FullTag())
	attrs := make([]etree.Attr, len(el.Attr))
	copy(attrs, el.Attr)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].FullKey() < attrs[j].FullKey() })
	for _, a := range attrs {
		fmt.Fprintf(sb, " %s=%q", a.FullKey(), a.Value)
	}
	sb.WriteByte('>')
	if text := strings.TrimSpace(el.Text()); text != "" {
		sb.WriteString(text)
	}
	for _, child := range el.ChildElements() {
		canonicalElement(sb, child)
	}
	sb.WriteString("</")
	sb.WriteString(el.FullTag())
	sb.WriteByte('>')
}
