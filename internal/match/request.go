package match

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/ohler55/ojg/oj"
)

// Request is an immutable snapshot of one inbound HTTP request, with the body
// already read and typed views (JSON, form, multipart) decoded on first use.
// A snapshot is evaluated by one goroutine at a time; the lazy decoders are
// not synchronized.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    []byte
	cookies map[string]string

	// ContentType is the media type without parameters, e.g.
	// "multipart/form-data".
	ContentType string
	// contentParams holds media type parameters (the multipart boundary).
	contentParams map[string]string

	jsonParsed bool
	jsonValue  any
	jsonOK     bool

	formParsed bool
	formValues url.Values
	formOK     bool

	partsParsed bool
	parts       map[string][]string
	partsOK     bool
}

// NewRequest builds a snapshot from an inbound request whose body has already
// been read (the dispatcher reads it once, bounded by the configured cap).
func NewRequest(r *http.Request, body []byte) *Request {
	req := &Request{
		Method:  strings.ToUpper(r.Method),
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Header:  r.Header,
		Body:    body,
		cookies: make(map[string]string),
	}
	for _, c := range r.Cookies() {
		if _, seen := req.cookies[c.Name]; !seen {
			req.cookies[c.Name] = c.Value
		}
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mediaType, params, err := mime.ParseMediaType(ct); err == nil {
			req.ContentType = mediaType
			req.contentParams = params
		}
	}
	return req
}

// Cookie returns the named cookie value.
func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.cookies[name]
	return v, ok
}

// Cookies returns a copy of the request cookies keyed by name.
func (r *Request) Cookies() map[string]string {
	out := make(map[string]string, len(r.cookies))
	for k, v := range r.cookies {
		out[k] = v
	}
	return out
}

// JSON returns the body decoded as JSON. ok is false when the body is empty
// or not valid JSON; a failed decode is a clause-level non-match, never an
// error.
func (r *Request) JSON() (any, bool) {
	if !r.jsonParsed {
		r.jsonParsed = true
		if len(bytes.TrimSpace(r.Body)) > 0 {
			if v, err := oj.Parse(r.Body); err == nil {
				r.jsonValue = v
				r.jsonOK = true
			}
		}
	}
	return r.jsonValue, r.jsonOK
}

// Form returns the body decoded as application/x-www-form-urlencoded. The
// content type must be form-urlencoded (or absent).
func (r *Request) Form() (url.Values, bool) {
	if !r.formParsed {
		r.formParsed = true
		if r.ContentType == "" || r.ContentType == "application/x-www-form-urlencoded" {
			if v, err := url.ParseQuery(string(r.Body)); err == nil {
				r.formValues = v
				r.formOK = true
			}
		}
	}
	return r.formValues, r.formOK
}

// MultipartParts returns the decoded multipart/form-data parts, keyed by part
// name; repeated names accumulate.
func (r *Request) MultipartParts() (map[string][]string, bool) {
	if !r.partsParsed {
		r.partsParsed = true
		r.parts, r.partsOK = r.decodeMultipart()
	}
	return r.parts, r.partsOK
}

func (r *Request) decodeMultipart() (map[string][]string, bool) {
	if !strings.HasPrefix(r.ContentType, "multipart/") {
		return nil, false
	}
	boundary := r.contentParams["boundary"]
	if boundary == "" {
		return nil, false
	}

	parts := make(map[string][]string)
	mr := multipart.NewReader(bytes.NewReader(r.Body), boundary)
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return parts, true
		}
		if err != nil {
			// Malformed payload: every part clause treats it as a non-match.
			return nil, false
		}
		name := p.FormName()
		var buf bytes.Buffer
		_, copyErr := buf.ReadFrom(p)
		_ = p.Close()
		if copyErr != nil {
			return nil, false
		}
		if name != "" {
			parts[name] = append(parts[name], buf.String())
		}
	}
}
