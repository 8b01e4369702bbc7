package stub

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ResponseSpec describes the canned response a stub returns on match.
type ResponseSpec struct {
	// Status is the HTTP status code. Zero defaults to 200 at dispatch time.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`
	// Headers are set on the response verbatim. Keys are case-insensitive
	// per HTTP semantics; the last write wins for duplicate keys.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Body is the response body. In JSON and YAML documents it may be given
	// either as a string or as a structured value; structured values are
	// stored as their compact JSON encoding.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
	// DelayMs delays the response by the given number of milliseconds
	// before the status line is written (simulated latency).
	DelayMs int `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// StatusOrDefault returns the configured status code, defaulting to 200.
func (r *ResponseSpec) StatusOrDefault() int {
	if r == nil || r.Status == 0 {
		return 200
	}
	return r.Status
}

// UnmarshalJSON accepts body either as a JSON string or as any other JSON
// value; non-string values are kept as their raw JSON text.
func (r *ResponseSpec) UnmarshalJSON(data []byte) error {
	var proxy struct {
		Status  int               `json:"status"`
		Headers map[string]string `json:"headers"`
		Body    json.RawMessage   `json:"body"`
		DelayMs int               `json:"delayMs"`
	}
	if err := json.Unmarshal(data, &proxy); err != nil {
		return err
	}

	r.Status = proxy.Status
	r.Headers = proxy.Headers
	r.DelayMs = proxy.DelayMs

	if len(proxy.Body) == 0 {
		r.Body = ""
		return nil
	}

	// String is the common case; anything else is stored as raw JSON.
	var s string
	if err := json.Unmarshal(proxy.Body, &s); err == nil {
		r.Body = s
		return nil
	}
	r.Body = string(proxy.Body)
	return nil
}

// UnmarshalYAML accepts body either as a scalar or as a YAML mapping or
// sequence; mappings and sequences are converted to their JSON encoding so
// stub files can write `body: {id: 1}` instead of `body: '{"id": 1}'`.
func (r *ResponseSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping node for response, got kind %d", value.Kind)
	}

	type responseAlias ResponseSpec
	var alias responseAlias

	var bodyNode *yaml.Node
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value != "body" {
			continue
		}
		bodyNode = value.Content[i+1]
		// Swap in a placeholder so the default decoder accepts object bodies,
		// then restore the original node afterwards.
		orig := *bodyNode
		value.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Value: "", Tag: "!!str"}
		err := value.Decode(&alias)
		*value.Content[i+1] = orig
		if err != nil {
			return err
		}
		bodyNode = &orig
		break
	}

	if bodyNode == nil {
		if err := value.Decode(&alias); err != nil {
			return err
		}
		*r = ResponseSpec(alias)
		return nil
	}

	*r = ResponseSpec(alias)

	if bodyNode.Kind == yaml.ScalarNode {
		r.Body = bodyNode.Value
		return nil
	}

	var bodyObj any
	if err := bodyNode.Decode(&bodyObj); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	bodyJSON, err := json.Marshal(bodyObj)
	if err != nil {
		return fmt.Errorf("encode response body as JSON: %w", err)
	}
	r.Body = string(bodyJSON)
	return nil
}
