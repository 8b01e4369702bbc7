package stub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResponseSpec_UnmarshalJSON_StringBody(t *testing.T) {
	var r ResponseSpec
	err := json.Unmarshal([]byte(`{"status": 201, "body": "created", "delayMs": 50}`), &r)
	require.NoError(t, err)
	assert.Equal(t, 201, r.Status)
	assert.Equal(t, "created", r.Body)
	assert.Equal(t, 50, r.DelayMs)
}

func TestResponseSpec_UnmarshalJSON_ObjectBody(t *testing.T) {
	var r ResponseSpec
	err := json.Unmarshal([]byte(`{"status": 200, "body": {"id": 1, "name": "alice"}}`), &r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 1, "name": "alice"}`, r.Body)
}

func TestResponseSpec_UnmarshalJSON_ArrayBody(t *testing.T) {
	var r ResponseSpec
	err := json.Unmarshal([]byte(`{"body": [1, 2, 3]}`), &r)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3]`, r.Body)
}

func TestResponseSpec_UnmarshalJSON_NoBody(t *testing.T) {
	var r ResponseSpec
	err := json.Unmarshal([]byte(`{"status": 204}`), &r)
	require.NoError(t, err)
	assert.Equal(t, 204, r.Status)
	assert.Empty(t, r.Body)
}

func TestResponseSpec_UnmarshalYAML_ScalarBody(t *testing.T) {
	var r ResponseSpec
	err := yaml.Unmarshal([]byte("status: 200\nbody: hello\n"), &r)
	require.NoError(t, err)
	assert.Equal(t, 200, r.Status)
	assert.Equal(t, "hello", r.Body)
}

func TestResponseSpec_UnmarshalYAML_MappingBody(t *testing.T) {
	var r ResponseSpec
	err := yaml.Unmarshal([]byte("status: 200\nheaders:\n  X-Test: \"1\"\nbody:\n  id: 7\n  tags: [a, b]\n"), &r)
	require.NoError(t, err)
	assert.Equal(t, "1", r.Headers["X-Test"])
	assert.JSONEq(t, `{"id": 7, "tags": ["a", "b"]}`, r.Body)
}

func TestResponseSpec_UnmarshalYAML_NoBody(t *testing.T) {
	var r ResponseSpec
	err := yaml.Unmarshal([]byte("status: 503\ndelayMs: 10\n"), &r)
	require.NoError(t, err)
	assert.Equal(t, 503, r.Status)
	assert.Equal(t, 10, r.DelayMs)
	assert.Empty(t, r.Body)
}

func TestResponseSpec_StatusOrDefault(t *testing.T) {
	assert.Equal(t, 200, (&ResponseSpec{}).StatusOrDefault())
	assert.Equal(t, 418, (&ResponseSpec{Status: 418}).StatusOrDefault())
}

func TestExpectation_IsEmpty(t *testing.T) {
	assert.True(t, (&Expectation{}).IsEmpty())
	assert.True(t, (*Expectation)(nil).IsEmpty())
	assert.False(t, (&Expectation{Method: "GET"}).IsEmpty())
	assert.False(t, (&Expectation{JSONPartial: map[string]any{"a": 1}}).IsEmpty())
}

func TestExpectation_Unlimited(t *testing.T) {
	assert.True(t, (&Expectation{Method: "GET"}).Unlimited())
	assert.False(t, (&Expectation{Method: "GET", Limit: 1}).Unlimited())
}

func TestStub_RoundTripJSON(t *testing.T) {
	in := &Stub{
		Name: "users",
		Expectation: Expectation{
			Method: "GET",
			Path:   "/x",
			Headers: map[string]string{
				"Accept": "application/json",
			},
			Limit: 2,
		},
		Response: ResponseSpec{Status: 200, Body: "ok"},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Stub
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Expectation, out.Expectation)
	assert.Equal(t, in.Response, out.Response)
	assert.Equal(t, in.Name, out.Name)
}
