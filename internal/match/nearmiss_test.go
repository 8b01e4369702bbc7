package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/stub"
)

func mustCompile(t *testing.T, exp stub.Expectation) []Clause {
	t.Helper()
	clauses, err := Compile(&exp)
	require.NoError(t, err)
	return clauses
}

func TestCollectRanksByDistance(t *testing.T) {
	// Request is POST /api/users. The closest candidate differs only in
	// method, the next only in a path typo, the farthest in everything.
	candidates := []Candidate{
		{ID: 1, Name: "wrong-everything", Clauses: mustCompile(t, stub.Expectation{
			Method: "DELETE", Path: "/healthz",
		})},
		{ID: 2, Name: "method-off", Clauses: mustCompile(t, stub.Expectation{
			Method: "PUT", Path: "/api/users",
		})},
		{ID: 3, Name: "path-typo", Clauses: mustCompile(t, stub.Expectation{
			Method: "POST", Path: "/api/user",
		})},
	}

	r := buildRequest(t, reqSpec{method: "POST", target: "/api/users"})
	misses := Collect(candidates, r, 10)
	require.Len(t, misses, 3)

	assert.Equal(t, 3, misses[0].MockID, "one-char path typo is closest")
	assert.Equal(t, 2, misses[1].MockID)
	assert.Equal(t, 1, misses[2].MockID)

	for i := 1; i < len(misses); i++ {
		assert.LessOrEqual(t, misses[i-1].Distance, misses[i].Distance)
	}
}

func TestCollectTiesBrokenByID(t *testing.T) {
	exp := stub.Expectation{Method: "PUT", Path: "/api/users"}
	candidates := []Candidate{
		{ID: 9, Clauses: mustCompile(t, exp)},
		{ID: 2, Clauses: mustCompile(t, exp)},
		{ID: 5, Clauses: mustCompile(t, exp)},
	}

	r := buildRequest(t, reqSpec{method: "POST", target: "/api/users"})
	misses := Collect(candidates, r, 10)
	require.Len(t, misses, 3)
	assert.Equal(t, 2, misses[0].MockID)
	assert.Equal(t, 5, misses[1].MockID)
	assert.Equal(t, 9, misses[2].MockID)
}

func TestCollectHonorsLimit(t *testing.T) {
	exp := stub.Expectation{Method: "PUT"}
	var candidates []Candidate
	for i := 1; i <= 10; i++ {
		candidates = append(candidates, Candidate{ID: i, Clauses: mustCompile(t, exp)})
	}

	r := buildRequest(t, reqSpec{method: "POST", target: "/x"})
	misses := Collect(candidates, r, 2)
	assert.Len(t, misses, 2)

	misses = Collect(candidates, r, 0)
	assert.Len(t, misses, DefaultNearMissLimit)
}

func TestCollectExhaustedPerfectMatch(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Exhausted: true, Clauses: mustCompile(t, stub.Expectation{
			Method: "POST", Path: "/api/users",
		})},
		{ID: 2, Clauses: mustCompile(t, stub.Expectation{
			Method: "PUT", Path: "/api/users",
		})},
	}

	r := buildRequest(t, reqSpec{method: "POST", target: "/api/users"})
	misses := Collect(candidates, r, 10)
	require.Len(t, misses, 2)

	assert.Equal(t, 1, misses[0].MockID)
	assert.Equal(t, float64(0), misses[0].Distance)
	assert.Equal(t, "all clauses matched, but the response limit was reached", misses[0].Reason)
}

func TestCollectReasonNamesFirstMismatch(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Clauses: mustCompile(t, stub.Expectation{
			Method: "POST",
			Path:   "/api/users",
			Headers: map[string]string{
				"X-Tenant": "acme",
			},
		})},
	}

	r := buildRequest(t, reqSpec{method: "POST", target: "/api/users"})
	misses := Collect(candidates, r, 10)
	require.Len(t, misses, 1)

	assert.Contains(t, misses[0].Reason, "method and path matched, but")
	assert.Contains(t, misses[0].Reason, `header "X-Tenant" not present`)
}

func TestCollectClauseBreakdown(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Clauses: mustCompile(t, stub.Expectation{
			Method: "POST",
			Path:   "/api/users",
		})},
	}

	r := buildRequest(t, reqSpec{method: "GET", target: "/api/users"})
	misses := Collect(candidates, r, 10)
	require.Len(t, misses, 1)
	require.Len(t, misses[0].Clauses, 2)

	method := misses[0].Clauses[0]
	assert.Equal(t, KindMethod, method.Kind)
	assert.False(t, method.Matched)
	assert.Equal(t, "POST", method.Expected)
	assert.Equal(t, "GET", method.Actual)
	assert.Greater(t, method.Distance, float64(0))

	path := misses[0].Clauses[1]
	assert.Equal(t, KindPath, path.Kind)
	assert.True(t, path.Matched)
	assert.Equal(t, float64(0), path.Distance)
}

func TestCollectAttachesBodyDiff(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Clauses: mustCompile(t, stub.Expectation{Body: "hello world"})},
	}

	r := buildRequest(t, reqSpec{method: "POST", target: "/x", body: "hello there"})
	misses := Collect(candidates, r, 10)
	require.Len(t, misses, 1)
	require.Len(t, misses[0].Clauses, 1)
	assert.NotEmpty(t, misses[0].Clauses[0].Diff)
}

func TestCollectSkipsUnconstrainedCandidates(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Clauses: nil},
	}
	r := buildRequest(t, reqSpec{target: "/x"})
	assert.Empty(t, Collect(candidates, r, 10))
}

func TestCollectIsReadOnly(t *testing.T) {
	clauses := mustCompile(t, stub.Expectation{Method: "PUT"})
	candidates := []Candidate{{ID: 1, Clauses: clauses}}
	r := buildRequest(t, reqSpec{method: "POST", target: "/x"})

	first := Collect(candidates, r, 10)
	second := Collect(candidates, r, 10)
	assert.Equal(t, first, second)
}
