package registry

// Contender is one fully matching mock as the selection policy sees it.
type Contender struct {
	// ID is the registration id; higher means registered later.
	ID int
	// Limited reports whether the mock carries a match budget.
	Limited bool
	// Remaining is the unused budget; meaningful only when Limited.
	Remaining int
	// Hits is the current hit count.
	Hits uint64
}

// SelectionPolicy orders mocks that all fully match the same request. It
// reports whether a should be served before b. The policy must be a strict
// ordering over distinct contenders or selection becomes nondeterministic.
type SelectionPolicy func(a, b Contender) bool

// DefaultSelectionPolicy serves limited mocks before unlimited ones, so a
// one-shot override is consumed before falling back to a catch-all, and
// breaks ties by most recent registration. This is the documented default;
// replace it via WithSelectionPolicy when a suite needs different precedence.
func DefaultSelectionPolicy(a, b Contender) bool {
	if a.Limited != b.Limited {
		return a.Limited
	}
	return a.ID > b.ID
}
