// Package match implements the expectation matching engine: compiling a
// stub.Expectation into executable clauses, evaluating clauses against a
// request snapshot, and ranking non-matching stubs by similarity for
// diagnostics.
//
// Every clause is a pure predicate plus a similarity scorer. Evaluate returns
// Matched plus a normalized dissimilarity Distance in [0,1] (0 = identical)
// that is only meaningful when Matched is false; the near-miss collector sums
// per-clause distances to rank candidates. String-valued clauses score with
// bounded edit distance, JSON clauses with the fraction of expected leaves
// missing or mismatched, and pattern-style clauses (regex, glob, JSONPath,
// XML, expression) are binary.
package match
