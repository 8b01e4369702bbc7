// Package stub defines the wire-level data model for mockbird: the
// Expectation describing which requests a stub should intercept, the
// ResponseSpec describing what to send back, and the JSON shapes exchanged
// over the control protocol.
//
// Types here are pure data. Compilation of an Expectation into executable
// matchers (and the validation that rejects unparsable regexes, JSONPath
// expressions and request expressions) happens in internal/match; hit
// counting and selection live in internal/registry.
package stub
