// Package registry owns the set of registered mocks for one server instance.
//
// A single mutex serializes every operation, including the find-and-increment
// sequence in FindBestMatch, so two concurrent requests can never both
// consume the last use of a limited mock. Instances are independently
// constructible; nothing in this package is process-global.
package registry
