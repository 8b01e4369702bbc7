// Package cli provides the command-line interface for mockbird.
//
// Commands:
//   - serve: run a mock server in the foreground until interrupted
//   - add: register a mock from flags or a stub collection file
//   - list: show all registered mocks with hit counts
//   - get: show one mock's definition and bookkeeping
//   - delete: remove a mock by id, or all mocks with --all
//   - verify: assert a mock's call count (CI-friendly exit codes)
//   - requests: inspect or clear the request journal
//   - status: show the resolved control URL and server health
//   - version: show build information
//
// Every command except serve talks to a running server over its control
// API. The server URL resolves from --control-url, then MOCKBIRD_URL,
// then the user config file, then http://localhost:4280.
package cli
