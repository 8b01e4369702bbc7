// Package config provides server configuration and stub-collection file
// loading for mockbird.
//
// Two document kinds live here:
//   - ServerConfig: runtime settings for a standalone server (listen address,
//     admin prefix, pool size, journal capacity, body cap, timeouts, logging)
//   - StubCollection: a versioned set of stub definitions loaded from a
//     YAML or JSON file and registered at boot
//
// File format is detected by extension (.yaml/.yml parse as YAML, everything
// else as JSON). Stub collections are validated against an embedded JSON
// Schema before decoding, so typos in field names fail loudly instead of
// silently matching nothing. Saving is atomic (write to a temp file, then
// rename).
//
// Loading a collection:
//
//	collection, err := config.LoadFromFile("stubs.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The document shape:
//
//	version: "1"
//	name: user-service stubs
//	stubs:
//	  - name: list-users
//	    expectation: {method: GET, path: /api/users}
//	    response: {status: 200, body: "[]"}
//
// Directories of stub files can be loaded with LoadFromDir, or with
// LoadFromGlob using ** patterns ("stubs/**/*.yaml").
package config
