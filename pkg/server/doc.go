// Package server hosts one or more mock server instances.
//
// A Server owns a mock registry, a request journal and a metrics registry,
// and serves two route families from a single listener: the control protocol
// under the configured admin prefix (default /__mockbird__) and the
// dispatcher for everything else. The dispatcher snapshots each inbound
// request, asks the registry for the best match and either replays the
// stubbed response or answers with a diagnostic 404 that ranks the closest
// candidates.
//
// Instances move through a one-way lifecycle: Created -> Bound -> Serving ->
// Stopped. Start binds the listener (port 0 selects an ephemeral port) and
// serves on a goroutine; Stop drains in-flight requests and discards the
// registry. A stopped instance cannot be restarted.
//
// Pool manages a fixed number of independent instances for parallel test
// suites. Acquire hands out a free instance, lazily starting new ones up to
// the pool size, and Release returns it reset to a clean state.
package server
