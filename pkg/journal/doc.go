// Package journal records every dispatched request for inspection through
// the control protocol and the CLI. Entries live in a bounded in-memory ring;
// recording is fire-and-forget and never blocks matching.
package journal
