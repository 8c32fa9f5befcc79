// Package cli implements the command-line interface for event-scout.
//
// The cli package provides the Cobra-based CLI: extract lists the events on a
// page (fetched or read from a file) and can export them, track manages the
// watched URLs, monitor checks them for new events, and notifications shows
// the resulting log. Output is text or JSON; with monitor --once the exit
// status is 2 when new events were found.
package cli
