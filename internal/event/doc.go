// Package event provides the event candidate model and the text and date
// helpers shared by every detection strategy.
//
// A candidate carries a display date ("Month D, YYYY" or DateNotFound) and a
// separate epoch-millisecond sort key. Candidates are deduplicated by a
// signature built from the normalized name and the display date, and carry a
// deterministic UUIDv5 ID derived from their source, insertion order and
// signature so that identical input produces identical output.
package event
