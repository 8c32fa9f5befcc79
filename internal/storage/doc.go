// Package storage persists the URLs the monitor tracks and the log of
// new-event notifications it has emitted.
//
// Two backends implement Store: JSONStore keeps tracked.json and
// notifications.json in a data directory (default ~/.local/share/event-scout/),
// and SQLiteStore keeps both in a single SQLite database. Open selects one by
// name.
package storage
