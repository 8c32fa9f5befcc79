// Package monitor watches tracked URLs for new events.
//
// Each check scrapes the page and compares the number of detected events with
// the count stored on the previous check. When the count grows by N, the
// newest N events are recorded in a notification and handed to the
// configured notifiers. Checks of one URL never run concurrently; checks of
// different URLs start at least Delay apart and at most Concurrency run at
// once.
package monitor
