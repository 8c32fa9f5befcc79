// Package calendar renders detected events as iCalendar (RFC 5545) data.
//
// Only events whose date resolved to a calendar day are exported. Events with
// a start time become two-hour floating-time entries; the rest are all-day.
package calendar
