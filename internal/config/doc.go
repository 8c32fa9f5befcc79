// Package config loads event-scout settings from a YAML file.
//
// Load starts from Default, overlays the file (missing files are fine) and
// finally applies EVENT_SCOUT_* and TWITTER_* environment variables.
// Durations are written as Go duration strings such as "10m" or "2s".
package config
