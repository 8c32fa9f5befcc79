// Package export writes detected events to spreadsheet and calendar files.
//
// Tabular formats (xlsx, csv) always use the column order Event Name, Date,
// Time, Location, Description, Source, Confidence, URL. ICS output goes
// through the calendar package. S3Uploader can publish any rendered export.
package export
