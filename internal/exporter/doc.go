// Package exporter writes the enriched flight table as CSV or XLSX.
//
// Rows carry the source columns in source order, with parsed timestamps and
// dates normalized and unparseable values left empty, followed by
// Duration_Min, Duration_Human, Flight_Status and Group. Scheduler runs the
// same export on a cron schedule into a snapshot directory.
package exporter
