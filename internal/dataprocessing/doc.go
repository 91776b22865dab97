// Package dataprocessing turns raw flight-log rows into an enriched table and
// reduces that table into the dashboard views.
//
// # Architecture
//
// The package is organized into four parts:
//
//  1. Schema: exact, case-sensitive column check at the ingestion boundary
//  2. Parser: soft timestamp and date parsing plus duration formatting
//  3. Transform: raw rows to FlightRecords with status and fleet derived
//  4. Analytics and summaries: fleet totals, status distribution, per-drone
//     summaries and the per-pilot daily log
//
// # Usage
//
//	classifier := dataprocessing.DefaultFleetClassifier()
//	table, err := dataprocessing.Transform(raw, classifier)
//	if err != nil {
//	    var schemaErr *dataprocessing.SchemaError
//	    if errors.As(err, &schemaErr) {
//	        // refresh failed, keep the previous table
//	    }
//	}
//	view := dataprocessing.BuildDashboard(table, domain.Query{Fleet: "Trishul"})
//
// # Data Flow
//
//	RawTable → ValidateSchema → Transform → FlightTable → Filter → Aggregations
//
// # Error Handling
//
// A missing or renamed column aborts the transform with a *SchemaError.
// Unparseable timestamps and dates never abort; the value becomes missing and
// a domain.ParseWarning is attached to the resulting table.
//
// Every function in this package is pure. Transforming the same input twice
// yields identical tables.
package dataprocessing
