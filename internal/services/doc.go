// Package services implements the dashboard's business logic between the
// HTTP handlers and the record source.
//
// # Services
//
//   - DashboardService: owns the table cache, runs the transform pipeline on
//     refresh and answers aggregation queries for one fleet at a time
//   - FilterStore: remembers the last pilot selected per session and fleet
//   - HealthService: liveness, readiness and version reporting
//
// # Refresh flow
//
// A read goes through the cache. When the entry is missing or expired the
// configured record source is fetched under a timeout, the raw table is
// validated and transformed, and subscribers are notified of the new table.
// A failed refresh keeps serving the previous table marked stale.
//
// # Errors
//
// Services return sentinel errors from errors.go or domain errors from the
// source and dataprocessing packages, wrapped with context. The HTTP layer
// maps them to problem responses.
package services
