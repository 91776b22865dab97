// Package app wires the FlightOps dashboard together and owns its lifecycle.
//
// NewApplication builds, in order, the record source selected by
// configuration, the OpenTelemetry providers and business metrics, the
// websocket hub, the dashboard and health services, the optional export
// scheduler, and finally the chi router and HTTP server.
//
// # Lifecycle
//
// Serve starts the hub and scheduler, warms the flight table cache in the
// background, and serves HTTP until its context is cancelled. Stop shuts the
// server down within the configured timeout, then stops the scheduler, the
// hub and the telemetry providers. Run adds SIGINT/SIGTERM handling on top
// of Serve.
//
// # Routes
//
//	GET  /ws                            websocket notifications
//	GET  /metrics                       Prometheus scrape endpoint
//	GET  /api/health[/ready|/live]      health probes
//	GET  /api/version                   build information
//	GET  /api/fleets                    configured fleets
//	GET  /api/fleets/{fleet}/dashboard  all views for a fleet and pilot
//	GET  /api/fleets/{fleet}/pilots     pilot selector options
//	GET  /api/fleets/{fleet}/drones     vehicles by flight status
//	GET  /api/fleets/{fleet}/filter     stored pilot selection
//	PUT  /api/fleets/{fleet}/filter     store a pilot selection
//	POST /api/refresh                   force a table reload
//	GET  /api/export/{csv|xlsx}         download the enriched table
package app
