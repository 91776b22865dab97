// Package http implements the dashboard's JSON API handlers. Handlers parse
// and validate requests, call the dashboard service and render either a
// success envelope or an RFC 7807 problem.
//
// # Response envelope
//
//	{"status": "success", "data": ...}
//
// Errors are written through apierrors.ErrorHandler so domain errors map to
// consistent status codes: an unknown fleet is 404, a schema mismatch 502 and
// an unreachable record source 503.
//
// # Sessions
//
// Filter state is scoped by the X-Session-ID request header. Requests without
// it still work; they just do not remember the pilot selection.
package http
