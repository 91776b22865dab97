// Package websocket pushes refresh notifications to dashboard clients.
//
// A single Hub goroutine owns the client set. Each Client runs a read pump
// that only consumes heartbeats and a write pump that relays hub messages
// and keepalive pings. Handler performs the HTTP upgrade.
package websocket
