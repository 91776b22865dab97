// Package events defines the messages pushed to dashboard clients over WebSocket.
package events

import (
	"time"

	"flightops/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeConnection greets a newly registered client
	MessageTypeConnection MessageType = "connection"

	// MessageTypeDataUpdate announces a freshly fetched flight table
	MessageTypeDataUpdate MessageType = "data_update"

	// MessageTypeRefreshFailed announces a failed refresh; the table served
	// afterwards, if any, is stale
	MessageTypeRefreshFailed MessageType = "refresh_failed"

	// MessageTypeHeartbeat is sent by clients to keep the connection alive
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// Message is the envelope of every server to client frame
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// ConnectionData is the payload of a connection message
type ConnectionData struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}

// DataUpdate is the payload of a data_update message. Clients re-query the
// dashboard endpoints on receipt.
type DataUpdate struct {
	FetchedAt time.Time          `json:"fetched_at"`
	Records   int                `json:"records"`
	Warnings  int                `json:"warnings"`
	Fleets    []domain.FleetInfo `json:"fleets"`
}

// RefreshFailed is the payload of a refresh_failed message
type RefreshFailed struct {
	Error     string     `json:"error"`
	Stale     bool       `json:"stale"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

// NewMessage stamps a message with the current time
func NewMessage(t MessageType, data interface{}) Message {
	return Message{Type: t, Timestamp: time.Now().UTC(), Data: data}
}
