package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"flightops/internal/infrastructure"
	"flightops/pkg/contracts/events"
)

// ErrHubStopped is returned when registering with a stopped hub
var ErrHubStopped = errors.New("websocket hub stopped")

const broadcastBuffer = 64

// HubStats is a snapshot of hub counters
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	SlowClientsDrops int64 `json:"slow_client_drops"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All client bookkeeping happens on the single run loop.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	stats   HubStats
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the run loop. Later calls are no-ops.
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		h.mu.Lock()
		h.started = true
		h.mu.Unlock()
		go h.run()
	})
}

// Stop closes every client and waits for the run loop to exit
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		h.mu.RLock()
		started := h.started
		h.mu.RUnlock()
		if started {
			<-h.done
		}
	})
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("Hub shut down")
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.mu.Lock()
			h.stats.TotalConnections++
			h.stats.ActiveClients = len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.WebSocketClients.Add(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", len(h.clients)))

			greeting := events.NewMessage(events.MessageTypeConnection, events.ConnectionData{
				ClientID: client.id,
				Status:   "connected",
			})
			greeting.TraceID = client.traceID
			if data, err := json.Marshal(greeting); err == nil {
				select {
				case client.send <- data:
				default:
					h.logger.WarnContext(ctx, "Client buffer full on connect", slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.InfoContext(client.context(), "Client unregistered",
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			sent := 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sent++
				default:
					h.drop(client)
					h.mu.Lock()
					h.stats.SlowClientsDrops++
					h.mu.Unlock()
					h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
			h.mu.Lock()
			h.stats.MessagesSent += int64(sent)
			h.mu.Unlock()

			h.logger.Debug("Broadcast delivered",
				slog.Int("clients", sent),
				slog.Int("message_size", len(message)))
		}
	}
}

// drop removes a client and closes its send channel. Run loop only.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.metrics.WebSocketClients.Add(client.context(), -1)

	h.mu.Lock()
	h.stats.ActiveClients = len(h.clients)
	h.mu.Unlock()
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Publish queues a message for every connected client. It is dropped
// when the hub has not been started or has stopped.
func (h *Hub) Publish(ctx context.Context, msg events.Message) {
	h.mu.RLock()
	started := h.started
	h.mu.RUnlock()
	if !started {
		h.logger.DebugContext(ctx, "Broadcast dropped, hub not running",
			slog.String("message_type", string(msg.Type)))
		return
	}

	if msg.TraceID == "" {
		msg.TraceID = infrastructure.GetTraceID(ctx)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msg.Type)))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.quit:
	case <-ctx.Done():
		h.logger.WarnContext(ctx, "Broadcast abandoned", slog.String("message_type", string(msg.Type)))
	}
}

// BroadcastDataUpdate announces a new flight table
func (h *Hub) BroadcastDataUpdate(ctx context.Context, update events.DataUpdate) {
	h.Publish(ctx, events.NewMessage(events.MessageTypeDataUpdate, update))
}

// BroadcastRefreshFailed announces a failed refresh
func (h *Hub) BroadcastRefreshFailed(ctx context.Context, failure events.RefreshFailed) {
	h.Publish(ctx, events.NewMessage(events.MessageTypeRefreshFailed, failure))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats.ActiveClients
}

// Stats returns a snapshot of the hub counters
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}
