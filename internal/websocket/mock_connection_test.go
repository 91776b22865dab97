package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("connection closed")

// mockConnection blocks reads until a message is pushed or the connection closes
type mockConnection struct {
	mu       sync.Mutex
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once
	written  [][]byte
	writes   chan []byte
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		incoming: make(chan []byte, 8),
		closed:   make(chan struct{}),
		writes:   make(chan []byte, 64),
	}
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.closed:
		return errConnClosed
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	m.mu.Lock()
	m.written = append(m.written, data)
	m.mu.Unlock()
	select {
	case m.writes <- data:
	default:
	}
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-m.incoming:
		return websocket.TextMessage, msg, nil
	case <-m.closed:
		return 0, nil, errConnClosed
	}
}

func (m *mockConnection) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error   { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error  { return nil }
func (m *mockConnection) SetReadLimit(int64)                {}
func (m *mockConnection) SetPongHandler(func(string) error) {}
func (m *mockConnection) RemoteAddr() string                { return "127.0.0.1:50000" }

func (m *mockConnection) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// next waits for the next text frame
func (m *mockConnection) next(timeout time.Duration) ([]byte, bool) {
	select {
	case data := <-m.writes:
		return data, true
	case <-time.After(timeout):
		return nil, false
	}
}
