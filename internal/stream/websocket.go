package stream

import (
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// WebSocketSink sends records as JSON text messages
type WebSocketSink struct {
	conn *websocket.Conn
}

// NewWebSocketSink wraps an upgraded connection
func NewWebSocketSink(conn *websocket.Conn) *WebSocketSink {
	return &WebSocketSink{conn: conn}
}

// Send writes one record
func (s *WebSocketSink) Send(rec Record) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(rec)
}

// Close sends a normal closure frame and closes the connection
func (s *WebSocketSink) Close() error {
	deadline := time.Now().Add(wsWriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
