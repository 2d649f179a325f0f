package server

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"CollabBoard/internal/protocol"
)

const (
	// sendQueueSize bounds each connection's outbound buffer. Cursor
	// relays dominate traffic; a consumer that falls this far behind is
	// closed rather than allowed to stall the hub.
	sendQueueSize = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is the per-connection gateway. Its binding fields (user, roomID)
// are owned by the hub goroutine; the pumps only move frames between the
// websocket and the hub's channels.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan protocol.Message
	logger *slog.Logger

	// Bound state. Empty roomID means Unbound.
	user   protocol.User
	roomID string
}

func NewSession(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		hub:    hub,
		conn:   conn,
		send:   make(chan protocol.Message, sendQueueSize),
		logger: logger.With("component", "session"),
	}
}

// readPump decodes inbound frames and hands them to the hub. It owns the
// connection's read side and triggers teardown exactly once on exit,
// whether the client left cleanly or the transport died.
func (s *Session) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		select {
		case s.hub.inbound <- inboundEvent{sess: s, msg: msg}:
		case <-s.hub.done:
			return
		}
	}
}

// writePump drains the send queue onto the websocket and keeps the
// connection alive with pings. It exits when the hub closes the queue or a
// write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Error("write error", "error", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
