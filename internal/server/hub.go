package server

import (
	"encoding/json"
	"log/slog"

	"CollabBoard/internal/protocol"
)

type inboundEvent struct {
	sess *Session
	msg  protocol.Message
}

// Hub is the single-threaded dispatcher. Every inbound event, registration,
// and teardown flows through Run's select loop, so registry mutations for a
// room never interleave. Sessions talk to the hub through channels only; the
// hub talks back through each session's buffered send queue.
type Hub struct {
	registry *Registry
	metrics  *Metrics
	logger   *slog.Logger

	sessions map[*Session]bool
	byRoom   map[string]map[*Session]bool

	register   chan *Session
	unregister chan *Session
	inbound    chan inboundEvent
	done       chan struct{}
}

func NewHub(registry *Registry, metrics *Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		registry:   registry,
		metrics:    metrics,
		logger:     logger.With("component", "hub"),
		sessions:   make(map[*Session]bool),
		byRoom:     make(map[string]map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		inbound:    make(chan inboundEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run drives the dispatch loop until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case sess := <-h.register:
			h.addSession(sess)
		case sess := <-h.unregister:
			h.removeSession(sess)
		case ev := <-h.inbound:
			h.dispatch(ev.sess, ev.msg)
		case <-h.done:
			return
		}
	}
}

// Stop terminates the dispatch loop and unblocks any pump waiting to hand
// the hub an event.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) addSession(sess *Session) {
	h.sessions[sess] = true
	h.metrics.Connections.Inc()
}

// removeSession is the one teardown path. Explicit leave and abrupt
// disconnect both land here; leave is idempotent so double firing is safe.
func (h *Hub) removeSession(sess *Session) {
	if !h.sessions[sess] {
		return
	}
	h.leave(sess)
	delete(h.sessions, sess)
	close(sess.send)
	h.metrics.Connections.Dec()
}

// dispatch routes one decoded event. Malformed payloads are dropped with a
// warning; a single bad event never costs the client its connection.
func (h *Hub) dispatch(sess *Session, msg protocol.Message) {
	h.metrics.EventsReceived.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case protocol.TypeRoomJoin:
		var req protocol.JoinRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.RoomID == "" || req.User.ID == "" {
			h.drop(sess, msg.Type, err)
			return
		}
		h.join(sess, req)

	case protocol.TypeRoomLeave:
		h.leave(sess)

	case protocol.TypeCursorMove:
		if sess.roomID == "" {
			return
		}
		var cur protocol.CursorMove
		if err := json.Unmarshal(msg.Data, &cur); err != nil {
			h.drop(sess, msg.Type, err)
			return
		}
		// Pure relay: cursor positions are ephemeral and never written to
		// room state.
		relay := protocol.CursorMove{UserID: cur.UserID, X: cur.X, Y: cur.Y}
		h.broadcast(sess.roomID, sess, protocol.NewMessage(protocol.TypeCursorMove, relay))

	case protocol.TypeShapeAdd:
		var add protocol.ShapeAdd
		if err := json.Unmarshal(msg.Data, &add); err != nil || add.Shape.ID == "" {
			h.drop(sess, msg.Type, err)
			return
		}
		if !h.registry.AddShape(add.RoomID, add.Shape) {
			return
		}
		h.broadcast(add.RoomID, sess, protocol.NewMessage(protocol.TypeShapeAdded, add.Shape))

	case protocol.TypeShapeUpdate:
		var upd protocol.ShapeUpdate
		if err := json.Unmarshal(msg.Data, &upd); err != nil || upd.ShapeID == "" {
			h.drop(sess, msg.Type, err)
			return
		}
		if !h.registry.PatchShape(upd.RoomID, upd.ShapeID, upd.Changes) {
			return
		}
		out := protocol.ShapeUpdate{ShapeID: upd.ShapeID, Changes: upd.Changes}
		h.broadcast(upd.RoomID, sess, protocol.NewMessage(protocol.TypeShapeUpdated, out))

	case protocol.TypeShapeDelete:
		var del protocol.ShapeDelete
		if err := json.Unmarshal(msg.Data, &del); err != nil || del.ShapeID == "" {
			h.drop(sess, msg.Type, err)
			return
		}
		if !h.registry.DeleteShape(del.RoomID, del.ShapeID) {
			return
		}
		h.broadcast(del.RoomID, sess, protocol.NewMessage(protocol.TypeShapeDeleted, del.ShapeID))

	case protocol.TypeShapesClear:
		var clr protocol.ShapesClear
		if err := json.Unmarshal(msg.Data, &clr); err != nil {
			h.drop(sess, msg.Type, err)
			return
		}
		if !h.registry.ClearShapes(clr.RoomID) {
			return
		}
		h.broadcast(clr.RoomID, sess, protocol.Message{Type: protocol.TypeShapesCleared})

	case protocol.TypeBackgroundUpdate:
		var bg protocol.BackgroundUpdate
		if err := json.Unmarshal(msg.Data, &bg); err != nil || bg.Background.Type == "" {
			h.drop(sess, msg.Type, err)
			return
		}
		if !h.registry.SetBackground(bg.RoomID, bg.Background) {
			return
		}
		h.broadcast(bg.RoomID, sess, protocol.NewMessage(protocol.TypeBackgroundUpdated, bg.Background))

	default:
		h.drop(sess, msg.Type, nil)
	}
}

// join binds the session to a (user, room) pair. A session already bound
// elsewhere leaves its old room first; a connection holds at most one
// binding at a time.
func (h *Hub) join(sess *Session, req protocol.JoinRequest) {
	if sess.roomID != "" {
		h.leave(sess)
	}

	room := h.registry.Join(req.RoomID, req.User)
	sess.user = req.User
	sess.roomID = req.RoomID

	members := h.byRoom[req.RoomID]
	if members == nil {
		members = make(map[*Session]bool)
		h.byRoom[req.RoomID] = members
	}
	members[sess] = true

	// Roster to the joiner, presence to everyone else, then the full shape
	// sequence to the joiner. The joiner is the only party that ever gets a
	// full state transfer; it has no prior state to reconcile.
	h.send(sess, protocol.NewMessage(protocol.TypeRoomJoined, protocol.RoomJoined{
		Room: room.Info(),
		User: req.User,
	}))
	h.broadcast(req.RoomID, sess, protocol.NewMessage(protocol.TypeUserJoined, req.User))
	h.send(sess, protocol.NewMessage(protocol.TypeShapesInit, room.ShapesCopy()))

	h.metrics.OpenRooms.Set(float64(h.registry.Count()))
	h.logger.Info("user joined", "user", req.User.Name, "room", req.RoomID)
}

// leave releases the session's binding. Safe to call with no binding held.
func (h *Hub) leave(sess *Session) {
	if sess.roomID == "" {
		return
	}
	roomID, userID := sess.roomID, sess.user.ID

	if members := h.byRoom[roomID]; members != nil {
		delete(members, sess)
		if len(members) == 0 {
			delete(h.byRoom, roomID)
		}
	}

	if ok, _ := h.registry.Leave(roomID, userID); ok {
		h.broadcast(roomID, sess, protocol.NewMessage(protocol.TypeUserLeft, userID))
	}

	sess.roomID = ""
	sess.user = protocol.User{}
	h.metrics.OpenRooms.Set(float64(h.registry.Count()))
	h.logger.Info("user left", "user", userID, "room", roomID)
}

// broadcast fans a message out to every room member except the originator.
// The exclusion is what lets clients apply their own edits optimistically
// without seeing them echoed back.
func (h *Hub) broadcast(roomID string, except *Session, msg protocol.Message) {
	for sess := range h.byRoom[roomID] {
		if sess == except {
			continue
		}
		h.send(sess, msg)
		h.metrics.Broadcasts.Inc()
	}
}

// send enqueues without blocking. A full queue means the consumer is stuck
// or gone; its connection is closed and the read pump's exit runs the
// normal teardown.
func (h *Hub) send(sess *Session, msg protocol.Message) {
	select {
	case sess.send <- msg:
	default:
		h.metrics.DroppedSends.Inc()
		h.logger.Warn("send queue full, closing connection", "user", sess.user.ID)
		if sess.conn != nil {
			sess.conn.Close()
		}
	}
}

func (h *Hub) drop(sess *Session, msgType string, err error) {
	h.metrics.Malformed.Inc()
	h.logger.Warn("dropping event", "type", msgType, "user", sess.user.ID, "error", err)
}
