package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"CollabBoard/internal/protocol"
)

// palette is the swatch a joining participant's color is drawn from.
var palette = []string{
	"#EF4444", "#F59E0B", "#10B981", "#3B82F6", "#8B5CF6", "#EC4899",
}

// wsConn is the slice of *websocket.Conn the bridge needs. Tests substitute
// a recording fake.
type wsConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Bridge is the client-side sync endpoint. It owns the connection, the
// current user/room/roster, and the document replica. Local intents apply
// to the document first and then go out on the wire; the server never
// echoes them back, so no deduplication is needed. Undo and Redo are
// local-only: each client's history is private.
//
// One mutex serializes the document's two mutator paths (local intents and
// the read loop), which makes each optimistic apply+emit pair atomic with
// respect to incoming broadcasts.
type Bridge struct {
	mu        sync.Mutex
	conn      wsConn
	connected bool
	doc       DocumentState
	user      protocol.User
	room      *protocol.RoomInfo
	users     []protocol.User
	logger    *slog.Logger
}

func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		doc:    NewDocumentState(),
		logger: logger.With("component", "bridge"),
	}
}

// Connect dials the server's websocket endpoint and starts the read loop.
func (b *Bridge) Connect(url string) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	b.mu.Lock()
	b.conn = conn
	b.connected = true
	b.mu.Unlock()
	go b.readLoop(conn)
	return nil
}

// Close tears down the connection. The server treats the drop exactly like
// an explicit leave.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.connected = false
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// JoinRoom generates a fresh identity with a random swatch color and asks
// the server for the room. The roster and shape sequence arrive in the
// room:joined / shapes:init replies.
func (b *Bridge) JoinRoom(name, roomID string) {
	user := protocol.User{
		ID:    uuid.NewString(),
		Name:  name,
		Color: palette[rand.IntN(len(palette))],
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send(protocol.TypeRoomJoin, protocol.JoinRequest{User: user, RoomID: roomID})
}

// LeaveRoom releases the binding and clears presence state. The document
// keeps its contents; joining again reseeds it from shapes:init.
func (b *Bridge) LeaveRoom() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room == nil {
		return
	}
	b.send(protocol.TypeRoomLeave, protocol.LeaveRequest{RoomID: b.room.ID})
	b.room = nil
	b.user = protocol.User{}
	b.users = nil
}

// SendCursor relays the local pointer position. Nothing is applied
// locally; a client does not track its own cursor.
func (b *Bridge) SendCursor(x, y float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room == nil {
		return
	}
	b.send(protocol.TypeCursorMove, protocol.CursorMove{
		RoomID: b.room.ID,
		UserID: b.user.ID,
		X:      x,
		Y:      y,
	})
}

// AddShape applies a finished shape optimistically and transmits it. A
// missing id or author is filled in from the local identity.
func (b *Bridge) AddShape(shape protocol.Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room == nil {
		return
	}
	if shape.ID == "" {
		shape.ID = uuid.NewString()
	}
	if shape.UserID == "" {
		shape.UserID = b.user.ID
	}
	b.doc = Reduce(b.doc, AddShape{Shape: shape})
	b.send(protocol.TypeShapeAdd, protocol.ShapeAdd{RoomID: b.room.ID, Shape: shape})
}

// UpdateShape applies a partial patch optimistically and transmits it.
func (b *Bridge) UpdateShape(id string, changes protocol.ShapePatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room == nil {
		return
	}
	b.doc = Reduce(b.doc, UpdateShape{ID: id, Changes: changes})
	b.send(protocol.TypeShapeUpdate, protocol.ShapeUpdate{
		RoomID:  b.room.ID,
		ShapeID: id,
		Changes: changes,
	})
}

// DeleteShape removes a shape optimistically and transmits the deletion.
func (b *Bridge) DeleteShape(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room == nil {
		return
	}
	b.doc = Reduce(b.doc, DeleteShape{ID: id})
	b.send(protocol.TypeShapeDelete, protocol.ShapeDelete{RoomID: b.room.ID, ShapeID: id})
}

// ClearShapes empties the board optimistically and transmits the clear.
func (b *Bridge) ClearShapes() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room == nil {
		return
	}
	b.doc = Reduce(b.doc, ClearShapes{})
	b.send(protocol.TypeShapesClear, protocol.ShapesClear{RoomID: b.room.ID})
}

// SetBackground swaps the backdrop optimistically and transmits it.
// Backgrounds sit outside the undo history.
func (b *Bridge) SetBackground(bg protocol.Background) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room == nil {
		return
	}
	b.doc = Reduce(b.doc, SetBackground{Background: bg})
	b.send(protocol.TypeBackgroundUpdate, protocol.BackgroundUpdate{
		RoomID:     b.room.ID,
		Background: bg,
	})
}

// Undo steps the local history back one snapshot. Never transmitted.
func (b *Bridge) Undo() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = Reduce(b.doc, Undo{})
}

// Redo steps the local history forward one snapshot. Never transmitted.
func (b *Bridge) Redo() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = Reduce(b.doc, Redo{})
}

// Document returns the current replica state.
func (b *Bridge) Document() DocumentState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc
}

// Users returns the room roster, including live cursor positions.
func (b *Bridge) Users() []protocol.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]protocol.User(nil), b.users...)
}

// CurrentUser returns the identity adopted at join, zero if not joined.
func (b *Bridge) CurrentUser() protocol.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.user
}

// CurrentRoom returns the joined room's roster info, nil if not joined.
func (b *Bridge) CurrentRoom() *protocol.RoomInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.room
}

// Connected reports whether the websocket is up.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Bridge) readLoop(conn wsConn) {
	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			b.mu.Lock()
			if b.conn == conn {
				b.connected = false
			}
			b.mu.Unlock()
			b.logger.Info("connection closed", "error", err)
			return
		}
		b.handleMessage(msg)
	}
}

// handleMessage applies one inbound broadcast. Undecodable payloads are
// dropped; the stream continues.
func (b *Bridge) handleMessage(msg protocol.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch msg.Type {
	case protocol.TypeRoomJoined:
		var joined protocol.RoomJoined
		if err := json.Unmarshal(msg.Data, &joined); err != nil {
			b.drop(msg.Type, err)
			return
		}
		room := joined.Room
		b.room = &room
		b.user = joined.User
		b.users = append([]protocol.User(nil), room.Users...)

	case protocol.TypeShapesInit:
		var shapes []protocol.Shape
		if err := json.Unmarshal(msg.Data, &shapes); err != nil {
			b.drop(msg.Type, err)
			return
		}
		b.doc = Reduce(b.doc, SetShapes{Shapes: shapes})

	case protocol.TypeUserJoined:
		var user protocol.User
		if err := json.Unmarshal(msg.Data, &user); err != nil {
			b.drop(msg.Type, err)
			return
		}
		b.users = append(b.users, user)

	case protocol.TypeUserLeft:
		var userID string
		if err := json.Unmarshal(msg.Data, &userID); err != nil {
			b.drop(msg.Type, err)
			return
		}
		users := b.users[:0]
		for _, u := range b.users {
			if u.ID != userID {
				users = append(users, u)
			}
		}
		b.users = users

	case protocol.TypeCursorMove:
		var cur protocol.CursorMove
		if err := json.Unmarshal(msg.Data, &cur); err != nil {
			b.drop(msg.Type, err)
			return
		}
		for i := range b.users {
			if b.users[i].ID == cur.UserID {
				b.users[i].Cursor = &protocol.Cursor{X: cur.X, Y: cur.Y}
			}
		}

	case protocol.TypeShapeAdded:
		var shape protocol.Shape
		if err := json.Unmarshal(msg.Data, &shape); err != nil {
			b.drop(msg.Type, err)
			return
		}
		b.doc = Reduce(b.doc, AddShape{Shape: shape})

	case protocol.TypeShapeUpdated:
		var upd protocol.ShapeUpdate
		if err := json.Unmarshal(msg.Data, &upd); err != nil {
			b.drop(msg.Type, err)
			return
		}
		b.doc = Reduce(b.doc, UpdateShape{ID: upd.ShapeID, Changes: upd.Changes})

	case protocol.TypeShapeDeleted:
		var shapeID string
		if err := json.Unmarshal(msg.Data, &shapeID); err != nil {
			b.drop(msg.Type, err)
			return
		}
		b.doc = Reduce(b.doc, DeleteShape{ID: shapeID})

	case protocol.TypeShapesCleared:
		b.doc = Reduce(b.doc, ClearShapes{})

	case protocol.TypeBackgroundUpdated:
		var bg protocol.Background
		if err := json.Unmarshal(msg.Data, &bg); err != nil {
			b.drop(msg.Type, err)
			return
		}
		b.doc = Reduce(b.doc, SetBackground{Background: bg})

	default:
		b.drop(msg.Type, nil)
	}
}

// send transmits under the caller's lock. Failures are logged and
// swallowed: the model is best-effort broadcast, and a dead connection
// surfaces through the read loop anyway.
func (b *Bridge) send(msgType string, payload any) {
	if b.conn == nil {
		return
	}
	if err := b.conn.WriteJSON(protocol.NewMessage(msgType, payload)); err != nil {
		b.logger.Error("send failed", "type", msgType, "error", err)
	}
}

func (b *Bridge) drop(msgType string, err error) {
	b.logger.Warn("dropping message", "type", msgType, "error", err)
}
