package protocol

import "encoding/json"

// Message types, client to server.
const (
	TypeRoomJoin         = "room:join"
	TypeRoomLeave        = "room:leave"
	TypeCursorMove       = "cursor:move"
	TypeShapeAdd         = "shape:add"
	TypeShapeUpdate      = "shape:update"
	TypeShapeDelete      = "shape:delete"
	TypeShapesClear      = "shapes:clear"
	TypeBackgroundUpdate = "background:update"
)

// Message types, server to client. cursor:move keeps the same name in both
// directions; the payload shrinks to {userId,x,y} on the way back out.
const (
	TypeRoomJoined        = "room:joined"
	TypeShapesInit        = "shapes:init"
	TypeUserJoined        = "user:joined"
	TypeUserLeft          = "user:left"
	TypeShapeAdded        = "shape:added"
	TypeShapeUpdated      = "shape:updated"
	TypeShapeDeleted      = "shape:deleted"
	TypeShapesCleared     = "shapes:cleared"
	TypeBackgroundUpdated = "background:updated"
)

// Message is the wire envelope: an event name plus its raw payload.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps a payload in an envelope. Payloads are plain structs and
// slices that cannot fail to marshal.
func NewMessage(msgType string, payload any) Message {
	data, _ := json.Marshal(payload)
	return Message{Type: msgType, Data: data}
}

// JoinRequest asks the server to bind this connection to a room.
type JoinRequest struct {
	User   User   `json:"user"`
	RoomID string `json:"roomId"`
}

// LeaveRequest releases the connection's room binding.
type LeaveRequest struct {
	RoomID string `json:"roomId"`
}

// RoomInfo is the roster half of the join handshake. Shapes travel
// separately in shapes:init so a joiner can render them independently of
// the participant list.
type RoomInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Users      []User     `json:"users"`
	Background Background `json:"background"`
}

// RoomJoined is the unicast reply to a successful join.
type RoomJoined struct {
	Room RoomInfo `json:"room"`
	User User     `json:"user"`
}

// CursorMove carries a pointer position. RoomID is set client to server
// and dropped on the relay out.
type CursorMove struct {
	RoomID string  `json:"roomId,omitempty"`
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ShapeAdd appends a finished shape to a room.
type ShapeAdd struct {
	RoomID string `json:"roomId"`
	Shape  Shape  `json:"shape"`
}

// ShapeUpdate patches fields of an existing shape.
type ShapeUpdate struct {
	RoomID  string     `json:"roomId,omitempty"`
	ShapeID string     `json:"shapeId"`
	Changes ShapePatch `json:"changes"`
}

// ShapeDelete removes a shape by id.
type ShapeDelete struct {
	RoomID  string `json:"roomId"`
	ShapeID string `json:"shapeId"`
}

// ShapesClear empties a room's shape sequence.
type ShapesClear struct {
	RoomID string `json:"roomId"`
}

// BackgroundUpdate replaces the room backdrop.
type BackgroundUpdate struct {
	RoomID     string     `json:"roomId,omitempty"`
	Background Background `json:"background"`
}
