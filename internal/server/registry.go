package server

import (
	"log/slog"

	"CollabBoard/internal/protocol"
)

// Room is the authoritative server-side copy of one collaboration session.
// Users are kept in join order, shapes in insertion order (later entries
// render on top).
type Room struct {
	ID         string
	Name       string
	Users      []protocol.User
	Shapes     []protocol.Shape
	Background protocol.Background
}

// Info returns the roster snapshot sent to a joining client. Shapes travel
// separately in shapes:init.
func (r *Room) Info() protocol.RoomInfo {
	return protocol.RoomInfo{
		ID:         r.ID,
		Name:       r.Name,
		Users:      append([]protocol.User(nil), r.Users...),
		Background: r.Background,
	}
}

// ShapesCopy returns the current shape sequence.
func (r *Room) ShapesCopy() []protocol.Shape {
	return append([]protocol.Shape(nil), r.Shapes...)
}

// Registry maps room id to live room state. It is confined to the hub
// goroutine: every mutation runs to completion before the next event is
// processed, so per-room updates are atomic without locking.
type Registry struct {
	rooms      map[string]*Room
	nameLength int
	logger     *slog.Logger
}

// NewRegistry creates an empty registry. nameLength controls how many
// leading characters of the room id appear in the derived display name.
func NewRegistry(nameLength int, logger *slog.Logger) *Registry {
	if nameLength <= 0 {
		nameLength = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		nameLength: nameLength,
		logger:     logger.With("component", "registry"),
	}
}

// Join adds user to the room, creating the room on first sight of the id.
func (rg *Registry) Join(roomID string, user protocol.User) *Room {
	room, ok := rg.rooms[roomID]
	if !ok {
		room = &Room{
			ID:         roomID,
			Name:       rg.roomName(roomID),
			Background: protocol.DefaultBackground(),
		}
		rg.rooms[roomID] = room
		rg.logger.Info("room created", "room", roomID)
	}
	room.Users = append(room.Users, user)
	return room
}

// Leave removes the user from the room. The room is deleted synchronously
// when its last participant leaves; an empty room never lingers. Returns
// whether the room existed and whether it was deleted.
func (rg *Registry) Leave(roomID, userID string) (ok, deleted bool) {
	room, found := rg.rooms[roomID]
	if !found {
		return false, false
	}
	users := room.Users[:0]
	for _, u := range room.Users {
		if u.ID != userID {
			users = append(users, u)
		}
	}
	room.Users = users
	if len(room.Users) == 0 {
		delete(rg.rooms, roomID)
		rg.logger.Info("room deleted", "room", roomID)
		return true, true
	}
	return true, false
}

// AddShape appends a shape to the room. Unknown rooms are a silent no-op:
// the mutation may have raced a concurrent leave.
func (rg *Registry) AddShape(roomID string, shape protocol.Shape) bool {
	room, ok := rg.rooms[roomID]
	if !ok {
		return false
	}
	room.Shapes = append(room.Shapes, shape)
	return true
}

// PatchShape merges a partial update into the identified shape. Unknown
// room or shape id is a silent no-op.
func (rg *Registry) PatchShape(roomID, shapeID string, changes protocol.ShapePatch) bool {
	room, ok := rg.rooms[roomID]
	if !ok {
		return false
	}
	for i := range room.Shapes {
		if room.Shapes[i].ID == shapeID {
			changes.ApplyTo(&room.Shapes[i])
			return true
		}
	}
	return false
}

// DeleteShape removes the identified shape. Deleting an id that is already
// gone still succeeds as long as the room exists.
func (rg *Registry) DeleteShape(roomID, shapeID string) bool {
	room, ok := rg.rooms[roomID]
	if !ok {
		return false
	}
	shapes := room.Shapes[:0]
	for _, s := range room.Shapes {
		if s.ID != shapeID {
			shapes = append(shapes, s)
		}
	}
	room.Shapes = shapes
	return true
}

// ClearShapes empties the room's shape sequence.
func (rg *Registry) ClearShapes(roomID string) bool {
	room, ok := rg.rooms[roomID]
	if !ok {
		return false
	}
	room.Shapes = nil
	return true
}

// SetBackground replaces the room backdrop.
func (rg *Registry) SetBackground(roomID string, bg protocol.Background) bool {
	room, ok := rg.rooms[roomID]
	if !ok {
		return false
	}
	room.Background = bg
	return true
}

// Room looks up a live room.
func (rg *Registry) Room(roomID string) (*Room, bool) {
	room, ok := rg.rooms[roomID]
	return room, ok
}

// Count returns the number of live rooms.
func (rg *Registry) Count() int {
	return len(rg.rooms)
}

func (rg *Registry) roomName(roomID string) string {
	short := roomID
	if len(short) > rg.nameLength {
		short = short[:rg.nameLength]
	}
	return "Room " + short
}
