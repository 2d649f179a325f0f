package client

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"CollabBoard/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeConn records outbound messages. Inbound traffic is injected straight
// through handleMessage, so ReadJSON never gets called.
type fakeConn struct {
	mu   sync.Mutex
	sent []protocol.Message
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, v.(protocol.Message))
	return nil
}

func (f *fakeConn) ReadJSON(any) error { return io.EOF }
func (f *fakeConn) Close() error       { return nil }

func (f *fakeConn) messages() []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.Message(nil), f.sent...)
}

func newTestBridge() (*Bridge, *fakeConn) {
	b := NewBridge(testLogger())
	f := &fakeConn{}
	b.conn = f
	b.connected = true
	return b, f
}

// joinTestRoom walks the bridge through the server's side of a join.
func joinTestRoom(b *Bridge, roomID string) protocol.User {
	me := protocol.User{ID: "me", Name: "alice", Color: "#EF4444"}
	b.handleMessage(protocol.NewMessage(protocol.TypeRoomJoined, protocol.RoomJoined{
		Room: protocol.RoomInfo{
			ID:         roomID,
			Name:       "Room " + roomID,
			Users:      []protocol.User{me},
			Background: protocol.DefaultBackground(),
		},
		User: me,
	}))
	return me
}

func TestJoinRoomGeneratesIdentity(t *testing.T) {
	b, f := newTestBridge()
	b.JoinRoom("alice", "r1")

	msgs := f.messages()
	if len(msgs) != 1 || msgs[0].Type != protocol.TypeRoomJoin {
		t.Fatalf("sent %d messages, want one room:join", len(msgs))
	}
	var req protocol.JoinRequest
	if err := json.Unmarshal(msgs[0].Data, &req); err != nil {
		t.Fatalf("bad join payload: %v", err)
	}
	if req.RoomID != "r1" || req.User.Name != "alice" || req.User.ID == "" {
		t.Errorf("join request = %+v", req)
	}
	inPalette := false
	for _, c := range palette {
		if c == req.User.Color {
			inPalette = true
		}
	}
	if !inPalette {
		t.Errorf("color %q not drawn from the swatch palette", req.User.Color)
	}
}

func TestRoomJoinedAdoptsRosterAndIdentity(t *testing.T) {
	b, _ := newTestBridge()
	me := joinTestRoom(b, "r1")

	if got := b.CurrentUser(); got.ID != me.ID {
		t.Errorf("CurrentUser = %+v, want %+v", got, me)
	}
	room := b.CurrentRoom()
	if room == nil || room.ID != "r1" {
		t.Fatalf("CurrentRoom = %+v", room)
	}
	if users := b.Users(); len(users) != 1 || users[0].ID != "me" {
		t.Errorf("Users = %v", users)
	}
}

func TestShapesInitSeedsDocument(t *testing.T) {
	b, _ := newTestBridge()
	joinTestRoom(b, "r1")

	b.handleMessage(protocol.NewMessage(protocol.TypeShapesInit, []protocol.Shape{rect("s1"), rect("s2")}))

	doc := b.Document()
	if len(doc.Shapes) != 2 {
		t.Fatalf("document has %d shapes, want 2", len(doc.Shapes))
	}
	if doc.HistoryIndex != 1 {
		t.Errorf("HistoryIndex = %d, want 1 (seed is one forward action)", doc.HistoryIndex)
	}
}

func TestLocalAddAppliesThenSends(t *testing.T) {
	b, f := newTestBridge()
	joinTestRoom(b, "r1")

	b.AddShape(protocol.Shape{Tool: protocol.ToolRectangle, Stroke: "#000000", StrokeWidth: 2})

	doc := b.Document()
	if len(doc.Shapes) != 1 {
		t.Fatalf("optimistic apply missing: %d shapes", len(doc.Shapes))
	}
	if doc.Shapes[0].ID == "" || doc.Shapes[0].UserID != "me" {
		t.Errorf("identity not filled in: %+v", doc.Shapes[0])
	}

	msgs := f.messages()
	last := msgs[len(msgs)-1]
	if last.Type != protocol.TypeShapeAdd {
		t.Fatalf("last sent = %s, want shape:add", last.Type)
	}
	var add protocol.ShapeAdd
	json.Unmarshal(last.Data, &add)
	if add.RoomID != "r1" || add.Shape.ID != doc.Shapes[0].ID {
		t.Errorf("wire payload = %+v", add)
	}
}

func TestUndoRedoNeverTransmitted(t *testing.T) {
	b, f := newTestBridge()
	joinTestRoom(b, "r1")
	b.AddShape(rect("s1"))
	before := len(f.messages())

	b.Undo()
	if doc := b.Document(); len(doc.Shapes) != 0 {
		t.Errorf("undo did not revert: %v", doc.Shapes)
	}
	b.Redo()
	if doc := b.Document(); len(doc.Shapes) != 1 {
		t.Errorf("redo did not restore: %v", doc.Shapes)
	}

	if after := len(f.messages()); after != before {
		t.Errorf("undo/redo transmitted %d messages", after-before)
	}
}

func TestRemoteShapeEventsApply(t *testing.T) {
	b, f := newTestBridge()
	joinTestRoom(b, "r1")
	sentBefore := len(f.messages())

	b.handleMessage(protocol.NewMessage(protocol.TypeShapeAdded, rect("s1")))
	x := 7.0
	b.handleMessage(protocol.NewMessage(protocol.TypeShapeUpdated, protocol.ShapeUpdate{
		ShapeID: "s1", Changes: protocol.ShapePatch{X: &x},
	}))
	if doc := b.Document(); doc.Shapes[0].X != 7 {
		t.Errorf("remote patch not applied: %+v", doc.Shapes[0])
	}

	b.handleMessage(protocol.NewMessage(protocol.TypeShapeDeleted, "s1"))
	if doc := b.Document(); len(doc.Shapes) != 0 {
		t.Errorf("remote delete not applied")
	}

	b.handleMessage(protocol.NewMessage(protocol.TypeShapeAdded, rect("s2")))
	b.handleMessage(protocol.Message{Type: protocol.TypeShapesCleared})
	if doc := b.Document(); len(doc.Shapes) != 0 {
		t.Errorf("remote clear not applied")
	}

	bg := protocol.Background{Type: protocol.BackgroundColor, Value: "#123456"}
	b.handleMessage(protocol.NewMessage(protocol.TypeBackgroundUpdated, bg))
	if doc := b.Document(); doc.Background != bg {
		t.Errorf("remote background not applied: %v", doc.Background)
	}

	// Remote events mutate the replica only; nothing goes back out.
	if got := len(f.messages()); got != sentBefore {
		t.Errorf("remote events echoed %d messages", got-sentBefore)
	}
}

func TestCursorMoveUpdatesRoster(t *testing.T) {
	b, _ := newTestBridge()
	joinTestRoom(b, "r1")
	b.handleMessage(protocol.NewMessage(protocol.TypeUserJoined, protocol.User{ID: "u2", Name: "bob", Color: "#10B981"}))

	b.handleMessage(protocol.NewMessage(protocol.TypeCursorMove, protocol.CursorMove{UserID: "u2", X: 5, Y: 6}))

	users := b.Users()
	if len(users) != 2 {
		t.Fatalf("roster has %d users, want 2", len(users))
	}
	if users[1].Cursor == nil || users[1].Cursor.X != 5 || users[1].Cursor.Y != 6 {
		t.Errorf("cursor not tracked: %+v", users[1])
	}

	b.handleMessage(protocol.NewMessage(protocol.TypeUserLeft, "u2"))
	if users := b.Users(); len(users) != 1 {
		t.Errorf("user:left not applied: %v", users)
	}
}

func TestLocalOpsRequireRoom(t *testing.T) {
	b, f := newTestBridge()

	b.AddShape(rect("s1"))
	b.ClearShapes()
	b.SendCursor(1, 2)
	b.SetBackground(protocol.DefaultBackground())

	if msgs := f.messages(); len(msgs) != 0 {
		t.Errorf("unjoined bridge transmitted %d messages", len(msgs))
	}
	if doc := b.Document(); len(doc.Shapes) != 0 {
		t.Errorf("unjoined bridge mutated the document")
	}
}

func TestLeaveRoomClearsPresence(t *testing.T) {
	b, f := newTestBridge()
	joinTestRoom(b, "r1")
	b.AddShape(rect("s1"))

	b.LeaveRoom()

	msgs := f.messages()
	last := msgs[len(msgs)-1]
	if last.Type != protocol.TypeRoomLeave {
		t.Fatalf("last sent = %s, want room:leave", last.Type)
	}
	if b.CurrentRoom() != nil || b.CurrentUser().ID != "" || len(b.Users()) != 0 {
		t.Errorf("presence not cleared")
	}
	// The replica keeps its contents; a rejoin reseeds it via shapes:init.
	if doc := b.Document(); len(doc.Shapes) != 1 {
		t.Errorf("document cleared on leave")
	}
}

func TestMalformedRemotePayloadIgnored(t *testing.T) {
	b, _ := newTestBridge()
	joinTestRoom(b, "r1")

	b.handleMessage(protocol.Message{Type: protocol.TypeShapeAdded, Data: []byte(`{broken`)})
	b.handleMessage(protocol.Message{Type: "no:such:event"})

	if doc := b.Document(); len(doc.Shapes) != 0 || doc.HistoryIndex != 0 {
		t.Errorf("malformed payloads mutated the document")
	}
}
