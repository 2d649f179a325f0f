package client

import "CollabBoard/internal/protocol"

// DocumentState is this client's replica of the board: the current shape
// sequence, the backdrop, and a linear undo history of full shape-sequence
// snapshots. history[historyIndex] always equals Shapes; snapshots are
// treated as immutable once stored.
type DocumentState struct {
	Shapes       []protocol.Shape
	History      [][]protocol.Shape
	HistoryIndex int
	Background   protocol.Background
}

// NewDocumentState returns the empty board: one empty snapshot and a white
// backdrop.
func NewDocumentState() DocumentState {
	return DocumentState{
		History:    [][]protocol.Shape{{}},
		Background: protocol.DefaultBackground(),
	}
}

// Action is one document transition. Local user intents and remote
// broadcasts reduce through the same closed set.
type Action interface{ isAction() }

type AddShape struct{ Shape protocol.Shape }

type UpdateShape struct {
	ID      string
	Changes protocol.ShapePatch
}

type DeleteShape struct{ ID string }

type ClearShapes struct{}

type SetShapes struct{ Shapes []protocol.Shape }

type SetBackground struct{ Background protocol.Background }

type Undo struct{}

type Redo struct{}

func (AddShape) isAction()      {}
func (UpdateShape) isAction()   {}
func (DeleteShape) isAction()   {}
func (ClearShapes) isAction()   {}
func (SetShapes) isAction()     {}
func (SetBackground) isAction() {}
func (Undo) isAction()          {}
func (Redo) isAction()          {}

// Reduce is the pure transition function. Every shape mutation truncates
// the history after the cursor and appends the new snapshot, so redoing an
// abandoned branch after a fresh edit is impossible. SetBackground skips
// history entirely: undo is shape-only. Undo and Redo clamp silently at the
// history bounds.
func Reduce(s DocumentState, action Action) DocumentState {
	switch a := action.(type) {
	case AddShape:
		shapes := append(copyShapes(s.Shapes), a.Shape)
		return pushHistory(s, shapes)

	case UpdateShape:
		shapes := copyShapes(s.Shapes)
		for i := range shapes {
			if shapes[i].ID == a.ID {
				a.Changes.ApplyTo(&shapes[i])
			}
		}
		return pushHistory(s, shapes)

	case DeleteShape:
		shapes := make([]protocol.Shape, 0, len(s.Shapes))
		for _, sh := range s.Shapes {
			if sh.ID != a.ID {
				shapes = append(shapes, sh)
			}
		}
		return pushHistory(s, shapes)

	case ClearShapes:
		return pushHistory(s, []protocol.Shape{})

	case SetShapes:
		return pushHistory(s, copyShapes(a.Shapes))

	case SetBackground:
		s.Background = a.Background
		return s

	case Undo:
		if s.HistoryIndex <= 0 {
			return s
		}
		s.HistoryIndex--
		s.Shapes = s.History[s.HistoryIndex]
		return s

	case Redo:
		if s.HistoryIndex >= len(s.History)-1 {
			return s
		}
		s.HistoryIndex++
		s.Shapes = s.History[s.HistoryIndex]
		return s
	}
	return s
}

func pushHistory(s DocumentState, shapes []protocol.Shape) DocumentState {
	history := make([][]protocol.Shape, 0, s.HistoryIndex+2)
	history = append(history, s.History[:s.HistoryIndex+1]...)
	history = append(history, shapes)

	s.Shapes = shapes
	s.History = history
	s.HistoryIndex = len(history) - 1
	return s
}

func copyShapes(shapes []protocol.Shape) []protocol.Shape {
	out := make([]protocol.Shape, len(shapes))
	copy(out, shapes)
	return out
}
