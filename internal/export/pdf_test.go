package export

import (
	"os"
	"path/filepath"
	"testing"

	"CollabBoard/internal/protocol"
)

func TestWritePDF(t *testing.T) {
	shapes := []protocol.Shape{
		{
			ID: "s1", Tool: protocol.ToolPencil,
			Points: []protocol.Point{{X: 10, Y: 10}, {X: 40, Y: 60}, {X: 90, Y: 30}},
			Stroke: "#EF4444", StrokeWidth: 2,
		},
		{
			ID: "s2", Tool: protocol.ToolRectangle,
			X: 100, Y: 100, Width: 80, Height: 50,
			Fill: "#10B981", Stroke: "#000", StrokeWidth: 1,
		},
		{
			ID: "s3", Tool: protocol.ToolCircle,
			X: 200, Y: 40, Width: 60, Height: 60,
			Fill: protocol.FillNone, Stroke: "#3B82F6", StrokeWidth: 3,
		},
		{
			ID: "s4", Tool: protocol.ToolText,
			X: 50, Y: 250, Text: "hello", FontSize: 16,
			Stroke: "#000000", StrokeWidth: 1,
		},
	}

	path := filepath.Join(t.TempDir(), "board.pdf")
	if err := WritePDF(path, shapes); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("wrote empty PDF")
	}
}

func TestWritePDFEmptyBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := WritePDF(path, nil); err != nil {
		t.Fatal(err)
	}
}

func TestHexRGB(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b int
	}{
		{"#EF4444", 239, 68, 68},
		{"#000", 0, 0, 0},
		{"#fff", 255, 255, 255},
		{"not-a-color", 0, 0, 0},
		{"", 0, 0, 0},
	}
	for _, c := range cases {
		r, g, b := hexRGB(c.in)
		if r != c.r || g != c.g || b != c.b {
			t.Errorf("hexRGB(%q) = (%d,%d,%d), want (%d,%d,%d)", c.in, r, g, b, c.r, c.g, c.b)
		}
	}
}
