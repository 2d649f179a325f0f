// Package export renders a board snapshot to PDF.
package export

import (
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"CollabBoard/internal/protocol"
)

// pxToMM scales canvas pixels down to A4 millimetres.
const pxToMM = 3.0

// WritePDF draws the shape sequence onto an A4 page in insertion order, so
// stacking matches the on-screen render.
func WritePDF(path string, shapes []protocol.Shape) error {
	p := gofpdf.New("P", "mm", "A4", "")
	p.AddPage()

	for _, s := range shapes {
		r, g, b := hexRGB(s.Stroke)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(float64(s.StrokeWidth) / pxToMM)

		style := "D"
		if s.Fill != "" && s.Fill != protocol.FillNone {
			fr, fg, fb := hexRGB(s.Fill)
			p.SetFillColor(fr, fg, fb)
			style = "FD"
		}

		switch s.Tool {
		case protocol.ToolPencil, protocol.ToolLine:
			for i := 1; i < len(s.Points); i++ {
				p.Line(
					s.Points[i-1].X/pxToMM, s.Points[i-1].Y/pxToMM,
					s.Points[i].X/pxToMM, s.Points[i].Y/pxToMM,
				)
			}
		case protocol.ToolRectangle:
			p.Rect(s.X/pxToMM, s.Y/pxToMM, s.Width/pxToMM, s.Height/pxToMM, style)
		case protocol.ToolCircle:
			rx, ry := s.Width/2/pxToMM, s.Height/2/pxToMM
			p.Ellipse(s.X/pxToMM+rx, s.Y/pxToMM+ry, rx, ry, 0, style)
		case protocol.ToolText:
			size := s.FontSize
			if size <= 0 {
				size = 16
			}
			p.SetTextColor(r, g, b)
			p.SetFont("Helvetica", "", size/pxToMM*2.83) // px to pt
			p.Text(s.X/pxToMM, s.Y/pxToMM, s.Text)
		}
	}
	return p.OutputFileAndClose(path)
}

// hexRGB parses a #RRGGBB or #RGB color, defaulting to black.
func hexRGB(hex string) (int, int, int) {
	if len(hex) == 0 || hex[0] != '#' {
		return 0, 0, 0
	}
	hex = hex[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
