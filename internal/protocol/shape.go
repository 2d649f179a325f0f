package protocol

// Tool names accepted in Shape.Tool. The eraser and select tools never
// produce shapes, so they have no constant here.
const (
	ToolPencil    = "pencil"
	ToolLine      = "line"
	ToolRectangle = "rectangle"
	ToolCircle    = "circle"
	ToolText      = "text"
)

// FillNone is the sentinel for "no fill". A shape with an unfilled interior
// carries this value explicitly; an empty Fill means the field was never set.
const FillNone = "transparent"

// Point is a single coordinate on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is one drawn vector object. A single struct covers all five tools:
// pencil and line use Points, rectangle and circle use X/Y/Width/Height,
// text uses X/Y/Text/FontSize. Unused fields stay at their zero value and
// are omitted on the wire.
type Shape struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Tool        string  `json:"tool"`
	Points      []Point `json:"points,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Text        string  `json:"text,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// ShapePatch is a partial update to an existing shape. Only non-nil fields
// overwrite; remote peers always send patches, never full replacements.
type ShapePatch struct {
	Points      *[]Point `json:"points,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Text        *string  `json:"text,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
}

// ApplyTo merges the patch into s, field by field.
func (p ShapePatch) ApplyTo(s *Shape) {
	if p.Points != nil {
		s.Points = *p.Points
	}
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Text != nil {
		s.Text = *p.Text
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.Fill != nil {
		s.Fill = *p.Fill
	}
	if p.Stroke != nil {
		s.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		s.StrokeWidth = *p.StrokeWidth
	}
}

// Background variants.
const (
	BackgroundColor = "color"
	BackgroundImage = "image"
)

// Background is the room backdrop: a solid color or a data-URI image.
type Background struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DefaultBackground is the backdrop of a freshly created room.
func DefaultBackground() Background {
	return Background{Type: BackgroundColor, Value: "#ffffff"}
}

// Cursor is a participant's live pointer position. It is relayed, never
// stored server-side.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User is one participant's identity within a room.
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Cursor *Cursor `json:"cursor,omitempty"`
}
