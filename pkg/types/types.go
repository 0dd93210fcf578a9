package types

import "fmt"

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the normalized center of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Primary represents the primary subject detected in an image
type Primary struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Cx         float64 `json:"cx"`
	Cy         float64 `json:"cy"`
}

// AnalysisResult contains the complete analysis result from the vision model
type AnalysisResult struct {
	Primary     Primary  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Size is a width/height pair in display-space units.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Empty reports whether either side is non-positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Point is a display-space position.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Handle identifies which edges or corners a resize gesture affects.
type Handle int

const (
	HandleNone Handle = iota
	TopLeft
	Top
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left
)

var handleNames = map[Handle]string{
	TopLeft:     "top-left",
	Top:         "top",
	TopRight:    "top-right",
	Right:       "right",
	BottomRight: "bottom-right",
	Bottom:      "bottom",
	BottomLeft:  "bottom-left",
	Left:        "left",
}

// Handles returns the eight resize handles clockwise from the top-left corner.
func Handles() []Handle {
	return []Handle{TopLeft, Top, TopRight, Right, BottomRight, Bottom, BottomLeft, Left}
}

func (h Handle) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	return "none"
}

// MovesLeft reports whether the handle drags the left edge.
func (h Handle) MovesLeft() bool { return h == TopLeft || h == Left || h == BottomLeft }

// MovesRight reports whether the handle drags the right edge.
func (h Handle) MovesRight() bool { return h == TopRight || h == Right || h == BottomRight }

// MovesTop reports whether the handle drags the top edge.
func (h Handle) MovesTop() bool { return h == TopLeft || h == Top || h == TopRight }

// MovesBottom reports whether the handle drags the bottom edge.
func (h Handle) MovesBottom() bool { return h == BottomLeft || h == Bottom || h == BottomRight }

// IsCorner reports whether the handle affects two edges.
func (h Handle) IsCorner() bool {
	return h == TopLeft || h == TopRight || h == BottomRight || h == BottomLeft
}

// MarshalText implements encoding.TextMarshaler.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := ParseHandle(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHandle converts a handle name such as "bottom-right" into a Handle.
func ParseHandle(name string) (Handle, error) {
	if name == "" || name == "none" {
		return HandleNone, nil
	}
	for h, n := range handleNames {
		if n == name {
			return h, nil
		}
	}
	return HandleNone, fmt.Errorf("unknown handle: %q", name)
}
