// Package aspect holds the aspect-ratio policy applied to crop regions.
package aspect

import (
	"fmt"
	"strconv"
	"strings"
)

// AspectRatio represents a width:height ratio. The zero Width/Height pair is
// the free-form ratio.
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Common aspect ratios
var (
	Free       = AspectRatio{0, 0, "free"}
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns the ratio presets offered to the user
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Free, Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// IsFree reports whether the ratio leaves width and height unconstrained.
func (a AspectRatio) IsFree() bool {
	return a.Width <= 0 || a.Height <= 0
}

// Value returns width/height, or 0 for the free ratio.
func (a AspectRatio) Value() float64 {
	if a.IsFree() {
		return 0
	}
	return float64(a.Width) / float64(a.Height)
}

func (a AspectRatio) String() string {
	if a.IsFree() {
		return "free"
	}
	if a.Name != "" {
		return fmt.Sprintf("%s (%d:%d)", a.Name, a.Width, a.Height)
	}
	return fmt.Sprintf("%d:%d", a.Width, a.Height)
}

// Parse accepts a preset name, "W:H", "WxH" or a decimal ratio such as "1.5".
func Parse(s string) (AspectRatio, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return Free, nil
	}
	for _, r := range CommonAspectRatios() {
		if r.Name == s {
			return r, nil
		}
	}

	for _, sep := range []string{":", "x", "/"} {
		if left, right, ok := strings.Cut(s, sep); ok {
			w, err1 := strconv.Atoi(strings.TrimSpace(left))
			h, err2 := strconv.Atoi(strings.TrimSpace(right))
			if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
				return Free, fmt.Errorf("invalid aspect ratio %q", s)
			}
			return AspectRatio{Width: w, Height: h}, nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return Free, fmt.Errorf("invalid aspect ratio %q", s)
	}
	// keep three decimals of precision as an integer pair
	return AspectRatio{Width: int(v*1000 + 0.5), Height: 1000}, nil
}
