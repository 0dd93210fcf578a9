// Package geometry maps crop regions between display space and the image's
// natural pixel grid.
//
// The image is fitted into the display box with "contain" scaling and then
// zoomed uniformly about the box center. A region drawn in the box therefore
// covers less of the natural image as zoom grows, while the region itself
// stays where the user put it.
package geometry

import (
	"image"
	"math"

	"github.com/menta2k/cropkit/pkg/region"
	"github.com/menta2k/cropkit/pkg/types"
)

// Geometry describes how the natural image lands in the display box.
type Geometry struct {
	Natural types.Size
	Box     types.Size
	Zoom    float64

	// ScaleToNatural converts a display-space length into natural pixels.
	ScaleToNatural types.Point
	// ContainOffset is the display position of the image's top-left corner.
	// It goes negative once the zoomed image is larger than the box.
	ContainOffset      types.Point
	DisplayedImageSize types.Size
}

// Compute derives the geometry for a natural size shown in box at zoom.
// A zero geometry is returned when any input is degenerate.
func Compute(natural, box types.Size, zoom float64) Geometry {
	if natural.Empty() || box.Empty() || zoom <= 0 {
		return Geometry{Natural: natural, Box: box, Zoom: zoom}
	}

	// contain fit in the un-zoomed box, then zoom about the box center;
	// the visible window of the un-zoomed layout is box/zoom
	s := math.Min(box.Width/natural.Width, box.Height/natural.Height)
	scale := s * zoom
	shown := types.Size{Width: natural.Width * scale, Height: natural.Height * scale}

	return Geometry{
		Natural:        natural,
		Box:            box,
		Zoom:           zoom,
		ScaleToNatural: types.Point{X: 1 / scale, Y: 1 / scale},
		ContainOffset: types.Point{
			X: (box.Width - shown.Width) / 2,
			Y: (box.Height - shown.Height) / 2,
		},
		DisplayedImageSize: shown,
	}
}

// Valid reports whether the geometry can map coordinates.
func (g Geometry) Valid() bool {
	return g.ScaleToNatural.X > 0 && g.ScaleToNatural.Y > 0
}

// ToNatural maps a display-space region onto the natural pixel grid. Edges
// are rounded to the nearest pixel and clamped to the image, so the result
// may be empty only when the region lies on or outside the image border.
func (g Geometry) ToNatural(r region.Region) image.Rectangle {
	if !g.Valid() {
		return image.Rectangle{}
	}
	kx, ky := g.ScaleToNatural.X, g.ScaleToNatural.Y
	ox, oy := g.ContainOffset.X, g.ContainOffset.Y
	w, h := int(math.Round(g.Natural.Width)), int(math.Round(g.Natural.Height))

	x0 := clampInt(int(math.Round((r.X-ox)*kx)), 0, w)
	y0 := clampInt(int(math.Round((r.Y-oy)*ky)), 0, h)
	x1 := clampInt(int(math.Round((r.Right()-ox)*kx)), 0, w)
	y1 := clampInt(int(math.Round((r.Bottom()-oy)*ky)), 0, h)

	return image.Rect(x0, y0, x1, y1)
}

// ToDisplay maps a natural pixel rectangle back into display space.
func (g Geometry) ToDisplay(rect image.Rectangle) region.Region {
	if !g.Valid() {
		return region.Region{}
	}
	return region.Region{
		X:      float64(rect.Min.X)/g.ScaleToNatural.X + g.ContainOffset.X,
		Y:      float64(rect.Min.Y)/g.ScaleToNatural.Y + g.ContainOffset.Y,
		Width:  float64(rect.Dx()) / g.ScaleToNatural.X,
		Height: float64(rect.Dy()) / g.ScaleToNatural.Y,
	}
}

// ImageRegion returns the part of the display box covered by the image.
func (g Geometry) ImageRegion() region.Region {
	r := region.Region{
		X:      g.ContainOffset.X,
		Y:      g.ContainOffset.Y,
		Width:  g.DisplayedImageSize.Width,
		Height: g.DisplayedImageSize.Height,
	}
	return r.ClampToBox(region.Bounds{Box: g.Box})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
