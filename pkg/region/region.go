// Package region implements the crop rectangle and its mutation primitives.
//
// A Region lives in display space: the coordinate system of the box the
// image is shown in, with the origin at the box's top-left corner. Every
// primitive returns a new Region that satisfies the invariants described by
// Bounds; violations are corrected by clamping, never reported as errors.
package region

import (
	"math"

	"github.com/menta2k/cropkit/pkg/types"
)

// DefaultMinSize is the smallest width or height a region may shrink to.
const DefaultMinSize = 20.0

// DefaultFraction is the share of the shorter display side used for a new region.
const DefaultFraction = 0.6

const epsilon = 1e-6

// Region is a crop rectangle in display-space units.
type Region struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Bounds carries the constraints a region must satisfy.
type Bounds struct {
	Box     types.Size
	MinSize float64
	// Ratio is width/height; zero means free-form.
	Ratio float64
}

func (b Bounds) minSide() float64 {
	if b.MinSize > 0 {
		return b.MinSize
	}
	return DefaultMinSize
}

// minWidth is the narrowest width that keeps both sides at or above the
// minimum size under the current ratio.
func (b Bounds) minWidth() float64 {
	m := b.minSide()
	if b.Ratio > 0 {
		return math.Max(m, m*b.Ratio)
	}
	return m
}

// fitWidth is the width of the largest rectangle of the current ratio that
// fits the box.
func (b Bounds) fitWidth() float64 {
	return math.Min(b.Box.Width, b.Box.Height*b.Ratio)
}

// Right returns the x coordinate of the right edge.
func (r Region) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Region) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of the region.
func (r Region) Center() types.Point {
	return types.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Size returns the width and height of the region.
func (r Region) Size() types.Size {
	return types.Size{Width: r.Width, Height: r.Height}
}

// NewCentered builds the default region for a freshly loaded image: centered,
// sized to fraction of the shorter display side and adjusted to the ratio.
func NewCentered(b Bounds, fraction float64) Region {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultFraction
	}
	side := math.Min(b.Box.Width, b.Box.Height) * fraction
	side = math.Max(side, math.Min(b.minSide(), math.Min(b.Box.Width, b.Box.Height)))

	w, h := side, side
	if b.Ratio > 0 {
		h = w / b.Ratio
	}
	r := Region{
		X:      (b.Box.Width - w) / 2,
		Y:      (b.Box.Height - h) / 2,
		Width:  w,
		Height: h,
	}
	return r.ApplyAspectRatio(b)
}

// MoveBy translates the region and keeps it fully inside the box.
func (r Region) MoveBy(dx, dy float64, b Bounds) Region {
	out := r.ClampToBox(b)
	out.X = clamp(out.X+dx, 0, b.Box.Width-out.Width)
	out.Y = clamp(out.Y+dy, 0, b.Box.Height-out.Height)
	return out
}

// ResizeFromHandle moves the edges selected by h by (dx, dy). Edges opposite
// to the handle stay fixed. With a ratio set the result is corrected to that
// ratio before being returned.
func (r Region) ResizeFromHandle(h types.Handle, dx, dy float64, b Bounds) Region {
	if h == types.HandleNone {
		return r.ClampToBox(b)
	}
	if b.Ratio > 0 {
		return r.resizeLocked(h, dx, dy, b)
	}
	return r.resizeFree(h, dx, dy, b)
}

func (r Region) resizeFree(h types.Handle, dx, dy float64, b Bounds) Region {
	base := r.ClampToBox(b)
	minW := math.Min(b.minSide(), b.Box.Width)
	minH := math.Min(b.minSide(), b.Box.Height)

	left, top, right, bottom := base.X, base.Y, base.Right(), base.Bottom()
	if h.MovesLeft() {
		left = clamp(left+dx, 0, right-minW)
	}
	if h.MovesRight() {
		right = clamp(right+dx, left+minW, b.Box.Width)
	}
	if h.MovesTop() {
		top = clamp(top+dy, 0, bottom-minH)
	}
	if h.MovesBottom() {
		bottom = clamp(bottom+dy, top+minH, b.Box.Height)
	}

	return Region{X: left, Y: top, Width: right - left, Height: bottom - top}.ClampToBox(Bounds{Box: b.Box, MinSize: b.MinSize})
}

func (r Region) resizeLocked(h types.Handle, dx, dy float64, b Bounds) Region {
	ratio := b.Ratio
	base := r.ClampToBox(b)
	free := base.resizeFree(h, dx, dy, b)

	var w float64
	switch {
	case h.IsCorner():
		// the axis the pointer moved further along drives the size
		if math.Abs(dx) >= math.Abs(dy)*ratio {
			w = free.Width
		} else {
			w = free.Height * ratio
		}
	case h == types.Left || h == types.Right:
		w = free.Width
	default:
		w = free.Height * ratio
	}

	var availW, availH float64
	switch {
	case h.MovesRight():
		availW = b.Box.Width - base.X
	case h.MovesLeft():
		availW = base.Right()
	default:
		availW = b.Box.Width
	}
	switch {
	case h.MovesBottom():
		availH = b.Box.Height - base.Y
	case h.MovesTop():
		availH = base.Bottom()
	default:
		availH = b.Box.Height
	}

	maxW := math.Min(availW, availH*ratio)
	if w > maxW {
		w = maxW
	}
	if minW := b.minWidth(); w < minW {
		w = math.Min(minW, maxW)
	}
	height := w / ratio

	c := base.Center()
	out := Region{Width: w, Height: height}
	switch {
	case h.MovesRight():
		out.X = base.X
	case h.MovesLeft():
		out.X = base.Right() - w
	default:
		out.X = clamp(c.X-w/2, 0, b.Box.Width-w)
	}
	switch {
	case h.MovesBottom():
		out.Y = base.Y
	case h.MovesTop():
		out.Y = base.Bottom() - height
	default:
		out.Y = clamp(c.Y-height/2, 0, b.Box.Height-height)
	}
	return out.ClampToBox(b)
}

// ApplyAspectRatio forces the region onto b.Ratio. Height is derived from
// width with the top-left corner kept; a result that overflows the box is
// shrunk to fit and re-centered on the old center. When even the minimum
// ratio-respecting size cannot fit, the largest rectangle of the ratio is
// centered in the box. A free ratio only restores the minimum size and
// clamps.
func (r Region) ApplyAspectRatio(b Bounds) Region {
	if b.Ratio <= 0 {
		return r.GrowToMin(b).ClampToBox(b)
	}
	ratio := b.Ratio
	fitW := b.fitWidth()
	if b.minWidth() > fitW {
		w, h := fitW, fitW/ratio
		return Region{X: (b.Box.Width - w) / 2, Y: (b.Box.Height - h) / 2, Width: w, Height: h}
	}

	base := r.ClampToBox(Bounds{Box: b.Box, MinSize: b.MinSize})
	w := math.Max(base.Width, b.minWidth())
	h := w / ratio
	if w <= fitW && base.X+w <= b.Box.Width+epsilon && base.Y+h <= b.Box.Height+epsilon {
		return Region{X: base.X, Y: base.Y, Width: w, Height: h}.ClampToBox(b)
	}

	if w > fitW {
		w = fitW
		h = w / ratio
	}
	c := base.Center()
	return Region{
		X:      clamp(c.X-w/2, 0, b.Box.Width-w),
		Y:      clamp(c.Y-h/2, 0, b.Box.Height-h),
		Width:  w,
		Height: h,
	}
}

// GrowToMin grows each side below the minimum size about the center, up to
// the minimum or the box side when the box is smaller. The result is not
// clamped.
func (r Region) GrowToMin(b Bounds) Region {
	c := r.Center()
	if minW := math.Min(b.minSide(), b.Box.Width); r.Width < minW {
		r.Width = minW
		r.X = c.X - minW/2
	}
	if minH := math.Min(b.minSide(), b.Box.Height); r.Height < minH {
		r.Height = minH
		r.Y = c.Y - minH/2
	}
	return r
}

// ClampToBox translates the region back inside the box, shrinking it only if
// it is larger than the box. It never grows a region.
func (r Region) ClampToBox(b Bounds) Region {
	w, h := r.Width, r.Height
	if b.Ratio > 0 {
		scale := 1.0
		if w > b.Box.Width {
			scale = math.Min(scale, b.Box.Width/w)
		}
		if h > b.Box.Height {
			scale = math.Min(scale, b.Box.Height/h)
		}
		w, h = w*scale, h*scale
	} else {
		w = math.Min(w, b.Box.Width)
		h = math.Min(h, b.Box.Height)
	}
	return Region{
		X:      clamp(r.X, 0, b.Box.Width-w),
		Y:      clamp(r.Y, 0, b.Box.Height-h),
		Width:  w,
		Height: h,
	}
}

// Valid reports whether the region satisfies every invariant of b.
func (r Region) Valid(b Bounds) bool {
	if r.X < -epsilon || r.Y < -epsilon {
		return false
	}
	if r.Right() > b.Box.Width+epsilon || r.Bottom() > b.Box.Height+epsilon {
		return false
	}
	m := b.minSide()
	if r.Width < math.Min(m, b.Box.Width)-epsilon || r.Height < math.Min(m, b.Box.Height)-epsilon {
		// a box smaller than the minimum is the one case where containment wins
		if b.Ratio <= 0 || b.minWidth() <= b.fitWidth() {
			return false
		}
	}
	if b.Ratio > 0 && r.Height > 0 {
		if math.Abs(r.Width/r.Height-b.Ratio) > epsilon*math.Max(1, b.Ratio) {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p types.Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// HandlePoint returns the display position of a handle.
func (r Region) HandlePoint(h types.Handle) types.Point {
	c := r.Center()
	p := c
	if h.MovesLeft() {
		p.X = r.X
	}
	if h.MovesRight() {
		p.X = r.Right()
	}
	if h.MovesTop() {
		p.Y = r.Y
	}
	if h.MovesBottom() {
		p.Y = r.Bottom()
	}
	return p
}

// HandleAt returns the handle within tolerance of p. Corners win over edges.
func (r Region) HandleAt(p types.Point, tolerance float64) (types.Handle, bool) {
	best := types.HandleNone
	bestDist := math.Inf(1)
	for _, h := range types.Handles() {
		hp := r.HandlePoint(h)
		dx, dy := math.Abs(p.X-hp.X), math.Abs(p.Y-hp.Y)
		if dx > tolerance || dy > tolerance {
			continue
		}
		d := math.Hypot(dx, dy)
		if h.IsCorner() {
			d -= tolerance
		}
		if d < bestDist {
			best, bestDist = h, d
		}
	}
	return best, best != types.HandleNone
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
