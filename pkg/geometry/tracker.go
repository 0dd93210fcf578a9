package geometry

import "github.com/menta2k/cropkit/pkg/types"

// Tracker memoizes a Geometry and recomputes it only after the natural size,
// the display box or the zoom actually changed.
type Tracker struct {
	natural types.Size
	box     types.Size
	zoom    float64

	cached   Geometry
	valid    bool
	computes int
}

// NewTracker returns a tracker at zoom 1 with no image or box yet.
func NewTracker() *Tracker {
	return &Tracker{zoom: 1}
}

// SetNatural updates the natural image size.
func (t *Tracker) SetNatural(s types.Size) {
	if s != t.natural {
		t.natural = s
		t.valid = false
	}
}

// SetBox updates the un-zoomed display box size.
func (t *Tracker) SetBox(s types.Size) {
	if s != t.box {
		t.box = s
		t.valid = false
	}
}

// SetZoom updates the zoom factor.
func (t *Tracker) SetZoom(z float64) {
	if z != t.zoom {
		t.zoom = z
		t.valid = false
	}
}

// Natural returns the current natural size.
func (t *Tracker) Natural() types.Size { return t.natural }

// Box returns the current display box size.
func (t *Tracker) Box() types.Size { return t.box }

// Geometry returns the memoized geometry, recomputing it if stale.
func (t *Tracker) Geometry() Geometry {
	if !t.valid {
		t.cached = Compute(t.natural, t.box, t.zoom)
		t.valid = true
		t.computes++
	}
	return t.cached
}
