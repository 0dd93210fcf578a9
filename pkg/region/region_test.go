package region

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menta2k/cropkit/pkg/types"
)

const tol = 1e-6

func box(w, h float64) types.Size { return types.Size{Width: w, Height: h} }

func requireInside(t *testing.T, r Region, b Bounds) {
	t.Helper()
	require.GreaterOrEqual(t, r.X, -tol, "x below zero: %+v", r)
	require.GreaterOrEqual(t, r.Y, -tol, "y below zero: %+v", r)
	require.LessOrEqual(t, r.Right(), b.Box.Width+tol, "right edge outside box: %+v", r)
	require.LessOrEqual(t, r.Bottom(), b.Box.Height+tol, "bottom edge outside box: %+v", r)
}

func TestNewCentered(t *testing.T) {
	b := Bounds{Box: box(400, 300)}
	r := NewCentered(b, DefaultFraction)

	require.InDelta(t, 180, r.Width, tol)
	require.InDelta(t, 180, r.Height, tol)
	require.InDelta(t, 110, r.X, tol)
	require.InDelta(t, 60, r.Y, tol)
	require.True(t, r.Valid(b))
}

func TestNewCenteredWithRatio(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
	}{
		{"widescreen", 16.0 / 9.0},
		{"story", 9.0 / 16.0},
		{"square", 1},
		{"panorama", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Bounds{Box: box(400, 300), Ratio: tt.ratio}
			r := NewCentered(b, DefaultFraction)
			require.True(t, r.Valid(b), "invalid region %+v", r)
			require.InDelta(t, tt.ratio, r.Width/r.Height, tol)
		})
	}
}

func TestMoveByClampsToBox(t *testing.T) {
	b := Bounds{Box: box(400, 300)}
	r := Region{X: 100, Y: 100, Width: 100, Height: 50}

	moved := r.MoveBy(1000, -1000, b)
	require.Equal(t, Region{X: 300, Y: 0, Width: 100, Height: 50}, moved)

	moved = r.MoveBy(-25, 10, b)
	require.Equal(t, Region{X: 75, Y: 110, Width: 100, Height: 50}, moved)

	// receiver is untouched
	require.Equal(t, Region{X: 100, Y: 100, Width: 100, Height: 50}, r)
}

func TestResizeBottomRightKeepsTopLeft(t *testing.T) {
	b := Bounds{Box: box(400, 300)}
	r := Region{X: 50, Y: 40, Width: 100, Height: 80}

	out := r.ResizeFromHandle(types.BottomRight, 30, -20, b)
	require.InDelta(t, 50, out.X, tol)
	require.InDelta(t, 40, out.Y, tol)
	require.InDelta(t, 130, out.Width, tol)
	require.InDelta(t, 60, out.Height, tol)
}

func TestResizeTopLeftKeepsBottomRight(t *testing.T) {
	b := Bounds{Box: box(400, 300)}
	r := Region{X: 50, Y: 40, Width: 100, Height: 80}

	for _, d := range [][2]float64{{10, 10}, {-30, -30}, {-500, 200}, {500, -500}} {
		out := r.ResizeFromHandle(types.TopLeft, d[0], d[1], b)
		require.InDelta(t, r.Right(), out.Right(), tol, "delta %v", d)
		require.InDelta(t, r.Bottom(), out.Bottom(), tol, "delta %v", d)
		require.True(t, out.Valid(b), "delta %v gave %+v", d, out)
	}
}

func TestResizeEdgeHandles(t *testing.T) {
	b := Bounds{Box: box(400, 300)}
	r := Region{X: 100, Y: 100, Width: 100, Height: 100}

	tests := []struct {
		handle types.Handle
		dx, dy float64
		want   Region
	}{
		{types.Top, 50, -20, Region{X: 100, Y: 80, Width: 100, Height: 120}},
		{types.Bottom, 50, 20, Region{X: 100, Y: 100, Width: 100, Height: 120}},
		{types.Left, -20, 50, Region{X: 80, Y: 100, Width: 120, Height: 100}},
		{types.Right, 20, 50, Region{X: 100, Y: 100, Width: 120, Height: 100}},
		{types.Left, 95, 0, Region{X: 180, Y: 100, Width: 20, Height: 100}},
		{types.Top, 0, -500, Region{X: 100, Y: 0, Width: 100, Height: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.handle.String(), func(t *testing.T) {
			got := r.ResizeFromHandle(tt.handle, tt.dx, tt.dy, b)
			require.InDelta(t, tt.want.X, got.X, tol)
			require.InDelta(t, tt.want.Y, got.Y, tol)
			require.InDelta(t, tt.want.Width, got.Width, tol)
			require.InDelta(t, tt.want.Height, got.Height, tol)
		})
	}
}

func TestResizeEnforcesMinimumPerEdge(t *testing.T) {
	b := Bounds{Box: box(400, 300), MinSize: 20}
	r := Region{X: 100, Y: 100, Width: 100, Height: 100}

	out := r.ResizeFromHandle(types.BottomRight, -500, -10, b)
	require.InDelta(t, 20, out.Width, tol)
	require.InDelta(t, 90, out.Height, tol)
	require.InDelta(t, 100, out.X, tol)
}

func TestResizeLockedKeepsRatio(t *testing.T) {
	ratio := 4.0 / 3.0
	b := Bounds{Box: box(400, 300), Ratio: ratio}
	r := Region{X: 100, Y: 75, Width: 120, Height: 90}

	for _, h := range types.Handles() {
		for _, d := range [][2]float64{{15, 5}, {-15, -40}, {300, 300}, {-300, 10}} {
			out := r.ResizeFromHandle(h, d[0], d[1], b)
			require.InDelta(t, ratio, out.Width/out.Height, tol, "%s %v", h, d)
			require.True(t, out.Valid(b), "%s %v gave %+v", h, d, out)
		}
	}
}

func TestResizeLockedStationaryCorner(t *testing.T) {
	b := Bounds{Box: box(400, 300), Ratio: 1}
	r := Region{X: 100, Y: 100, Width: 50, Height: 50}

	out := r.ResizeFromHandle(types.BottomRight, 30, 10, b)
	require.InDelta(t, 100, out.X, tol)
	require.InDelta(t, 100, out.Y, tol)
	require.InDelta(t, 80, out.Width, tol)
	require.InDelta(t, 80, out.Height, tol)

	out = r.ResizeFromHandle(types.TopLeft, -10, -30, b)
	require.InDelta(t, 150, out.Right(), tol)
	require.InDelta(t, 150, out.Bottom(), tol)
	require.InDelta(t, 80, out.Width, tol)
}

func TestResizeLockedEdgeCentersPerpendicular(t *testing.T) {
	b := Bounds{Box: box(400, 300), Ratio: 2}
	r := Region{X: 100, Y: 100, Width: 100, Height: 50}

	out := r.ResizeFromHandle(types.Right, 40, 0, b)
	require.InDelta(t, 100, out.X, tol)
	require.InDelta(t, 140, out.Width, tol)
	require.InDelta(t, 70, out.Height, tol)
	require.InDelta(t, r.Center().Y, out.Center().Y, tol)
}

func TestApplyAspectRatio(t *testing.T) {
	b := Bounds{Box: box(400, 300), Ratio: 16.0 / 9.0}

	// fits: height derived from width, top-left kept
	r := Region{X: 10, Y: 10, Width: 160, Height: 160}
	out := r.ApplyAspectRatio(b)
	require.InDelta(t, 10, out.X, tol)
	require.InDelta(t, 10, out.Y, tol)
	require.InDelta(t, 160, out.Width, tol)
	require.InDelta(t, 90, out.Height, tol)

	// overflows vertically: re-centered
	r = Region{X: 100, Y: 250, Width: 160, Height: 40}
	out = r.ApplyAspectRatio(b)
	require.True(t, out.Valid(b), "got %+v", out)
	require.InDelta(t, 160, out.Width, tol)

	// portrait ratio on a wide region must shrink
	b.Ratio = 9.0 / 16.0
	r = Region{X: 0, Y: 0, Width: 400, Height: 300}
	out = r.ApplyAspectRatio(b)
	require.True(t, out.Valid(b), "got %+v", out)
	require.InDelta(t, 300, out.Height, tol)
	require.InDelta(t, 300*9.0/16.0, out.Width, tol)
}

func TestApplyAspectRatioFallback(t *testing.T) {
	// a 10:1 ratio needs at least 200 units of width at min size 20
	b := Bounds{Box: box(150, 100), MinSize: 20, Ratio: 10}
	out := Region{X: 0, Y: 0, Width: 50, Height: 50}.ApplyAspectRatio(b)

	require.InDelta(t, 150, out.Width, tol)
	require.InDelta(t, 15, out.Height, tol)
	require.InDelta(t, 0, out.X, tol)
	require.InDelta(t, 42.5, out.Y, tol)
	require.True(t, out.Valid(b))
}

func TestApplyAspectRatioFreeOnlyClamps(t *testing.T) {
	b := Bounds{Box: box(400, 300)}
	out := Region{X: 350, Y: 0, Width: 100, Height: 80}.ApplyAspectRatio(b)
	require.Equal(t, Region{X: 300, Y: 0, Width: 100, Height: 80}, out)
}

func TestClampToBoxNeverGrows(t *testing.T) {
	b := Bounds{Box: box(200, 100)}
	out := Region{X: -10, Y: 90, Width: 50, Height: 30}.ClampToBox(b)
	require.Equal(t, Region{X: 0, Y: 70, Width: 50, Height: 30}, out)

	out = Region{X: 0, Y: 0, Width: 500, Height: 50}.ClampToBox(b)
	require.Equal(t, 200.0, out.Width)
	require.Equal(t, 50.0, out.Height)

	b.Ratio = 2
	out = Region{X: 0, Y: 0, Width: 400, Height: 200}.ClampToBox(b)
	require.InDelta(t, 200, out.Width, tol)
	require.InDelta(t, 100, out.Height, tol)
}

func TestApplyAspectRatioFreeRestoresMinimum(t *testing.T) {
	// a 3:1 ratio cannot reach min size in a 50 wide box, so the
	// locked region is shorter than the minimum
	locked := Bounds{Box: box(50, 1000), MinSize: 20, Ratio: 3}
	r := Region{X: 0, Y: 400, Width: 40, Height: 40}.ApplyAspectRatio(locked)
	require.InDelta(t, 50, r.Width, tol)
	require.InDelta(t, 50.0/3.0, r.Height, tol)
	require.True(t, r.Valid(locked))

	free := Bounds{Box: locked.Box, MinSize: 20}
	out := r.ApplyAspectRatio(free)
	require.InDelta(t, 0, out.X, tol)
	require.InDelta(t, 490, out.Y, tol)
	require.InDelta(t, 50, out.Width, tol)
	require.InDelta(t, 20, out.Height, tol)
	require.True(t, out.Valid(free))
}

func TestGrowToMin(t *testing.T) {
	b := Bounds{Box: box(400, 300), MinSize: 20}
	out := Region{X: 50, Y: 50, Width: 4, Height: 2}.GrowToMin(b)
	require.Equal(t, Region{X: 42, Y: 41, Width: 20, Height: 20}, out)

	// never past the box side
	b = Bounds{Box: box(15, 300), MinSize: 20}
	out = Region{X: 0, Y: 100, Width: 10, Height: 30}.GrowToMin(b)
	require.Equal(t, Region{X: -2.5, Y: 100, Width: 15, Height: 30}, out)
}

func TestRandomSequencesHoldInvariants(t *testing.T) {
	ratios := []float64{0, 1, 3.0 / 4.0, 4.0 / 3.0, 16.0 / 9.0, 4.0 / 5.0, 9.0 / 16.0, 3, 2.35}
	boxes := []types.Size{box(640, 480), box(25, 25), box(100, 30), box(50, 1000)}

	rng := rand.New(rand.NewSource(42))
	for _, bx := range boxes {
		for _, initial := range ratios {
			b := Bounds{Box: bx, MinSize: 20, Ratio: initial}
			r := NewCentered(b, DefaultFraction)
			for i := 0; i < 1000; i++ {
				dx := rng.Float64()*200 - 100
				dy := rng.Float64()*200 - 100
				switch rng.Intn(5) {
				case 0:
					b.Ratio = ratios[rng.Intn(len(ratios))]
					r = r.ApplyAspectRatio(b)
				case 1:
					r = r.MoveBy(dx, dy, b)
				default:
					h := types.Handles()[rng.Intn(8)]
					r = r.ResizeFromHandle(h, dx, dy, b)
				}

				requireInside(t, r, b)
				require.True(t, r.Valid(b), "box %v ratio %v step %d: %+v", bx, b.Ratio, i, r)
				if b.Ratio <= 0 || b.minWidth() <= b.fitWidth() {
					require.GreaterOrEqual(t, r.Width, math.Min(20, bx.Width)-tol, "box %v ratio %v: %+v", bx, b.Ratio, r)
					require.GreaterOrEqual(t, r.Height, math.Min(20, bx.Height)-tol, "box %v ratio %v: %+v", bx, b.Ratio, r)
				}
				if b.Ratio > 0 {
					require.Less(t, math.Abs(r.Width/r.Height-b.Ratio), 1e-6*math.Max(1, b.Ratio))
				}
			}
		}
	}
}

func TestHandleAt(t *testing.T) {
	r := Region{X: 100, Y: 100, Width: 100, Height: 60}

	h, ok := r.HandleAt(types.Point{X: 102, Y: 98}, 8)
	require.True(t, ok)
	require.Equal(t, types.TopLeft, h)

	h, ok = r.HandleAt(types.Point{X: 150, Y: 161}, 8)
	require.True(t, ok)
	require.Equal(t, types.Bottom, h)

	_, ok = r.HandleAt(types.Point{X: 150, Y: 130}, 8)
	require.False(t, ok)
	require.True(t, r.Contains(types.Point{X: 150, Y: 130}))
	require.False(t, r.Contains(types.Point{X: 50, Y: 130}))
}
