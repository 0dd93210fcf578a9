package interaction

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/menta2k/cropkit/pkg/region"
	"github.com/menta2k/cropkit/pkg/types"
)

func fixedBounds(w, h, ratio float64) BoundsFunc {
	return func() region.Bounds {
		return region.Bounds{Box: types.Size{Width: w, Height: h}, MinSize: 20, Ratio: ratio}
	}
}

type countingCapture struct {
	acquired int
	released int
}

func (c *countingCapture) Acquire() func() {
	c.acquired++
	return func() { c.released++ }
}

func pt(x, y float64) types.Point { return types.Point{X: x, Y: y} }

func TestDragUsesIncrementalDeltas(t *testing.T) {
	c := New(region.Region{X: 100, Y: 100, Width: 100, Height: 100}, fixedBounds(400, 300, 0))

	require.True(t, c.Start(GestureMove, types.HandleNone, pt(150, 150)))
	require.IsType(t, Dragging{}, c.State())

	c.Move(pt(160, 150))
	c.Move(pt(170, 160))
	require.Equal(t, region.Region{X: 120, Y: 110, Width: 100, Height: 100}, c.Region())

	// overshoot clamps, then moving back applies the full delta from the clamped state
	c.Move(pt(1000, 160))
	require.Equal(t, 300.0, c.Region().X)
	c.Move(pt(990, 160))
	require.Equal(t, 290.0, c.Region().X)

	c.End()
	require.IsType(t, Idle{}, c.State())
	require.Equal(t, 290.0, c.Region().X)
}

func TestResizeGesture(t *testing.T) {
	c := New(region.Region{X: 50, Y: 50, Width: 100, Height: 100}, fixedBounds(400, 300, 0))

	require.True(t, c.Start(GestureResize, types.BottomRight, pt(150, 150)))
	c.Move(pt(170, 180))
	c.End()

	require.Equal(t, region.Region{X: 50, Y: 50, Width: 120, Height: 130}, c.Region())
}

func TestResizeWithRatioEverySample(t *testing.T) {
	ratio := 16.0 / 9.0
	b := fixedBounds(640, 480, ratio)
	c := New(region.NewCentered(b(), region.DefaultFraction), b)

	require.True(t, c.Start(GestureResize, types.TopRight, c.Region().HandlePoint(types.TopRight)))
	p := c.Region().HandlePoint(types.TopRight)
	for i := 0; i < 50; i++ {
		p = pt(p.X+7, p.Y-3)
		r := c.Move(p)
		require.True(t, r.Valid(b()), "sample %d gave %+v", i, r)
		require.InDelta(t, ratio, r.Width/r.Height, 1e-6)
	}
	c.End()
}

func TestStartRejectedWhileActive(t *testing.T) {
	capture := &countingCapture{}
	c := New(region.Region{X: 50, Y: 50, Width: 100, Height: 100}, fixedBounds(400, 300, 0), WithCapture(capture))

	require.True(t, c.Start(GestureMove, types.HandleNone, pt(100, 100)))
	require.False(t, c.Start(GestureResize, types.Left, pt(50, 100)))
	require.IsType(t, Dragging{}, c.State())
	require.Equal(t, 1, capture.acquired)

	c.End()
	require.Equal(t, 1, capture.released)
}

func TestCaptureReleasedOnEveryExit(t *testing.T) {
	capture := &countingCapture{}
	c := New(region.Region{X: 50, Y: 50, Width: 100, Height: 100}, fixedBounds(400, 300, 0), WithCapture(capture))

	c.Start(GestureMove, types.HandleNone, pt(100, 100))
	c.End()
	c.Start(GestureResize, types.Top, pt(100, 50))
	c.Move(pt(100, 40))
	c.Cancel()
	c.End()
	c.Cancel()

	require.Equal(t, 2, capture.acquired)
	require.Equal(t, 2, capture.released)
}

func TestCancelKeepsLastRegion(t *testing.T) {
	c := New(region.Region{X: 50, Y: 50, Width: 100, Height: 100}, fixedBounds(400, 300, 0))

	c.Start(GestureMove, types.HandleNone, pt(100, 100))
	c.Move(pt(130, 100))
	c.Cancel()

	require.Equal(t, 80.0, c.Region().X)
	require.False(t, c.Active())
}

func TestMoveWhileIdleIgnored(t *testing.T) {
	initial := region.Region{X: 50, Y: 50, Width: 100, Height: 100}
	c := New(initial, fixedBounds(400, 300, 0))

	require.Equal(t, initial, c.Move(pt(300, 300)))
}

func TestResizeWithoutHandleRejected(t *testing.T) {
	c := New(region.Region{X: 50, Y: 50, Width: 100, Height: 100}, fixedBounds(400, 300, 0))
	require.False(t, c.Start(GestureResize, types.HandleNone, pt(0, 0)))
	require.False(t, c.Active())
}

func TestHandleHitTestsStart(t *testing.T) {
	c := New(region.Region{X: 100, Y: 100, Width: 100, Height: 100}, fixedBounds(400, 300, 0))

	c.Handle(Event{Kind: EventStart, Position: pt(199, 201)})
	require.Equal(t, Resizing{Handle: types.BottomRight, Origin: pt(199, 201)}, c.State())
	c.Handle(Event{Kind: EventEnd})

	c.Handle(Event{Kind: EventStart, Position: pt(150, 150)})
	require.IsType(t, Dragging{}, c.State())
	c.Handle(Event{Kind: EventEnd})

	c.Handle(Event{Kind: EventStart, Position: pt(10, 10)})
	require.IsType(t, Idle{}, c.State())
}

func TestHandleReportsChanges(t *testing.T) {
	c := New(region.Region{X: 100, Y: 100, Width: 100, Height: 100}, fixedBounds(400, 300, 0))

	_, changed := c.Handle(Event{Kind: EventStart, Position: pt(150, 150), Gesture: GestureMove})
	require.False(t, changed)
	r, changed := c.Handle(Event{Kind: EventMove, Position: pt(155, 150)})
	require.True(t, changed)
	require.Equal(t, 105.0, r.X)
}

func TestServeAppliesInOrderAndCancelsOnClose(t *testing.T) {
	capture := &countingCapture{}
	c := New(region.Region{X: 0, Y: 0, Width: 50, Height: 50}, fixedBounds(400, 300, 0), WithCapture(capture))

	events := make(chan Event, 8)
	events <- Event{Kind: EventStart, Position: pt(10, 10), Gesture: GestureMove}
	for i := 1; i <= 5; i++ {
		events <- Event{Kind: EventMove, Position: pt(10+float64(i)*10, 10)}
	}
	close(events)

	var xs []float64
	err := c.Serve(context.Background(), events, func(r region.Region) { xs = append(xs, r.X) })
	require.NoError(t, err)
	require.Equal(t, []float64{10, 20, 30, 40, 50}, xs)
	require.False(t, c.Active())
	require.Equal(t, 1, capture.released)
}

func TestServeStopsOnContext(t *testing.T) {
	capture := &countingCapture{}
	c := New(region.Region{X: 0, Y: 0, Width: 50, Height: 50}, fixedBounds(400, 300, 0), WithCapture(capture))

	events := make(chan Event, 1)
	events <- Event{Kind: EventStart, Position: pt(10, 10), Gesture: GestureMove}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Serve(ctx, events, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, c.Active())
	require.Equal(t, 1, capture.acquired)
	require.Equal(t, 1, capture.released)
}

func TestLoadScript(t *testing.T) {
	script := `
- {kind: start, x: 120, y: 90, handle: bottom-right}
- {kind: move, x: 160, y: 110}
- {kind: start, x: 10, y: 10, gesture: move}
- {kind: end}
`
	events, err := LoadScript(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, events, 4)
	require.Equal(t, Event{Kind: EventStart, Position: pt(120, 90), Handle: types.BottomRight}, events[0])
	require.Equal(t, Event{Kind: EventMove, Position: pt(160, 110)}, events[1])
	require.Equal(t, GestureMove, events[2].Gesture)
	require.Equal(t, EventEnd, events[3].Kind)

	_, err = LoadScript(strings.NewReader("- {kind: jump}"))
	require.Error(t, err)

	_, err = LoadScript(strings.NewReader("- {kind: start, x: 1, y: 1}\n- {x: 5, y: 5}\n"))
	require.ErrorContains(t, err, "entry 2: missing kind")
}

func TestHandleIgnoresUnknownKind(t *testing.T) {
	start := region.Region{X: 100, Y: 100, Width: 100, Height: 100}
	c := New(start, fixedBounds(400, 300, 0))
	require.True(t, c.Start(GestureMove, types.HandleNone, pt(150, 150)))

	r, changed := c.Handle(Event{Position: pt(200, 200)})
	require.False(t, changed)
	require.Equal(t, start, r)
	require.Equal(t, "unknown", EventUnknown.String())
}
