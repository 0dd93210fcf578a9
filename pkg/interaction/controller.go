// Package interaction turns a stream of pointer samples into crop region
// updates.
//
// The controller is a small state machine, Idle → Dragging → Idle or
// Idle → Resizing → Idle. Each pointer sample is applied as a delta from the
// previous sample, and every region it produces already satisfies the region
// invariants, so hosts can render after every sample.
package interaction

import (
	"context"
	"log/slog"

	"github.com/menta2k/cropkit/pkg/region"
	"github.com/menta2k/cropkit/pkg/types"
)

// DefaultHandleTolerance is the hit radius, in display units, of a handle.
const DefaultHandleTolerance = 10.0

// State is one of Idle, Dragging or Resizing.
type State interface {
	isState()
}

// Idle means no gesture is active.
type Idle struct{}

// Dragging is an active move gesture.
type Dragging struct {
	Origin types.Point
}

// Resizing is an active resize gesture from Handle.
type Resizing struct {
	Handle types.Handle
	Origin types.Point
}

func (Idle) isState()     {}
func (Dragging) isState() {}
func (Resizing) isState() {}

// Capture is the host's pointer capture: global move/up listeners that must
// only exist while a gesture is active. Acquire is called on gesture start
// and the returned release func exactly once when the gesture ends, however
// it ends.
type Capture interface {
	Acquire() (release func())
}

// CaptureFunc adapts a function to the Capture interface.
type CaptureFunc func() func()

// Acquire calls f.
func (f CaptureFunc) Acquire() func() { return f() }

// BoundsFunc reports the constraints in force when a sample is applied.
type BoundsFunc func() region.Bounds

// Option configures a Controller.
type Option func(*Controller)

// WithCapture sets the pointer capture acquired for each gesture.
func WithCapture(c Capture) Option { return func(ctl *Controller) { ctl.capture = c } }

// WithHandleTolerance sets the hit radius used for start events without an
// explicit gesture.
func WithHandleTolerance(tol float64) Option {
	return func(ctl *Controller) {
		if tol > 0 {
			ctl.tolerance = tol
		}
	}
}

// WithLogger sets the logger used for rejected or ignored events.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.logger = l
		}
	}
}

// Controller owns the crop region while the user interacts with it.
type Controller struct {
	region    region.Region
	state     State
	bounds    BoundsFunc
	capture   Capture
	release   func()
	tolerance float64
	logger    *slog.Logger
}

// New creates an idle controller. bounds is consulted on every sample so
// ratio or box changes take effect immediately.
func New(initial region.Region, bounds BoundsFunc, opts ...Option) *Controller {
	c := &Controller{
		state:     Idle{},
		bounds:    bounds,
		tolerance: DefaultHandleTolerance,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.region = initial.ClampToBox(c.bounds())
	return c
}

// Region returns the authoritative region.
func (c *Controller) Region() region.Region { return c.region }

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	_, idle := c.state.(Idle)
	return !idle
}

// SetRegion replaces the region, clamped to the current bounds. It is used
// for ratio changes and programmatic placement; an active gesture continues
// from the new region.
func (c *Controller) SetRegion(r region.Region) region.Region {
	c.region = r.ApplyAspectRatio(c.bounds())
	return c.region
}

// Start begins a gesture at p. It returns false, without side effects, when
// a gesture is already active or the gesture is unusable.
func (c *Controller) Start(g Gesture, h types.Handle, p types.Point) bool {
	if c.Active() {
		c.logger.Debug("gesture start ignored", "reason", "gesture already active", "gesture", g.String())
		return false
	}
	switch g {
	case GestureMove:
		c.state = Dragging{Origin: p}
	case GestureResize:
		if h == types.HandleNone {
			c.logger.Debug("gesture start ignored", "reason", "resize without handle")
			return false
		}
		c.state = Resizing{Handle: h, Origin: p}
	default:
		return false
	}
	if c.capture != nil {
		c.release = c.capture.Acquire()
	}
	return true
}

// Move applies one pointer sample. Samples outside a gesture are ignored.
func (c *Controller) Move(p types.Point) region.Region {
	b := c.bounds()
	switch s := c.state.(type) {
	case Dragging:
		d := p.Sub(s.Origin)
		c.region = c.region.MoveBy(d.X, d.Y, b)
		c.state = Dragging{Origin: p}
	case Resizing:
		d := p.Sub(s.Origin)
		c.region = c.region.ResizeFromHandle(s.Handle, d.X, d.Y, b)
		c.state = Resizing{Handle: s.Handle, Origin: p}
	}
	return c.region
}

// End finishes the active gesture; the last region stays authoritative.
func (c *Controller) End() { c.finish() }

// Cancel aborts the active gesture, for example after pointer capture was
// lost. The last valid region is kept; nothing is rolled back.
func (c *Controller) Cancel() { c.finish() }

func (c *Controller) finish() {
	c.state = Idle{}
	if c.release != nil {
		release := c.release
		c.release = nil
		release()
	}
}

// Handle dispatches a pointer event and reports whether the region changed.
func (c *Controller) Handle(ev Event) (region.Region, bool) {
	before := c.region
	switch ev.Kind {
	case EventStart:
		g, h := ev.Gesture, ev.Handle
		if h != types.HandleNone && g == GestureNone {
			g = GestureResize
		}
		if g == GestureNone {
			g, h = c.hitTest(ev.Position)
		}
		c.Start(g, h, ev.Position)
	case EventMove:
		c.Move(ev.Position)
	case EventEnd:
		c.End()
	case EventCancel:
		c.Cancel()
	}
	return c.region, c.region != before
}

func (c *Controller) hitTest(p types.Point) (Gesture, types.Handle) {
	if h, ok := c.region.HandleAt(p, c.tolerance); ok {
		return GestureResize, h
	}
	if c.region.Contains(p) {
		return GestureMove, types.HandleNone
	}
	return GestureNone, types.HandleNone
}

// Serve applies events in arrival order until the channel closes or ctx is
// done, calling onRegion after every change. An active gesture is cancelled
// before Serve returns. Serve is the single writer of the region while it
// runs.
func (c *Controller) Serve(ctx context.Context, events <-chan Event, onRegion func(region.Region)) error {
	defer c.Cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if r, changed := c.Handle(ev); changed && onRegion != nil {
				onRegion(r)
			}
		}
	}
}
