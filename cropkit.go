// Package cropkit provides interactive crop geometry with extraction at the
// image's natural resolution.
//
// A Session holds one image shown in a display box. The user moves and
// resizes a crop region in display space, optionally under a locked aspect
// ratio and at any zoom level; the session maps the region onto the natural
// pixel grid and extracts exactly those pixels.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/menta2k/cropkit"
//		"github.com/menta2k/cropkit/pkg/aspect"
//		"github.com/menta2k/cropkit/pkg/processing"
//	)
//
//	func main() {
//		proc := processing.New()
//		img, err := proc.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		session := cropkit.New(cropkit.DefaultOptions())
//		session.SetDisplayBox(400, 300)
//		session.Load(img)
//		session.SetAspectRatio(aspect.Square)
//
//		result, err := session.Extract()
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := proc.SaveImage(result.Image, "photo_square.jpg", "", 90, false); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
// 1. Region (pkg/region): the crop rectangle and its constrained mutations
// 2. Interaction (pkg/interaction): the pointer gesture state machine
// 3. Zoom (pkg/zoom): bounded zoom level
// 4. Geometry (pkg/geometry): display to natural coordinate mapping
// 5. Cropper (pkg/cropper): pixel-exact extraction
//
// Hosts that decode files, render previews or want a suggested initial
// region use pkg/processing and pkg/suggest.
package cropkit

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/menta2k/cropkit/pkg/aspect"
	"github.com/menta2k/cropkit/pkg/cropper"
	"github.com/menta2k/cropkit/pkg/geometry"
	"github.com/menta2k/cropkit/pkg/interaction"
	"github.com/menta2k/cropkit/pkg/region"
	"github.com/menta2k/cropkit/pkg/suggest"
	"github.com/menta2k/cropkit/pkg/types"
	"github.com/menta2k/cropkit/pkg/zoom"
)

// ErrNoDisplayBox is returned when an operation needs the display box size
// before SetDisplayBox was called.
var ErrNoDisplayBox = errors.New("display box not set")

// ErrNoSuggester is returned by Suggest when no suggester is given.
var ErrNoSuggester = errors.New("no suggester")

// Options configures a Session.
type Options struct {
	MinSize         float64
	DefaultFraction float64
	Ratio           aspect.AspectRatio
	Zoom            zoom.Config
	HandleTolerance float64

	// Rasterizer defaults to cropper.ImagingRasterizer.
	Rasterizer cropper.Rasterizer
	Capture    interaction.Capture
	Logger     *slog.Logger
}

// DefaultOptions returns the standard session options
func DefaultOptions() Options {
	return Options{
		MinSize:         region.DefaultMinSize,
		DefaultFraction: region.DefaultFraction,
		Ratio:           aspect.Free,
		Zoom:            zoom.DefaultConfig(),
		HandleTolerance: interaction.DefaultHandleTolerance,
	}
}

// Session is one image being cropped. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	opts    Options
	ratio   aspect.AspectRatio
	tracker *geometry.Tracker
	zoom    *zoom.State
	ctl     *interaction.Controller
	cropper *cropper.Cropper
	src     image.Image
	// loads counts Load/LoadSize calls
	loads  int
	logger *slog.Logger
}

// New creates a session with no image and no display box.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rasterizer := opts.Rasterizer
	if rasterizer == nil {
		rasterizer = cropper.ImagingRasterizer{}
	}

	s := &Session{
		opts:    opts,
		ratio:   opts.Ratio,
		tracker: geometry.NewTracker(),
		zoom:    zoom.New(opts.Zoom),
		cropper: cropper.NewWithRasterizer(rasterizer),
		logger:  logger,
	}

	ctlOpts := []interaction.Option{
		interaction.WithHandleTolerance(opts.HandleTolerance),
		interaction.WithLogger(logger),
	}
	if opts.Capture != nil {
		ctlOpts = append(ctlOpts, interaction.WithCapture(opts.Capture))
	}
	s.ctl = interaction.New(region.Region{}, s.bounds, ctlOpts...)
	return s
}

// bounds is called with s.mu held.
func (s *Session) bounds() region.Bounds {
	return region.Bounds{
		Box:     s.tracker.Box(),
		MinSize: s.opts.MinSize,
		Ratio:   s.ratio.Value(),
	}
}

// Load replaces the source image. The zoom is reset and a new default
// region is placed.
func (s *Session) Load(src image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.src = src
	var natural types.Size
	if src != nil {
		b := src.Bounds()
		natural = types.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	}
	s.resetLocked(natural)
}

// LoadSize sets the natural size without a raster. Geometry works as usual
// but Extract fails with cropper.ErrNoImageLoaded.
func (s *Session) LoadSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.src = nil
	s.resetLocked(types.Size{Width: float64(width), Height: float64(height)})
}

func (s *Session) resetLocked(natural types.Size) {
	s.loads++
	s.ctl.Cancel()
	s.tracker.SetNatural(natural)
	s.tracker.SetZoom(s.zoom.Reset())
	if !s.tracker.Box().Empty() {
		s.ctl.SetRegion(region.NewCentered(s.bounds(), s.opts.DefaultFraction))
	}
	s.logger.Debug("image loaded", "width", natural.Width, "height", natural.Height)
}

// SetDisplayBox sets the un-zoomed size of the box the image is shown in.
// An existing region is scaled with the box; otherwise a default region is
// placed.
func (s *Session) SetDisplayBox(width, height float64) region.Region {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.tracker.Box()
	next := types.Size{Width: width, Height: height}
	s.tracker.SetBox(next)
	if next.Empty() {
		return s.ctl.SetRegion(region.Region{})
	}

	r := s.ctl.Region()
	if old.Empty() || r.Width <= 0 || r.Height <= 0 {
		return s.ctl.SetRegion(region.NewCentered(s.bounds(), s.opts.DefaultFraction))
	}
	sx, sy := next.Width/old.Width, next.Height/old.Height
	scaled := region.Region{X: r.X * sx, Y: r.Y * sy, Width: r.Width * sx, Height: r.Height * sy}
	return s.ctl.SetRegion(s.atLeastMin(scaled))
}

// DisplayBox returns the un-zoomed display box size.
func (s *Session) DisplayBox() types.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Box()
}

// Region returns the current crop region in display space.
func (s *Session) Region() region.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.Region()
}

// SetRegion places the region programmatically. The result is grown to the
// minimum size, corrected to the aspect ratio and clamped to the box.
func (s *Session) SetRegion(r region.Region) region.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.SetRegion(s.atLeastMin(r))
}

// atLeastMin grows r about its center until both sides reach the minimum
// size, or the box side when the box is smaller.
func (s *Session) atLeastMin(r region.Region) region.Region {
	return r.GrowToMin(s.bounds())
}

// AspectRatio returns the active ratio.
func (s *Session) AspectRatio() aspect.AspectRatio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratio
}

// SetAspectRatio changes the ratio and immediately corrects the region.
func (s *Session) SetAspectRatio(a aspect.AspectRatio) region.Region {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratio = a
	r := s.ctl.SetRegion(s.ctl.Region())
	s.logger.Debug("aspect ratio changed", "ratio", a.String(), "width", r.Width, "height", r.Height)
	return r
}

// Zoom returns the current zoom level.
func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom.Value()
}

// ZoomIn steps the zoom up. The region is left where it is.
func (s *Session) ZoomIn() float64 { return s.applyZoom((*zoom.State).ZoomIn) }

// ZoomOut steps the zoom down.
func (s *Session) ZoomOut() float64 { return s.applyZoom((*zoom.State).ZoomOut) }

// ResetZoom returns to zoom 1.
func (s *Session) ResetZoom() float64 { return s.applyZoom((*zoom.State).Reset) }

// ZoomTo sets an explicit zoom level, clamped to the configured range.
func (s *Session) ZoomTo(v float64) float64 {
	return s.applyZoom(func(z *zoom.State) float64 { return z.ZoomTo(v) })
}

// Wheel applies a wheel delta; negative deltas zoom in.
func (s *Session) Wheel(deltaY float64) float64 {
	return s.applyZoom(func(z *zoom.State) float64 { return z.Wheel(deltaY) })
}

func (s *Session) applyZoom(f func(*zoom.State) float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := f(s.zoom)
	s.tracker.SetZoom(v)
	return v
}

// CanZoomIn reports whether ZoomIn would change the zoom.
func (s *Session) CanZoomIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom.CanZoomIn()
}

// CanZoomOut reports whether ZoomOut would change the zoom.
func (s *Session) CanZoomOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom.CanZoomOut()
}

// HandleEvent applies one pointer event and reports whether the region
// changed.
func (s *Session) HandleEvent(ev interaction.Event) (region.Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Kind == interaction.EventStart && s.tracker.Box().Empty() {
		s.logger.Debug("gesture ignored without display box", "x", ev.Position.X, "y", ev.Position.Y)
		return s.ctl.Region(), false
	}
	return s.ctl.Handle(ev)
}

// CancelGesture ends any active gesture, keeping the last region.
func (s *Session) CancelGesture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctl.Cancel()
}

// GestureState returns the current gesture state.
func (s *Session) GestureState() interaction.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.State()
}

// Serve applies events in arrival order until the channel closes or ctx is
// done. onRegion runs after each change, outside the session lock. Any
// active gesture is cancelled on return.
func (s *Session) Serve(ctx context.Context, events <-chan interaction.Event, onRegion func(region.Region)) error {
	defer s.CancelGesture()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if r, changed := s.HandleEvent(ev); changed && onRegion != nil {
				onRegion(r)
			}
		}
	}
}

// Geometry returns the current display geometry.
func (s *Session) Geometry() geometry.Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Geometry()
}

// NaturalRect maps the current region onto the natural pixel grid.
func (s *Session) NaturalRect() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Geometry().ToNatural(s.ctl.Region())
}

// Extract returns the pixels under the current region at natural resolution.
func (s *Session) Extract() (cropper.CropResult, error) {
	s.mu.Lock()
	src := s.src
	rect := s.tracker.Geometry().ToNatural(s.ctl.Region())
	s.mu.Unlock()

	result, err := s.cropper.Extract(src, rect)
	if err != nil {
		s.logger.Warn("extraction failed", "rect", rect.String(), "error", err)
		return cropper.CropResult{}, fmt.Errorf("extract: %w", err)
	}
	s.logger.Debug("extracted", "rect", result.Rect.String(), "coverage", result.Coverage)
	return result, nil
}

// ApplySuggestion places the region over a box normalized to the natural
// image, then constrains it like any other region.
func (s *Session) ApplySuggestion(box types.Box) (region.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applySuggestionLocked(box)
}

func (s *Session) applySuggestionLocked(box types.Box) (region.Region, error) {
	natural := s.tracker.Natural()
	if natural.Empty() {
		return region.Region{}, cropper.ErrNoImageLoaded
	}
	if s.tracker.Box().Empty() {
		return region.Region{}, ErrNoDisplayBox
	}

	rect := image.Rect(
		int(math.Round(box.X*natural.Width)),
		int(math.Round(box.Y*natural.Height)),
		int(math.Round((box.X+box.W)*natural.Width)),
		int(math.Round((box.Y+box.H)*natural.Height)),
	)
	r := s.tracker.Geometry().ToDisplay(rect)
	r = s.ctl.SetRegion(s.atLeastMin(r))
	s.logger.Debug("suggestion applied", "box", box, "x", r.X, "y", r.Y, "width", r.Width, "height", r.Height)
	return r, nil
}

// Suggest asks sg for the primary subject of the loaded image and moves the
// region onto it. The session is not locked while sg runs.
func (s *Session) Suggest(ctx context.Context, sg suggest.Suggester) (types.Primary, error) {
	s.mu.Lock()
	src, loads := s.src, s.loads
	s.mu.Unlock()
	if src == nil {
		return types.Primary{}, cropper.ErrNoImageLoaded
	}
	if sg == nil {
		return types.Primary{}, ErrNoSuggester
	}

	primary, err := sg.Suggest(ctx, src)
	if err != nil {
		return types.Primary{}, fmt.Errorf("suggest: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loads != loads {
		return primary, fmt.Errorf("suggest: image changed while suggesting")
	}
	if _, err := s.applySuggestionLocked(primary.Box); err != nil {
		return primary, fmt.Errorf("suggest: %w", err)
	}
	return primary, nil
}
