package cropper

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Extraction failures. They are terminal for the attempt: no partial output
// is ever returned alongside them.
var (
	ErrNoImageLoaded            = errors.New("no image loaded")
	ErrInvalidRegion            = errors.New("invalid crop region")
	ErrRasterizationUnavailable = errors.New("rasterization unavailable")
)

// Rasterizer copies a rectangle of a source raster into a newly allocated
// raster. It is the host capability the cropper delegates pixel work to.
type Rasterizer interface {
	Rasterize(src image.Image, rect image.Rectangle) (image.Image, error)
}

// RasterizerFunc adapts a function to the Rasterizer interface.
type RasterizerFunc func(src image.Image, rect image.Rectangle) (image.Image, error)

// Rasterize calls f(src, rect).
func (f RasterizerFunc) Rasterize(src image.Image, rect image.Rectangle) (image.Image, error) {
	return f(src, rect)
}

// ImagingRasterizer copies pixels with imaging.Crop. The output is always
// *image.NRGBA.
type ImagingRasterizer struct{}

// Rasterize implements Rasterizer.
func (ImagingRasterizer) Rasterize(src image.Image, rect image.Rectangle) (image.Image, error) {
	return imaging.Crop(src, rect), nil
}

// DrawRasterizer copies pixels with draw.Copy into a raster of the source's
// own color model where one exists, falling back to RGBA.
type DrawRasterizer struct{}

// Rasterize implements Rasterizer.
func (DrawRasterizer) Rasterize(src image.Image, rect image.Rectangle) (image.Image, error) {
	bounds := image.Rect(0, 0, rect.Dx(), rect.Dy())
	var dst draw.Image
	switch src.ColorModel() {
	case color.NRGBAModel:
		dst = image.NewNRGBA(bounds)
	case color.GrayModel:
		dst = image.NewGray(bounds)
	case color.Gray16Model:
		dst = image.NewGray16(bounds)
	case color.RGBA64Model:
		dst = image.NewRGBA64(bounds)
	case color.NRGBA64Model:
		dst = image.NewNRGBA64(bounds)
	default:
		dst = image.NewRGBA(bounds)
	}
	draw.Copy(dst, image.Point{}, src, rect, draw.Src, nil)
	return dst, nil
}

// Cropper extracts natural-space rectangles from decoded rasters.
type Cropper struct {
	rasterizer Rasterizer
}

// New creates a Cropper backed by ImagingRasterizer
func New() *Cropper {
	return &Cropper{rasterizer: ImagingRasterizer{}}
}

// NewWithRasterizer creates a Cropper with a custom rasterizer. A nil
// rasterizer makes every extraction fail with ErrRasterizationUnavailable.
func NewWithRasterizer(r Rasterizer) *Cropper {
	return &Cropper{rasterizer: r}
}

// SetRasterizer swaps the rasterization capability
func (c *Cropper) SetRasterizer(r Rasterizer) {
	c.rasterizer = r
}

// CropResult contains the result of a cropping operation
type CropResult struct {
	Image image.Image
	// Rect is the natural-space rectangle, relative to the source bounds origin.
	Rect        image.Rectangle
	AspectRatio float64
	// Coverage is the share of the source area kept by the crop.
	Coverage float64
}

// Extract copies rect, given in natural pixels relative to the source's
// top-left corner, into a new raster sized exactly to rect. The source is
// never modified.
func (c *Cropper) Extract(src image.Image, rect image.Rectangle) (CropResult, error) {
	if src == nil {
		return CropResult{}, ErrNoImageLoaded
	}
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return CropResult{}, fmt.Errorf("%w: %dx%d", ErrInvalidRegion, rect.Dx(), rect.Dy())
	}

	bounds := src.Bounds()
	abs := rect.Add(bounds.Min).Intersect(bounds)
	if abs.Empty() {
		return CropResult{}, fmt.Errorf("%w: %v lies outside the %dx%d image", ErrInvalidRegion, rect, bounds.Dx(), bounds.Dy())
	}
	if c.rasterizer == nil {
		return CropResult{}, ErrRasterizationUnavailable
	}

	out, err := c.rasterizer.Rasterize(src, abs)
	if err != nil {
		return CropResult{}, fmt.Errorf("%w: %v", ErrRasterizationUnavailable, err)
	}
	if out == nil {
		return CropResult{}, fmt.Errorf("%w: rasterizer returned no image", ErrRasterizationUnavailable)
	}
	if ob := out.Bounds(); ob.Dx() != abs.Dx() || ob.Dy() != abs.Dy() {
		return CropResult{}, fmt.Errorf("%w: rasterizer returned %dx%d, want %dx%d",
			ErrRasterizationUnavailable, ob.Dx(), ob.Dy(), abs.Dx(), abs.Dy())
	}

	return CropResult{
		Image:       out,
		Rect:        abs.Sub(bounds.Min),
		AspectRatio: float64(abs.Dx()) / float64(abs.Dy()),
		Coverage:    float64(abs.Dx()*abs.Dy()) / float64(bounds.Dx()*bounds.Dy()),
	}, nil
}
