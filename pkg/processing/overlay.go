package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/menta2k/cropkit/pkg/region"
	"github.com/menta2k/cropkit/pkg/types"
)

// OverlayStyle controls how a crop preview is drawn
type OverlayStyle struct {
	Mask   color.Color
	Border color.Color
	Grid   color.Color
	Handle color.Color
	// Stroke and HandleSize are in output pixels; zero scales them with the image.
	Stroke     float64
	HandleSize float64
	ShowGrid   bool
}

// DefaultOverlayStyle returns the standard preview look: a darkened mask,
// a white border with rule-of-thirds guides and square handles.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		Mask:     color.NRGBA{0, 0, 0, 128},
		Border:   color.NRGBA{255, 255, 255, 255},
		Grid:     color.NRGBA{255, 255, 255, 110},
		Handle:   color.NRGBA{255, 255, 255, 255},
		ShowGrid: true,
	}
}

// RenderOverlay draws the crop rectangle rect (natural pixels) over img.
// The source image is not modified.
func (p *Processor) RenderOverlay(img image.Image, rect image.Rectangle, style OverlayStyle) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rect = rect.Sub(b.Min).Intersect(image.Rect(0, 0, w, h))

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	if rect.Empty() {
		return dc.Image()
	}

	stroke := style.Stroke
	if stroke <= 0 {
		stroke = math.Max(1, 0.003*float64(minInt(w, h)))
	}
	handle := style.HandleSize
	if handle <= 0 {
		handle = math.Max(6, 0.02*float64(minInt(w, h)))
	}

	x0, y0 := float64(rect.Min.X), float64(rect.Min.Y)
	x1, y1 := float64(rect.Max.X), float64(rect.Max.Y)
	fw, fh := float64(w), float64(h)

	// mask: four bands around the crop
	dc.SetColor(style.Mask)
	dc.DrawRectangle(0, 0, fw, y0)
	dc.DrawRectangle(0, y1, fw, fh-y1)
	dc.DrawRectangle(0, y0, x0, y1-y0)
	dc.DrawRectangle(x1, y0, fw-x1, y1-y0)
	dc.Fill()

	if style.ShowGrid {
		dc.SetColor(style.Grid)
		dc.SetLineWidth(math.Max(1, stroke/2))
		for i := 1; i < 3; i++ {
			gx := x0 + (x1-x0)*float64(i)/3
			gy := y0 + (y1-y0)*float64(i)/3
			dc.DrawLine(gx, y0, gx, y1)
			dc.DrawLine(x0, gy, x1, gy)
		}
		dc.Stroke()
	}

	dc.SetColor(style.Border)
	dc.SetLineWidth(stroke)
	dc.DrawRectangle(x0+stroke/2, y0+stroke/2, x1-x0-stroke, y1-y0-stroke)
	dc.Stroke()

	r := region.Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	dc.SetColor(style.Handle)
	for _, hd := range types.Handles() {
		pt := r.HandlePoint(hd)
		dc.DrawRectangle(pt.X-handle/2, pt.Y-handle/2, handle, handle)
	}
	dc.Fill()

	return dc.Image()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
