// Package suggest proposes an initial crop region for a freshly loaded image.
//
// Two suggesters are provided: VisionSuggester asks a vision model (through
// a VisionClient such as OllamaClient) where the main subject is, and
// SaliencySuggester runs a local edge/contrast saliency search. Both return
// a box normalized to the natural image, which the session maps into
// display space and constrains like any other region.
package suggest

import (
	"context"
	"image"

	"github.com/menta2k/cropkit/pkg/types"
)

// Suggester locates the primary subject of an image.
type Suggester interface {
	Suggest(ctx context.Context, img image.Image) (types.Primary, error)
}

// FallbackBox is the centered box used when nothing better is known.
var FallbackBox = types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}

func fallbackPrimary(label string) types.Primary {
	return types.Primary{
		Label:      label,
		Confidence: 0,
		Box:        FallbackBox,
		Cx:         0.5,
		Cy:         0.5,
	}
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox ensures box coordinates are within [0,1] bounds. Boxes that
// look like pixel coordinates are divided by the image size first.
func normalizeBox(b types.Box, imgW, imgH int) types.Box {
	if imgW > 0 && imgH > 0 && (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) {
		b = types.Box{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
