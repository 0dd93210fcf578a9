package suggest

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/menta2k/cropkit/pkg/types"
)

// SaliencyConfig holds configuration for the local subject search
type SaliencyConfig struct {
	// AnalysisSide is the long side, in pixels, the image is reduced to first.
	AnalysisSide     int
	EdgeWeight       float64
	BrightnessWeight float64
	// MinSubjectRatio is the smallest window area, relative to the image, considered.
	MinSubjectRatio float64
}

// DefaultSaliencyConfig returns the standard saliency search settings
func DefaultSaliencyConfig() SaliencyConfig {
	return SaliencyConfig{
		AnalysisSide:     192,
		EdgeWeight:       0.7,
		BrightnessWeight: 0.3,
		MinSubjectRatio:  0.05,
	}
}

// SaliencySuggester finds the window with the highest edge/contrast energy.
type SaliencySuggester struct {
	config SaliencyConfig
}

// NewSaliencySuggester creates a suggester with default configuration
func NewSaliencySuggester() *SaliencySuggester {
	return &SaliencySuggester{config: DefaultSaliencyConfig()}
}

// NewSaliencySuggesterWithConfig creates a suggester with custom configuration
func NewSaliencySuggesterWithConfig(config SaliencyConfig) *SaliencySuggester {
	if config.AnalysisSide <= 0 {
		config.AnalysisSide = DefaultSaliencyConfig().AnalysisSide
	}
	return &SaliencySuggester{config: config}
}

type window struct {
	x, y, w, h int
	score      float64
}

// Suggest implements Suggester.
func (s *SaliencySuggester) Suggest(ctx context.Context, img image.Image) (types.Primary, error) {
	if img == nil {
		return types.Primary{}, fmt.Errorf("no image to analyze")
	}
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return fallbackPrimary("too small"), nil
	}

	small := imaging.Fit(img, s.config.AnalysisSide, s.config.AnalysisSide, imaging.Box)
	sal := s.saliencyMap(small)
	if err := ctx.Err(); err != nil {
		return types.Primary{}, err
	}

	width, height := small.Bounds().Dx(), small.Bounds().Dy()
	windows := s.scoreWindows(sal, width, height)
	if len(windows) == 0 {
		return fallbackPrimary("none"), nil
	}
	best := windows[0]

	total := 0.0
	for _, row := range sal {
		for _, v := range row {
			total += v
		}
	}
	mean := total / float64(width*height)
	confidence := 0.0
	if best.score > 0 {
		confidence = clamp(1-mean/best.score, 0, 1)
	}

	box := types.Box{
		X: float64(best.x) / float64(width),
		Y: float64(best.y) / float64(height),
		W: float64(best.w) / float64(width),
		H: float64(best.h) / float64(height),
	}
	cx, cy := box.Center()
	return types.Primary{
		Label:      "salient region",
		Confidence: confidence,
		Box:        box,
		Cx:         cx,
		Cy:         cy,
	}, nil
}

// saliencyMap scores each pixel by its color distance to its 8 neighbours,
// plus a brightness term.
func (s *SaliencySuggester) saliencyMap(img *image.NRGBA) [][]float64 {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	sal := make([][]float64, height)
	for i := range sal {
		sal[i] = make([]float64, width)
	}

	at := func(x, y int) (float64, float64, float64) {
		i := y*img.Stride + x*4
		return float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			r1, g1, b1 := at(x, y)
			var edge float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					r2, g2, b2 := at(x+dx, y+dy)
					dr, dg, db := r1-r2, g1-g2, b1-b2
					edge += math.Sqrt(dr*dr + dg*dg + db*db)
				}
			}
			// 8 neighbours, max channel distance 255*sqrt(3)
			edge /= 8 * 255 * math.Sqrt(3)
			brightness := (r1 + g1 + b1) / (3 * 255)
			sal[y][x] = s.config.EdgeWeight*edge + s.config.BrightnessWeight*brightness
		}
	}
	return sal
}

// scoreWindows slides square-ish windows of several sizes over an integral
// image of the saliency map and returns them best first.
func (s *SaliencySuggester) scoreWindows(sal [][]float64, width, height int) []window {
	integral := make([][]float64, height+1)
	for i := range integral {
		integral[i] = make([]float64, width+1)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			integral[y+1][x+1] = sal[y][x] + integral[y][x+1] + integral[y+1][x] - integral[y][x]
		}
	}
	sum := func(x, y, w, h int) float64 {
		return integral[y+h][x+w] - integral[y][x+w] - integral[y+h][x] + integral[y][x]
	}

	minArea := float64(width*height) * s.config.MinSubjectRatio
	var windows []window
	for _, frac := range []float64{0.25, 0.33, 0.5, 0.66} {
		w := int(float64(width) * frac)
		h := int(float64(height) * frac)
		if w < 4 || h < 4 || float64(w*h) < minArea {
			continue
		}
		step := int(math.Max(1, float64(minInt(w, h))/8))
		for y := 0; y+h <= height; y += step {
			for x := 0; x+w <= width; x += step {
				// mean saliency, weighted slightly towards larger windows
				score := sum(x, y, w, h) / float64(w*h) * (1 + 0.1*frac)
				windows = append(windows, window{x: x, y: y, w: w, h: h, score: score})
			}
		}
	}

	sort.SliceStable(windows, func(i, j int) bool { return windows[i].score > windows[j].score })
	return windows
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
