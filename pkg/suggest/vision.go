package suggest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/cropkit/pkg/types"
)

// DefaultPrompt asks the model for the primary subject box
const DefaultPrompt = `You are an image subject locator.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
    "cx": 0.0,
    "cy": 0.0
  },
  "description": "short neutral sentence (≤ 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the visually dominant subject (prefer people/vehicles/animals; else the most central salient object).
- If no subject is found, return:
  {"primary":{"label":"none","confidence":0.0,"box":{"x":0.25,"y":0.25,"w":0.50,"h":0.50},"cx":0.5,"cy":0.5},"description":"centered generic scene","tags":["generic"]}
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// VisionClient sends an image and prompt to a vision model
type VisionClient interface {
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error)
}

// VisionSuggester asks a vision model for the primary subject.
type VisionSuggester struct {
	client  VisionClient
	model   string
	maxSide int
	quality int
	prompt  string
}

// NewVisionSuggester creates a suggester that sends images of at most
// maxSide pixels on the long side (0 keeps the original size).
func NewVisionSuggester(client VisionClient, model string, maxSide int) *VisionSuggester {
	return &VisionSuggester{
		client:  client,
		model:   model,
		maxSide: maxSide,
		quality: 85,
		prompt:  DefaultPrompt,
	}
}

// SetPrompt overrides the subject locator prompt
func (s *VisionSuggester) SetPrompt(prompt string) {
	s.prompt = prompt
}

// Suggest implements Suggester.
func (s *VisionSuggester) Suggest(ctx context.Context, img image.Image) (types.Primary, error) {
	if img == nil {
		return types.Primary{}, fmt.Errorf("no image to analyze")
	}
	imgB64, err := prepareImage(img, s.maxSide, s.quality)
	if err != nil {
		return types.Primary{}, fmt.Errorf("failed to prepare image: %w", err)
	}

	result, err := s.client.AnalyzeImage(ctx, s.model, s.prompt, imgB64)
	if err != nil {
		return types.Primary{}, fmt.Errorf("subject detection failed: %w", err)
	}
	if result == nil || strings.EqualFold(result.Primary.Label, "none") {
		return fallbackPrimary("none"), nil
	}

	b := img.Bounds()
	primary := result.Primary
	primary.Box = normalizeBox(primary.Box, b.Dx(), b.Dy())
	if primary.Box.W <= 0 || primary.Box.H <= 0 {
		return fallbackPrimary("empty box"), nil
	}
	primary.Cx, primary.Cy = primary.Box.Center()
	primary.Confidence = clamp(primary.Confidence, 0, 1)
	return primary, nil
}

// prepareImage downsizes and JPEG-encodes an image for the model
func prepareImage(img image.Image, maxSide, quality int) (string, error) {
	if maxSide > 0 {
		b := img.Bounds()
		if b.Dx() > maxSide || b.Dy() > maxSide {
			img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
