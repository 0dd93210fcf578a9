// Package processing decodes and encodes the images a crop session works on.
package processing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Config holds configuration for the processor
type Config struct {
	DefaultQuality   int
	SupportedFormats []string
	MinImageSize     int
	HTTPTimeout      time.Duration
	UserAgent        string
}

// DefaultConfig returns the standard processor settings
func DefaultConfig() Config {
	return Config{
		DefaultQuality:   90,
		SupportedFormats: []string{"jpeg", "png", "webp", "bmp", "tiff", "gif"},
		MinImageSize:     1,
		HTTPTimeout:      30 * time.Second,
		UserAgent:        "cropkit/1.0",
	}
}

// Processor handles image loading and saving
type Processor struct {
	config Config
	client *http.Client
}

// New creates a processor with default configuration
func New() *Processor {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a processor with custom configuration
func NewWithConfig(config Config) *Processor {
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = DefaultConfig().HTTPTimeout
	}
	return &Processor{
		config: config,
		client: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// GetImageInfo returns basic information about an image
func (p *Processor) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	info := ImageInfo{Width: width, Height: height, Area: width * height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ValidateImage checks if an image meets minimum requirements
func (p *Processor) ValidateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("no image")
	}
	bounds := img.Bounds()
	if bounds.Dx() < p.config.MinImageSize || bounds.Dy() < p.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), p.config.MinImageSize)
	}
	return nil
}

func (p *Processor) isFormatSupported(format string) bool {
	if len(p.config.SupportedFormats) == 0 {
		return true
	}
	for _, supported := range p.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	img, err := p.DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes an image from a reader. Registered decoders are
// tried first, then chai2010/webp for WebP variants x/image cannot read.
func (p *Processor) DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return p.decodeImageFromBytes(data)
}

func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil {
		if !p.isFormatSupported(format) {
			return nil, fmt.Errorf("unsupported image format: %s", format)
		}
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		if !p.isFormatSupported("webp") {
			return nil, fmt.Errorf("unsupported image format: webp")
		}
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	return p.DecodeImage(resp.Body)
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(ctx, source)
	}
	return p.LoadImage(source)
}

// FormatFromPath returns the output format implied by a file extension,
// defaulting to jpg.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "webp", "bmp", "tiff":
		return ext
	case "tif":
		return "tiff"
	default:
		return "jpg"
	}
}

// Encode writes img to w in the given format.
func (p *Processor) Encode(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	if quality <= 0 {
		quality = p.config.DefaultQuality
	}
	var err error
	switch strings.ToLower(format) {
	case "webp":
		err = webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "png":
		err = imaging.Encode(w, img, imaging.PNG)
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff", "tif":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case "jpg", "jpeg", "":
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// SaveImage saves an image to a file. An empty format is taken from the
// file extension.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := p.Encode(f, img, format, quality, lossless); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
