package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/menta2k/cropkit"
	"github.com/menta2k/cropkit/internal/config"
	"github.com/menta2k/cropkit/internal/logging"
	"github.com/menta2k/cropkit/internal/utils"
	"github.com/menta2k/cropkit/pkg/aspect"
	"github.com/menta2k/cropkit/pkg/cropper"
	"github.com/menta2k/cropkit/pkg/interaction"
	"github.com/menta2k/cropkit/pkg/processing"
	"github.com/menta2k/cropkit/pkg/region"
	"github.com/menta2k/cropkit/pkg/suggest"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "cropkit",
		Usage:   "crop images at natural resolution from display-space regions",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (.json, .yaml)"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			cropCommand(),
			suggestCommand(),
			ratiosCommand(),
			configCommand(),
		},
	}
}

// sessionFlags are shared by crop and suggest.
func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true, Usage: "input image path or URL"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default: derived from input in output.output_dir)"},
		&cli.StringFlag{Name: "display", Usage: "display box WxH the region is expressed in (default: natural size)"},
		&cli.Float64Flag{Name: "zoom", Value: 1, Usage: "zoom level"},
		&cli.StringFlag{Name: "ratio", Usage: "aspect ratio: free, square, 16:9, 1.5, ..."},
		&cli.StringFlag{Name: "ext", Usage: "output format: jpg|png|webp|bmp|tiff"},
		&cli.IntFlag{Name: "quality", Usage: "JPEG/WebP output quality (1-100)"},
		&cli.BoolFlag{Name: "lossless", Usage: "WebP lossless output"},
		&cli.StringFlag{Name: "overlay", Usage: "also write a preview of the crop over the full image to this path"},
		&cli.StringFlag{Name: "rasterizer", Value: "imaging", Usage: "imaging or draw"},
	}
}

func cropCommand() *cli.Command {
	flags := append(sessionFlags(),
		&cli.StringFlag{Name: "region", Aliases: []string{"r"}, Usage: "crop region x,y,w,h in display units"},
		&cli.StringFlag{Name: "gestures", Aliases: []string{"g"}, Usage: "YAML pointer event script to replay"},
	)
	return &cli.Command{
		Name:  "crop",
		Usage: "crop an image",
		Flags: flags,
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}

			if s := c.String("region"); s != "" {
				v, err := utils.ParseFloats(s, 4)
				if err != nil {
					return fmt.Errorf("--region: %w", err)
				}
				env.session.SetRegion(region.Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]})
			}

			if path := c.String("gestures"); path != "" {
				if err := replayGestures(c.Context, env, path); err != nil {
					return err
				}
			}

			return env.finish(c)
		},
	}
}

func suggestCommand() *cli.Command {
	flags := append(sessionFlags(),
		&cli.StringFlag{Name: "backend", Usage: "saliency, ollama or llamacpp (default from config)"},
		&cli.StringFlag{Name: "url", Usage: "vision server URL"},
		&cli.StringFlag{Name: "model", Usage: "vision model name"},
	)
	return &cli.Command{
		Name:  "suggest",
		Usage: "place the crop region on the main subject, then crop",
		Flags: flags,
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}

			sc := env.cfg.Suggest
			if v := c.String("backend"); v != "" {
				sc.Backend = v
			}
			if v := c.String("url"); v != "" {
				sc.URL = v
			}
			if v := c.String("model"); v != "" {
				sc.Model = v
			}

			sg, err := newSuggester(sc)
			if err != nil {
				return err
			}
			primary, err := env.session.Suggest(c.Context, sg)
			if err != nil {
				return err
			}
			env.logger.Info("subject",
				"label", primary.Label,
				"confidence", primary.Confidence,
				"box", fmt.Sprintf("%.3fx%.3f@%.3f,%.3f", primary.Box.W, primary.Box.H, primary.Box.X, primary.Box.Y))

			return env.finish(c)
		},
	}
}

func ratiosCommand() *cli.Command {
	return &cli.Command{
		Name:  "ratios",
		Usage: "list aspect ratio presets",
		Action: func(c *cli.Context) error {
			for _, r := range aspect.CommonAspectRatios() {
				if r.IsFree() {
					fmt.Fprintf(c.App.Writer, "%-12s any\n", r.Name)
					continue
				}
				fmt.Fprintf(c.App.Writer, "%-12s %d:%d (%.4f)\n", r.Name, r.Width, r.Height, r.Value())
			}
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "write the default configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "destination (default: user config dir)"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if path == "" {
				path = config.GetConfigPath()
			}
			if err := config.Default().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "wrote", path)
			return nil
		},
	}
}

type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	proc    *processing.Processor
	session *cropkit.Session
	input   string
	img     image.Image
}

func setup(c *cli.Context) (*env, error) {
	level, err := logging.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, err
	}
	logger := logging.New(level, c.App.ErrWriter)

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	proc := processing.New()
	input := c.String("in")
	img, err := proc.LoadImageSmart(c.Context, input)
	if err != nil {
		return nil, err
	}
	if err := proc.ValidateImage(img); err != nil {
		return nil, err
	}

	ratio, err := cfg.Ratio()
	if err != nil {
		return nil, err
	}
	if s := c.String("ratio"); s != "" {
		if ratio, err = aspect.Parse(s); err != nil {
			return nil, fmt.Errorf("--ratio: %w", err)
		}
	}

	opts := cropkit.DefaultOptions()
	opts.MinSize = cfg.Crop.MinSize
	opts.DefaultFraction = cfg.Crop.DefaultFraction
	opts.HandleTolerance = cfg.Crop.HandleTolerance
	opts.Zoom = cfg.ZoomSettings()
	opts.Ratio = ratio
	opts.Logger = logger
	switch c.String("rasterizer") {
	case "", "imaging":
	case "draw":
		opts.Rasterizer = cropper.DrawRasterizer{}
	default:
		return nil, fmt.Errorf("--rasterizer must be imaging or draw")
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if s := c.String("display"); s != "" {
		if w, h, err = utils.ParseSize(s); err != nil {
			return nil, fmt.Errorf("--display: %w", err)
		}
	}

	session := cropkit.New(opts)
	session.SetDisplayBox(w, h)
	session.Load(img)
	if z := c.Float64("zoom"); z != 1 {
		session.ZoomTo(z)
	}

	info := proc.GetImageInfo(img)
	logger.Debug("loaded", "source", input, "width", info.Width, "height", info.Height, "ratio", ratio.String())

	return &env{cfg: cfg, logger: logger, proc: proc, session: session, input: input, img: img}, nil
}

// replayGestures feeds a recorded pointer script through the session's
// event loop.
func replayGestures(ctx context.Context, e *env, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open gesture script: %w", err)
	}
	script, err := interaction.LoadScript(f)
	f.Close()
	if err != nil {
		return err
	}

	events := make(chan interaction.Event)
	go func() {
		defer close(events)
		for _, ev := range script {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return e.session.Serve(ctx, events, func(r region.Region) {
		e.logger.Debug("region", "x", r.X, "y", r.Y, "width", r.Width, "height", r.Height)
	})
}

// finish extracts the region and writes the crop and optional overlay.
func (e *env) finish(c *cli.Context) error {
	result, err := e.session.Extract()
	if err != nil {
		return err
	}

	ext := strings.ToLower(c.String("ext"))
	out := c.String("out")
	if ext == "" && out != "" {
		ext = processing.FormatFromPath(out)
	}
	if ext == "" {
		ext = e.cfg.Output.DefaultFormat
	}
	if out == "" {
		oc := e.cfg.Output
		out = utils.GenerateOutputFilename(e.input, oc.OutputDir, oc.Prefix, oc.Suffix, ext)
	}
	quality := c.Int("quality")
	if quality == 0 {
		quality = e.cfg.Output.Quality
	}
	lossless := c.Bool("lossless") || e.cfg.Output.Lossless

	if err := e.save(result.Image, out, ext, quality, lossless); err != nil {
		return err
	}
	e.logger.Info("crop",
		"rect", result.Rect.String(),
		"ratio", fmt.Sprintf("%.4f", result.AspectRatio),
		"coverage", fmt.Sprintf("%.3f", result.Coverage),
		"zoom", e.session.Zoom())

	if path := c.String("overlay"); path != "" {
		preview := e.proc.RenderOverlay(e.img, result.Rect, processing.DefaultOverlayStyle())
		if err := e.save(preview, path, processing.FormatFromPath(path), quality, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) save(img image.Image, path, format string, quality int, lossless bool) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := e.proc.SaveImage(img, path, format, quality, lossless); err != nil {
		return fmt.Errorf("save %s failed: %w", path, err)
	}
	size := ""
	if info, err := os.Stat(path); err == nil {
		size = utils.FormatFileSize(info.Size())
	}
	e.logger.Info("wrote", "path", path, "size", size)
	return nil
}

func newSuggester(sc config.SuggestConfig) (suggest.Suggester, error) {
	switch sc.Backend {
	case "", "saliency":
		return suggest.NewSaliencySuggester(), nil
	case "ollama":
		client, err := suggest.NewOllamaClient(sc.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		client.SetTimeout(sc.Timeout())
		return suggest.NewVisionSuggester(client, sc.Model, sc.MaxSide), nil
	case "llamacpp":
		client, err := suggest.NewLlamaCppClient(sc.URL, &http.Client{Timeout: sc.Timeout()})
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return suggest.NewVisionSuggester(client, sc.Model, sc.MaxSide), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use saliency, ollama or llamacpp)", sc.Backend)
	}
}
