// render draws a single frame of the zoom to an image file without starting the pipeline.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	mandel "github.com/marben/mandel_zoom"
	"github.com/marben/mandel_zoom/config"
	"github.com/marben/mandel_zoom/display"
	"github.com/marben/mandel_zoom/render"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration file")
	landmark := flag.String("landmark", "", "render a named region instead of the configured offset")
	frame := flag.Uint64("frame", 0, "frame number; the scale is starting_scale * scaling_factor^frame")
	out := flag.String("o", "mandel.png", "output file, format from the extension (png, bmp, tiff)")
	counter := flag.Bool("counter", false, "stamp the frame number in the top left corner")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	mandel.SetLogger(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *landmark != "" {
		cfg.Landmark = *landmark
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	strategy, err := render.ParseStrategy(cfg.Render.Partition)
	if err != nil {
		return err
	}
	r := render.New(
		render.WithWorkers(cfg.Render.Workers),
		render.WithStrategy(strategy),
		render.WithMaxIter(cfg.Render.MaxIter),
	)

	rc := cfg.RenderConfig()
	buf := make([]uint32, rc.Dims.Len())
	start := time.Now()
	r.GenerateFrame(rc, *frame, buf)
	if *counter {
		render.DrawCounter(*frame, buf, rc.Dims)
	}
	logger.Info("frame rendered",
		"frame", *frame,
		"scale", rc.ScaleAt(*frame),
		"dims", rc.Dims.String(),
		"workers", r.Workers(),
		"took", time.Since(start),
	)

	return save(*out, display.ToImage(buf, rc.Dims.Width, rc.Dims.Height))
}

func save(name string, img *image.RGBA) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if format == "" {
		format = "png"
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := display.Encode(f, img, format); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	log.Printf("frame saved to %q", name)
	return f.Close()
}
