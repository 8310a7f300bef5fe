package config

import (
	"fmt"
	"sort"
	"strings"

	mandel "github.com/marben/mandel_zoom"
	"github.com/marben/mandel_zoom/render"
)

const (
	defaultMaxBuffers       = 4
	defaultBacklogThreshold = 2
	defaultIntervalMS       = 33
	defaultSnapshotFormat   = "png"
	defaultSnapshotEvery    = 1
)

var snapshotFormats = map[string]bool{"png": true, "bmp": true, "tiff": true}

// Validate fills defaults and checks the configuration. Errors wrap ErrInvalid.
func Validate(cfg *Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return invalid("width and height must be > 0, got %dx%d", cfg.Width, cfg.Height)
	}
	dims := mandel.Dimensions{Width: cfg.Width, Height: cfg.Height}
	if !dims.Square() {
		// The vertical extent is used for both axes, so wide frames zoom off-centre.
		mandel.Logger().Warn("non-square frame: the x axis is centred on height/2",
			"width", cfg.Width, "height", cfg.Height)
	}

	if cfg.Landmark != "" {
		region, ok := mandel.Landmarks[cfg.Landmark]
		if !ok {
			return invalid("unknown landmark %q (known: %s)", cfg.Landmark, landmarkNames())
		}
		center := region.Center()
		cfg.Offset = OffsetConfig{R: center.R, I: center.I}
		cfg.StartingScale = region.ScaleFor(dims)
	}

	if cfg.StartingScale <= 0 {
		return invalid("starting_scale must be > 0, got %g", cfg.StartingScale)
	}
	if cfg.ScalingFactor <= 0 {
		return invalid("scaling_factor must be > 0, got %g", cfg.ScalingFactor)
	}

	if err := validateRender(&cfg.Render); err != nil {
		return err
	}

	if cfg.Pipeline.MaxBuffers == 0 {
		cfg.Pipeline.MaxBuffers = defaultMaxBuffers
	}
	if cfg.Pipeline.MaxBuffers < 1 {
		return invalid("pipeline.max_buffers must be >= 1, got %d", cfg.Pipeline.MaxBuffers)
	}
	if cfg.Pipeline.BacklogThreshold == 0 {
		cfg.Pipeline.BacklogThreshold = defaultBacklogThreshold
	}
	if cfg.Pipeline.BacklogThreshold < 1 {
		return invalid("pipeline.backlog_threshold must be >= 1, got %d", cfg.Pipeline.BacklogThreshold)
	}

	return validateDisplay(&cfg.Display)
}

func validateRender(r *RenderConfig) error {
	if r.Workers < 0 {
		return invalid("render.workers must be >= 0, got %d", r.Workers)
	}
	if _, err := render.ParseStrategy(r.Partition); err != nil {
		return invalid("render.partition: %v", err)
	}
	if r.MaxIter == 0 {
		r.MaxIter = render.MaxIter
	}
	if r.MaxIter < 1 {
		return invalid("render.max_iter must be >= 1, got %d", r.MaxIter)
	}
	return nil
}

func validateDisplay(d *DisplayConfig) error {
	if d.IntervalMS == 0 {
		d.IntervalMS = defaultIntervalMS
	}
	if d.IntervalMS < 0 {
		return invalid("display.interval_ms must be >= 0, got %d", d.IntervalMS)
	}

	s := &d.Snapshot
	if s.Format == "" {
		s.Format = defaultSnapshotFormat
	}
	s.Format = strings.ToLower(s.Format)
	if !snapshotFormats[s.Format] {
		return invalid("display.snapshot.format %q (must be png, bmp or tiff)", s.Format)
	}
	if s.Every == 0 {
		s.Every = defaultSnapshotEvery
	}
	if s.Every < 1 {
		return invalid("display.snapshot.every must be >= 1, got %d", s.Every)
	}
	return nil
}

func landmarkNames() string {
	names := make([]string, 0, len(mandel.Landmarks))
	for name := range mandel.Landmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
