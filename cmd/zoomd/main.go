// zoomd renders an endless Mandelbrot zoom and plays it to websocket viewers
// and/or image snapshots on disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mandel "github.com/marben/mandel_zoom"
	"github.com/marben/mandel_zoom/config"
	"github.com/marben/mandel_zoom/display"
	"github.com/marben/mandel_zoom/pipeline"
	"github.com/marben/mandel_zoom/render"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration file (defaults are used when empty)")
	landmark := flag.String("landmark", "", "zoom into a named region, overrides the config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	mandel.SetLogger(logger)

	cfg, err := loadConfig(*configPath, *landmark)
	if err != nil {
		return err
	}

	strategy, err := render.ParseStrategy(cfg.Render.Partition)
	if err != nil {
		return err
	}
	renderer := render.New(
		render.WithWorkers(cfg.Render.Workers),
		render.WithStrategy(strategy),
		render.WithMaxIter(cfg.Render.MaxIter),
	)

	p, err := pipeline.New(cfg.RenderConfig(), renderer,
		pipeline.WithCap(cfg.Pipeline.MaxBuffers),
		pipeline.WithBacklogThreshold(cfg.Pipeline.BacklogThreshold),
		pipeline.WithFrameCounter(cfg.Pipeline.FrameCounter),
	)
	if err != nil {
		return fmt.Errorf("pipeline.New: %w", err)
	}

	var sinks display.Multi
	var hub *display.Hub
	var srv *http.Server
	if cfg.Display.Listen != "" {
		hub = display.NewHub()
		srv = webServer(cfg.Display.Listen, hub, p)
		sinks = append(sinks, hub)
	}
	if dir := cfg.Display.Snapshot.Dir; dir != "" {
		snap, err := display.NewSnapshot(dir, cfg.Display.Snapshot.Format, cfg.Display.Snapshot.Every)
		if err != nil {
			return err
		}
		defer snap.Close()
		sinks = append(sinks, snap)
		slog.Info("writing snapshots", "dir", dir, "format", cfg.Display.Snapshot.Format, "every", cfg.Display.Snapshot.Every)
	}
	if len(sinks) == 0 {
		return errors.New("no display configured: set display.listen or display.snapshot.dir")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	if srv != nil {
		go func() {
			slog.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
				stop()
			}
		}()
	}

	if err := p.Start(ctx); err != nil {
		return err
	}

	shown, playErr := display.Play(ctx, p, sinks, display.NewLimiter(cfg.Display.Interval()))
	if errors.Is(playErr, context.Canceled) {
		slog.Info("received shutdown signal")
		playErr = nil
	}

	// Let the pipeline finish what it has in flight and hand every buffer back.
	p.Close()
	leftover := display.Drain(p)
	p.Stop()

	stats := p.Stats()
	slog.Info("zoom stopped",
		"frames_rendered", stats.Frames,
		"frames_shown", shown,
		"frames_discarded", leftover,
		"buffers_allocated", stats.Valve.Allocated,
		"buffers_retired", stats.Valve.Retired,
		"buffers_in_flight", stats.Valve.InFlight,
	)

	if hub != nil {
		_ = hub.Close()
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}
	return playErr
}

func loadConfig(path, landmark string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if landmark != "" {
		cfg.Landmark = landmark
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	slog.Info("configuration loaded",
		"config", path,
		"dims", cfg.RenderConfig().Dims.String(),
		"offset", cfg.RenderConfig().Offset.String(),
		"starting_scale", cfg.StartingScale,
		"scaling_factor", cfg.ScalingFactor,
	)
	return cfg, nil
}
