package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"

	mandel "github.com/marben/mandel_zoom"
)

// Renderer fills frame buffers using a fixed number of goroutines per frame.
//
// The goroutines are not long lived: Render spawns them, waits for all of them
// and only then returns. A Renderer is safe for concurrent use as long as the
// buffers passed to concurrent Render calls are distinct.
type Renderer struct {
	workers  int
	strategy Strategy
	colors   mandel.ColorMapper
	maxIter  int

	mu    sync.Mutex
	plans map[mandel.Dimensions][]Span
	tiles map[mandel.Dimensions][]image.Rectangle
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWorkers sets the number of goroutines per frame. Values < 1 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Renderer) { r.workers = n }
}

// WithStrategy selects the partitioning strategy.
func WithStrategy(s Strategy) Option {
	return func(r *Renderer) { r.strategy = s }
}

// WithColorMapper replaces DefaultColors.
func WithColorMapper(m mandel.ColorMapper) Option {
	return func(r *Renderer) { r.colors = m }
}

// WithMaxIter overrides MaxIter.
func WithMaxIter(n int) Option {
	return func(r *Renderer) { r.maxIter = n }
}

// New creates a Renderer. By default it uses GOMAXPROCS workers, chunked rows,
// DefaultColors and MaxIter iterations.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		strategy: Chunked,
		colors:   DefaultColors,
		maxIter:  MaxIter,
		plans:    make(map[mandel.Dimensions][]Span),
		tiles:    make(map[mandel.Dimensions][]image.Rectangle),
	}
	for _, o := range opts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	if r.colors == nil {
		r.colors = DefaultColors
	}
	if r.maxIter < 1 {
		r.maxIter = MaxIter
	}
	return r
}

// Workers returns the number of goroutines used per frame.
func (r *Renderer) Workers() int {
	return r.workers
}

// Strategy returns the partitioning strategy.
func (r *Renderer) Strategy() Strategy {
	return r.strategy
}

// plan returns the verified partition for dims, computing it on first use.
func (r *Renderer) plan(dims mandel.Dimensions) []Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spans, ok := r.plans[dims]; ok {
		return spans
	}

	spans := Partition(r.strategy, dims, r.workers)
	if err := Verify(spans, dims.Len()); err != nil {
		panic(fmt.Errorf("partition %s %s over %d workers: %w", r.strategy, dims, r.workers, err))
	}
	r.plans[dims] = spans

	mandel.Logger().Debug("render plan",
		"dims", dims.String(),
		"strategy", r.strategy.String(),
		"spans", len(spans),
	)
	return spans
}

// tilePlan returns the verified tiles for dims, computing them on first use.
func (r *Renderer) tilePlan(dims mandel.Dimensions) []image.Rectangle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tiles, ok := r.tiles[dims]; ok {
		return tiles
	}

	tiles := SplitTiles(dims, TileSize, TileSize)
	if err := VerifyTiles(tiles, dims); err != nil {
		panic(fmt.Errorf("tiles %s: %w", dims, err))
	}
	r.tiles[dims] = tiles

	mandel.Logger().Debug("render plan",
		"dims", dims.String(),
		"strategy", r.strategy.String(),
		"tiles", len(tiles),
	)
	return tiles
}

// Render fills every pixel of buf with the color of its point at the given scale.
// buf must be exactly dims.Len() long; anything else is a programming error and panics.
func (r *Renderer) Render(scale float64, buf []uint32, dims mandel.Dimensions, offset mandel.Complex) {
	if len(buf) != dims.Len() {
		panic(fmt.Errorf("%w: len %d, dims %s", ErrBufferSize, len(buf), dims))
	}

	if r.strategy == Tiled {
		r.renderTiles(scale, buf, dims, offset)
		return
	}

	spans := r.plan(dims)

	var wg sync.WaitGroup
	wg.Add(len(spans))
	for _, s := range spans {
		if s.Contiguous() {
			go func(s Span, part []uint32) {
				defer wg.Done()
				r.renderRange(part, s.Start, scale, dims, offset)
			}(s, buf[s.Start:s.End:s.End])
		} else {
			go func(s Span) {
				defer wg.Done()
				r.renderSpan(buf, s, scale, dims, offset)
			}(s)
		}
	}
	wg.Wait()
}

// renderTiles lets the workers pull tiles from a queue until the frame is done.
// Each tile row is a disjoint sub-slice of buf.
func (r *Renderer) renderTiles(scale float64, buf []uint32, dims mandel.Dimensions, offset mandel.Complex) {
	tiles := r.tilePlan(dims)
	q := newTileQueue(tiles)

	var wg sync.WaitGroup
	for range min(r.workers, len(tiles)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				tile, found := q.pop()
				if !found {
					return
				}
				for y := tile.Min.Y; y < tile.Max.Y; y++ {
					start, end := y*dims.Width+tile.Min.X, y*dims.Width+tile.Max.X
					r.renderRange(buf[start:end:end], start, scale, dims, offset)
				}
				q.finish(tile)
			}
		}()
	}
	wg.Wait()

	if l := mandel.Logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		l.Debug("tiles rendered", "dims", dims.String(), "tiles", len(tiles), "finished", q.finished())
	}
}

// renderRange fills a contiguous sub-slice whose first pixel has frame index base.
func (r *Renderer) renderRange(part []uint32, base int, scale float64, dims mandel.Dimensions, offset mandel.Complex) {
	for j := range part {
		part[j] = r.pixel(base+j, scale, dims, offset)
	}
}

// renderSpan fills a strided span of the shared buffer through Span.Store.
func (r *Renderer) renderSpan(buf []uint32, s Span, scale float64, dims mandel.Dimensions, offset mandel.Complex) {
	s.Each(func(i int) {
		s.Store(buf, i, r.pixel(i, scale, dims, offset))
	})
}

// pixel computes the color of a single frame index.
func (r *Renderer) pixel(i int, scale float64, dims mandel.Dimensions, offset mandel.Complex) uint32 {
	k, escaped := EscapeTime(IndexToComplex(i, scale, dims, offset), r.maxIter)
	if !escaped {
		return Background
	}
	return r.colors.Color(k, true, r.maxIter)
}

// GenerateFrame renders frame number frame of cfg into buf without any pipeline state.
func (r *Renderer) GenerateFrame(cfg mandel.RenderConfig, frame uint64, buf []uint32) {
	r.Render(cfg.ScaleAt(frame), buf, cfg.Dims, cfg.Offset)
}
