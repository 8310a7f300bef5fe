// Package pipeline keeps a renderer busy producing successive zoom frames.
//
// A single goroutine owns the zoom scale. It obtains a pixel buffer from a Valve,
// renders the next frame into it and forwards it on Frames. Consumers hand
// buffers back with Return; the valve reuses them, allocates more while the
// consumer is keeping up, and sheds buffers that pile up in the return queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mandel "github.com/marben/mandel_zoom"
	"github.com/marben/mandel_zoom/render"
)

// State of the pipeline goroutine.
type State int32

const (
	Idle State = iota
	AwaitingBuffer
	Rendering
	Forwarding
	Drained
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingBuffer:
		return "awaiting-buffer"
	case Rendering:
		return "rendering"
	case Forwarding:
		return "forwarding"
	case Drained:
		return "drained"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

const (
	// DefaultCap is the default maximum number of buffers in flight.
	DefaultCap = 4

	// DefaultBacklogThreshold is the default number of idle returned buffers tolerated.
	DefaultBacklogThreshold = 2
)

// Stats is a snapshot of pipeline activity.
type Stats struct {
	State     State
	Frames    uint64        // frames forwarded
	Scale     float64       // scale of the next frame to render
	LastFrame time.Duration // render time of the last frame
	Valve     ValveStats
}

// Pipeline renders frames continuously on a background goroutine.
type Pipeline struct {
	cfg       mandel.RenderConfig
	renderer  *render.Renderer
	cap       int
	threshold int
	outDepth  int
	counter   bool

	valve    *Valve // owned by run
	returned chan []uint32
	out      chan mandel.Frame
	state    atomic.Int32

	statsMu sync.Mutex
	stats   Stats
	late    atomic.Uint64 // buffers handed back after Close or drain

	retMu  sync.RWMutex
	closed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup

	startedMu sync.Mutex
	started   bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCap bounds the number of buffers in flight.
func WithCap(n int) Option {
	return func(p *Pipeline) { p.cap = n }
}

// WithBacklogThreshold sets how many returned buffers may wait before extras are shed.
func WithBacklogThreshold(n int) Option {
	return func(p *Pipeline) { p.threshold = n }
}

// WithOutputDepth sets the capacity of the Frames channel. It defaults to the cap,
// so forwarding only blocks when the consumer has every buffer queued.
func WithOutputDepth(n int) Option {
	return func(p *Pipeline) { p.outDepth = n }
}

// WithFrameCounter stamps the frame number into the top left corner of every frame.
func WithFrameCounter(on bool) Option {
	return func(p *Pipeline) { p.counter = on }
}

// New creates a stopped pipeline. Call Start to begin rendering.
func New(cfg mandel.RenderConfig, r *render.Renderer, opts ...Option) (*Pipeline, error) {
	if cfg.Dims.Width <= 0 || cfg.Dims.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %s", cfg.Dims)
	}
	if r == nil {
		r = render.New()
	}

	p := &Pipeline{
		cfg:       cfg,
		renderer:  r,
		cap:       DefaultCap,
		threshold: DefaultBacklogThreshold,
		outDepth:  -1,
	}
	for _, o := range opts {
		o(p)
	}
	if p.cap < 1 {
		return nil, fmt.Errorf("buffer cap must be >= 1, got %d", p.cap)
	}
	if p.threshold < 1 {
		return nil, fmt.Errorf("backlog threshold must be >= 1, got %d", p.threshold)
	}
	if p.outDepth < 0 {
		p.outDepth = p.cap
	}

	p.valve = NewValve(cfg.Dims.Len(), p.cap, p.threshold)
	// Every buffer in flight fits, so Return never blocks.
	p.returned = make(chan []uint32, p.cap)
	p.out = make(chan mandel.Frame, p.outDepth)
	p.stats.Scale = cfg.StartingScale
	return p, nil
}

// Start launches the render goroutine. It returns immediately.
// Cancelling ctx stops the pipeline after the frame in progress.
func (p *Pipeline) Start(ctx context.Context) error {
	p.startedMu.Lock()
	defer p.startedMu.Unlock()

	if p.started {
		return errors.New("pipeline already started")
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)

	mandel.Logger().Info("pipeline started",
		"dims", p.cfg.Dims.String(),
		"workers", p.renderer.Workers(),
		"strategy", p.renderer.Strategy().String(),
		"cap", p.cap,
		"backlog_threshold", p.threshold,
	)
	return nil
}

// Frames delivers rendered frames in render order. It is closed once the pipeline drains.
func (p *Pipeline) Frames() <-chan mandel.Frame {
	return p.out
}

// Return hands a frame's buffer back for reuse. The caller must not touch
// f.Pixels afterwards. Buffers returned after Close or after the pipeline
// drained are retired.
func (p *Pipeline) Return(f mandel.Frame) {
	p.retMu.RLock()
	defer p.retMu.RUnlock()

	if p.closed || p.State() == Drained {
		p.late.Add(1)
		return
	}
	p.returned <- f.Pixels
}

// Close closes the return queue. The pipeline finishes the frame in progress,
// renders into any buffers still queued, and then drains. Close is idempotent.
func (p *Pipeline) Close() {
	p.retMu.Lock()
	defer p.retMu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.returned)
	}
}

// Stop cancels the pipeline and waits for its goroutine to exit.
func (p *Pipeline) Stop() {
	p.startedMu.Lock()
	cancel := p.cancel
	p.startedMu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.Wait()
}

// Wait blocks until the pipeline goroutine has exited.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// State returns the current state of the pipeline goroutine.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Stats returns a snapshot of pipeline activity.
func (p *Pipeline) Stats() Stats {
	p.statsMu.Lock()
	s := p.stats
	p.statsMu.Unlock()

	late := p.late.Load()
	s.Valve.Retired += late
	s.Valve.InFlight -= int(late)
	s.State = p.State()
	return s
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// run is the render loop. scale and seq are local: no other goroutine sees them.
func (p *Pipeline) run(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.out)

	log := mandel.Logger()
	dims := p.cfg.Dims
	scale := p.cfg.StartingScale
	var seq uint64

	for {
		if ctx.Err() != nil {
			p.drain(ctx.Err())
			return
		}

		p.setState(AwaitingBuffer)
		buf, action, err := p.valve.Obtain(ctx, p.returned)
		if err != nil {
			p.drain(err)
			return
		}
		if action == Shed {
			log.Info("shed idle buffer", "in_flight", p.valve.Stats().InFlight)
		}

		p.setState(Rendering)
		start := time.Now()
		p.renderer.Render(scale, buf, dims, p.cfg.Offset)
		if p.counter {
			render.DrawCounter(seq, buf, dims)
		}
		elapsed := time.Since(start)

		frame := mandel.Frame{Seq: seq, Scale: scale, Dims: dims, Pixels: buf}
		seq++
		scale *= p.cfg.ScalingFactor

		log.Debug("frame rendered",
			"seq", frame.Seq,
			"scale", frame.Scale,
			"action", action.String(),
			"took", elapsed,
		)

		p.setState(Forwarding)
		select {
		case p.out <- frame:
			p.publish(seq, scale, elapsed)
		case <-ctx.Done():
			p.valve.Retire()
			p.drain(ctx.Err())
			return
		}
	}
}

func (p *Pipeline) publish(frames uint64, scale float64, took time.Duration) {
	p.statsMu.Lock()
	p.stats.Frames = frames
	p.stats.Scale = scale
	p.stats.LastFrame = took
	p.stats.Valve = p.valve.Stats()
	p.statsMu.Unlock()
}

func (p *Pipeline) drain(cause error) {
	p.statsMu.Lock()
	p.stats.Valve = p.valve.Stats()
	p.statsMu.Unlock()

	// Nothing reads the return queue from here on; retire what is left in it.
	p.retMu.Lock()
	p.setState(Drained)
	for n := len(p.returned); n > 0; n-- {
		<-p.returned
		p.late.Add(1)
	}
	p.retMu.Unlock()

	if errors.Is(cause, ErrDrained) {
		mandel.Logger().Info("pipeline drained", "frames", p.stats.Frames)
		return
	}
	mandel.Logger().Info("pipeline stopped", "frames", p.stats.Frames, "cause", cause)
}
