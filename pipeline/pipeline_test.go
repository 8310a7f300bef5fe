package pipeline

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	mandel "github.com/marben/mandel_zoom"
	"github.com/marben/mandel_zoom/render"
)

func smallConfig() mandel.RenderConfig {
	return mandel.RenderConfig{
		Dims:          mandel.Dimensions{Width: 4, Height: 4},
		StartingScale: 1,
		ScalingFactor: 0.5,
	}
}

func receive(t *testing.T, p *Pipeline) (mandel.Frame, bool) {
	t.Helper()
	select {
	case f, ok := <-p.Frames():
		return f, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for frame")
		return mandel.Frame{}, false
	}
}

func waitDrained(t *testing.T, p *Pipeline) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not drain")
	}
	if p.State() != Drained {
		t.Errorf("State() = %v, want drained", p.State())
	}
}

func TestPipeline_FramesInZoomOrder(t *testing.T) {
	cfg := smallConfig()
	r := render.New(render.WithWorkers(2))
	p, err := New(cfg, r, WithCap(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	want := make([]uint32, cfg.Dims.Len())
	prevScale := 2.0
	for seq := range uint64(6) {
		f, ok := receive(t, p)
		if !ok {
			t.Fatal("frames closed early")
		}
		if f.Seq != seq {
			t.Fatalf("Seq = %d, want %d", f.Seq, seq)
		}
		if f.Scale != cfg.ScaleAt(seq) || f.Scale >= prevScale {
			t.Fatalf("frame %d scale %v, want %v below %v", seq, f.Scale, cfg.ScaleAt(seq), prevScale)
		}
		prevScale = f.Scale

		r.GenerateFrame(cfg, seq, want)
		if !slices.Equal(f.Pixels, want) {
			t.Fatalf("frame %d differs from a direct render", seq)
		}
		p.Return(f)
	}
}

func TestPipeline_InFlightNeverExceedsCap(t *testing.T) {
	const limit = 3
	cfg := smallConfig()
	p, err := New(cfg, render.New(render.WithWorkers(2)), WithCap(limit), WithBacklogThreshold(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	rng := rand.New(rand.NewPCG(1, 2))
	var held []mandel.Frame
	for range 300 {
		if len(held) == limit {
			p.Return(held[0])
			held = held[1:]
		}

		f, ok := receive(t, p)
		if !ok {
			t.Fatal("frames closed early")
		}
		held = append(held, f)

		if s := p.Stats(); s.Valve.InFlight > limit {
			t.Fatalf("in flight %d exceeds cap %d", s.Valve.InFlight, limit)
		}

		// Return a random number of held frames, sometimes in bursts.
		for n := rng.IntN(len(held) + 1); n > 0; n-- {
			i := rng.IntN(len(held))
			p.Return(held[i])
			held = slices.Delete(held, i, i+1)
		}
	}

	s := p.Stats()
	if s.Valve.Allocated-s.Valve.Retired > limit {
		t.Errorf("allocated %d - retired %d exceeds cap", s.Valve.Allocated, s.Valve.Retired)
	}
}

func TestPipeline_CloseDrains(t *testing.T) {
	p, err := New(smallConfig(), render.New(render.WithWorkers(1)), WithCap(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	f, _ := receive(t, p)
	p.Return(f)
	p.Close()
	p.Close()

	// Everything still in flight is delivered, then the channel closes.
	for {
		f, ok := receive(t, p)
		if !ok {
			break
		}
		p.Return(f)
	}
	waitDrained(t, p)

	s := p.Stats()
	if s.Valve.InFlight != 0 {
		t.Errorf("in flight after drain = %d, want 0 (%+v)", s.Valve.InFlight, s.Valve)
	}
	if s.Valve.Retired != s.Valve.Allocated {
		t.Errorf("retired %d != allocated %d", s.Valve.Retired, s.Valve.Allocated)
	}
}

func TestPipeline_StopWhileWaiting(t *testing.T) {
	p, err := New(smallConfig(), render.New(), WithCap(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Hold the only buffer so the pipeline blocks in the valve.
	f, _ := receive(t, p)
	deadline := time.Now().Add(5 * time.Second)
	for p.State() != AwaitingBuffer && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	p.Stop()
	waitDrained(t, p)
	if _, ok := <-p.Frames(); ok {
		t.Error("Frames still open after Stop")
	}
	p.Return(f)

	if s := p.Stats().Valve; s.InFlight != 0 || s.Retired != s.Allocated {
		t.Errorf("after Stop and Return: %+v, want every buffer retired", s)
	}
}

func TestPipeline_FrameCounter(t *testing.T) {
	cfg := smallConfig()
	cfg.Dims = mandel.Dimensions{Width: 16, Height: 16}
	r := render.New()

	p, err := New(cfg, r, WithFrameCounter(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	f, _ := receive(t, p)
	plain := make([]uint32, cfg.Dims.Len())
	r.GenerateFrame(cfg, 0, plain)
	if slices.Equal(f.Pixels, plain) {
		t.Fatal("frame counter not drawn")
	}
	render.DrawCounter(0, plain, cfg.Dims)
	if !slices.Equal(f.Pixels, plain) {
		t.Error("frame differs from render + counter")
	}
}

func TestPipeline_StartTwice(t *testing.T) {
	p, err := New(smallConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	if err := p.Start(context.Background()); err == nil {
		t.Error("second Start succeeded")
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(mandel.RenderConfig{}, nil); err == nil {
		t.Error("accepted empty dimensions")
	}
	if _, err := New(smallConfig(), nil, WithCap(0)); err == nil {
		t.Error("accepted cap 0")
	}
	if _, err := New(smallConfig(), nil, WithBacklogThreshold(0)); err == nil {
		t.Error("accepted threshold 0")
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		AwaitingBuffer: "awaiting-buffer",
		Rendering:      "rendering",
		Forwarding:     "forwarding",
		Drained:        "drained",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
