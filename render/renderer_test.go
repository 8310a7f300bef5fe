package render

import (
	"errors"
	"runtime"
	"slices"
	"testing"

	mandel "github.com/marben/mandel_zoom"
)

// reference renders a frame pixel by pixel on the calling goroutine.
func reference(scale float64, dims mandel.Dimensions, offset mandel.Complex) []uint32 {
	buf := make([]uint32, dims.Len())
	for i := range buf {
		k, escaped := EscapeTime(IndexToComplex(i, scale, dims, offset), MaxIter)
		buf[i] = DefaultColors.Color(k, escaped, MaxIter)
	}
	return buf
}

func TestRenderer_Defaults(t *testing.T) {
	r := New()
	if r.Workers() != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers() = %d, want GOMAXPROCS", r.Workers())
	}
	if r.Strategy() != Chunked {
		t.Errorf("Strategy() = %v, want chunked", r.Strategy())
	}
}

func TestRenderer_MatchesReference(t *testing.T) {
	dims := mandel.Dimensions{Width: 64, Height: 64}
	offset := mandel.Complex{R: -0.75, I: 0.1}
	want := reference(3.0/64, dims, offset)

	for _, strategy := range []Strategy{Chunked, Interleaved, Tiled} {
		for _, workers := range []int{1, 2, 3, 8, 64, 200} {
			r := New(WithWorkers(workers), WithStrategy(strategy))
			got := make([]uint32, dims.Len())
			r.Render(3.0/64, got, dims, offset)
			if !slices.Equal(got, want) {
				t.Errorf("%s workers=%d: frame differs from reference", strategy, workers)
			}
		}
	}
}

// Scenario: 4x4 frame, starting scale 1, factor 0.5, offset 0.
func TestRenderer_TwoFrameZoom(t *testing.T) {
	cfg := mandel.RenderConfig{
		Dims:          mandel.Dimensions{Width: 4, Height: 4},
		StartingScale: 1,
		ScalingFactor: 0.5,
	}
	r := New(WithWorkers(2))

	first := make([]uint32, cfg.Dims.Len())
	r.GenerateFrame(cfg, 0, first)
	if want := reference(1, cfg.Dims, cfg.Offset); !slices.Equal(first, want) {
		t.Fatalf("frame 0 = %x, want %x", first, want)
	}

	second := make([]uint32, cfg.Dims.Len())
	r.GenerateFrame(cfg, 1, second)
	if want := reference(0.5, cfg.Dims, cfg.Offset); !slices.Equal(second, want) {
		t.Fatalf("frame 1 = %x, want %x", second, want)
	}

	if slices.Equal(first, second) {
		t.Error("zooming in did not change the frame")
	}
	// (-2,-2) escapes at once, (-1,-1) only at k = 2.
	if first[0] == second[0] {
		t.Errorf("corner pixel unchanged: %x", first[0])
	}
}

func TestRenderer_InteriorIsBackground(t *testing.T) {
	dims := mandel.Dimensions{Width: 5, Height: 5}
	buf := make([]uint32, dims.Len())
	for i := range buf {
		buf[i] = 0xdeadbeef
	}
	// Scale 0 maps every pixel onto the offset, which is inside the set.
	New(WithWorkers(3)).Render(0, buf, dims, mandel.Complex{R: -0.5})
	for i, p := range buf {
		if p != Background {
			t.Fatalf("buf[%d] = %x, want background", i, p)
		}
	}
}

func TestRenderer_WrongBufferPanics(t *testing.T) {
	dims := mandel.Dimensions{Width: 4, Height: 4}
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrBufferSize) {
			t.Errorf("recovered %v, want ErrBufferSize", err)
		}
	}()
	New().Render(1, make([]uint32, 15), dims, mandel.Complex{})
}

func TestRenderer_CustomColors(t *testing.T) {
	dims := mandel.Dimensions{Width: 4, Height: 4}
	calls := make(chan int, dims.Len())
	mapper := mandel.ColorFunc(func(iter int, escaped bool, maxIter int) uint32 {
		calls <- iter
		return 0x00ffffff
	})

	buf := make([]uint32, dims.Len())
	New(WithColorMapper(mapper), WithMaxIter(10)).Render(1, buf, dims, mandel.Complex{})
	close(calls)

	escaped := 0
	for range calls {
		escaped++
	}
	white := 0
	for _, p := range buf {
		if p == 0x00ffffff {
			white++
		}
	}
	if escaped == 0 || white != escaped {
		t.Errorf("mapper called %d times, %d white pixels", escaped, white)
	}
}

func BenchmarkRender(b *testing.B) {
	cfg := mandel.DefaultRenderConfig()
	cfg.Dims = mandel.Dimensions{Width: 256, Height: 256}
	buf := make([]uint32, cfg.Dims.Len())
	for _, strategy := range []Strategy{Chunked, Interleaved, Tiled} {
		r := New(WithStrategy(strategy))
		b.Run(strategy.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				r.GenerateFrame(cfg, uint64(i%50), buf)
			}
		})
	}
}
