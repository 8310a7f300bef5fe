package mandel

import (
	"math"
	"testing"
)

func TestRenderConfig_ScaleAt(t *testing.T) {
	cfg := RenderConfig{StartingScale: 1, ScalingFactor: 0.5}
	for frame, want := range []float64{1, 0.5, 0.25, 0.125} {
		if got := cfg.ScaleAt(uint64(frame)); got != want {
			t.Errorf("ScaleAt(%d) = %v, want %v", frame, got, want)
		}
	}
}

func TestDefaultRenderConfig(t *testing.T) {
	cfg := DefaultRenderConfig()
	if cfg.Dims.Len() != 1_000_000 {
		t.Errorf("Len() = %d, want 1000000", cfg.Dims.Len())
	}
	if !cfg.Dims.Square() {
		t.Error("default dimensions should be square")
	}
	if cfg.ScalingFactor >= 1 {
		t.Errorf("ScalingFactor = %v, want zoom in", cfg.ScalingFactor)
	}
}

func TestRegion_CenterAndScale(t *testing.T) {
	r := Region{Xmin: -1, Xmax: 1, Ymin: -0.5, Ymax: 0.5}
	if got := r.Center(); got != (Complex{0, 0}) {
		t.Errorf("Center() = %v", got)
	}
	if got := r.ScaleFor(Dimensions{Width: 200, Height: 100}); math.Abs(got-0.02) > 1e-15 {
		t.Errorf("ScaleFor() = %v, want 0.02", got)
	}
	if got := r.ScaleFor(Dimensions{}); got != 0 {
		t.Errorf("ScaleFor(empty) = %v, want 0", got)
	}
}

func TestLandmarks(t *testing.T) {
	for name, r := range Landmarks {
		if r.Xmin >= r.Xmax || r.Ymin >= r.Ymax {
			t.Errorf("%s: degenerate region %+v", name, r)
		}
	}
	if Landmarks["seahorse-valley"] != SeahorseValley {
		t.Error("seahorse-valley not registered")
	}
}
