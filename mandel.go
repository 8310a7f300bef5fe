package mandel

import (
	"fmt"
	"math"
)

// Dimensions of a frame in pixels. Fixed for the lifetime of a run.
type Dimensions struct {
	Width, Height int
}

// Len is the number of pixels in a frame buffer.
func (d Dimensions) Len() int {
	return d.Width * d.Height
}

// Square reports whether the frame is as wide as it is tall.
// Plane mapping centres both axes on Height/2, so only square frames are symmetric.
func (d Dimensions) Square() bool {
	return d.Width == d.Height
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// RenderConfig is a read-only snapshot describing a zoom run.
// The only value that evolves is the scale, which the caller threads through
// successive render calls.
type RenderConfig struct {
	Dims Dimensions

	// StartingScale is the complex-plane distance covered by one pixel in frame 0.
	StartingScale float64

	// ScalingFactor multiplies the scale after every frame; < 1 zooms in.
	ScalingFactor float64

	// Offset is the pan centre added to every mapped point.
	Offset Complex
}

// DefaultRenderConfig zooms towards the tip of the needle on the real axis.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Dims:          Dimensions{Width: 1000, Height: 1000},
		StartingScale: 4.0 / 450.0,
		ScalingFactor: 0.95,
		Offset:        Complex{R: -1.78105004, I: 0},
	}
}

// ScaleAt returns the scale of the given frame number.
func (c RenderConfig) ScaleAt(frame uint64) float64 {
	return c.StartingScale * math.Pow(c.ScalingFactor, float64(frame))
}

// Frame is one rendered pixel buffer together with the scale it was rendered at.
// A Frame has exactly one owner at a time: the pipeline, a renderer or a display.
type Frame struct {
	Seq    uint64
	Scale  float64
	Dims   Dimensions
	Pixels []uint32
}

// Region within the Mandelbrot set
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Center is the pan offset that keeps the region in the middle of the frame.
func (r Region) Center() Complex {
	return Complex{R: (r.Xmin + r.Xmax) / 2, I: (r.Ymin + r.Ymax) / 2}
}

// ScaleFor returns the per-pixel scale at which the whole region fits into d.
func (r Region) ScaleFor(d Dimensions) float64 {
	side := min(d.Width, d.Height)
	if side <= 0 {
		return 0
	}
	return max(r.Xmax-r.Xmin, r.Ymax-r.Ymin) / float64(side)
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

// Landmarks indexes the classic regions by the names used in config files.
var Landmarks = map[string]Region{
	"seahorse-valley":         SeahorseValley,
	"elephant-valley":         ElephantValley,
	"spiral-minibrot":         SpiralMinibrot,
	"triple-spiral":           TripleSpiral,
	"valley-of-the-dragon":    ValleyOfTheDragon,
	"minibrot-in-mini-spiral": MinibrotInMiniSpiral,
}
