// Package render turns a point of view on the complex plane into a frame of packed pixels.
//
// Rendering is split across a fixed number of goroutines. Every goroutine owns a
// disjoint Span of the frame buffer, so pixels are written without locks.
package render

import (
	mandel "github.com/marben/mandel_zoom"
)

// MaxIter is the iteration cap of the escape-time test.
const MaxIter = 600

// EscapeTime iterates z = z*z + c from z = 0.
// It returns the zero based iteration k after which |z| first exceeded
// mandel.EscapeRadius, or escaped == false if that never happened within maxIter
// iterations.
//
// The strict > test is the only boundary test: a point whose orbit lands exactly on
// |z| == 2 keeps iterating and is colored according to where it goes next.
func EscapeTime(c mandel.Complex, maxIter int) (k int, escaped bool) {
	var z mandel.Complex
	for k = 0; k < maxIter; k++ {
		z = z.Step(c)
		if z.Escaped() {
			return k, true
		}
	}
	return 0, false
}

// IndexToComplex maps the linear pixel index i to its point on the complex plane.
//
// Both axes are centred on Height/2 and the row is i / Height; this is only
// symmetric for square frames.
func IndexToComplex(i int, scale float64, dims mandel.Dimensions, offset mandel.Complex) mandel.Complex {
	half := dims.Height / 2
	x := i%dims.Width - half
	y := i/dims.Height - half

	return mandel.Complex{R: float64(x) * scale, I: float64(y) * scale}.Add(offset)
}
