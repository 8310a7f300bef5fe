package mandel

import (
	"math"
	"strconv"
)

// EscapeRadius is the magnitude past which an orbit is known to diverge.
const EscapeRadius = 2.0

// Complex is a fixed precision complex number.
// It is a plain value; every operation returns a new Complex.
type Complex struct {
	R, I float64
}

// Add returns c+o.
func (c Complex) Add(o Complex) Complex {
	return Complex{R: c.R + o.R, I: c.I + o.I}
}

// Mul returns c*o. Each product is rounded before the sum; the explicit
// conversions keep the compiler from fusing them into an FMA.
func (c Complex) Mul(o Complex) Complex {
	return Complex{
		R: float64(c.R*o.R) - float64(c.I*o.I),
		I: float64(c.R*o.I) + float64(c.I*o.R),
	}
}

// Magnitude returns |c| without overflowing on the intermediate squares.
func (c Complex) Magnitude() float64 {
	return math.Hypot(c.R, c.I)
}

// Step applies one Mandelbrot iteration: z*z + k.
func (c Complex) Step(k Complex) Complex {
	return c.Mul(c).Add(k)
}

// Escaped reports whether the orbit point lies strictly outside EscapeRadius.
func (c Complex) Escaped() bool {
	return c.Magnitude() > EscapeRadius
}

func (c Complex) String() string {
	r := strconv.FormatFloat(c.R, 'g', -1, 64)
	i := strconv.FormatFloat(c.I, 'g', -1, 64)
	if c.I >= 0 || math.IsNaN(c.I) {
		return r + "+" + i + "i"
	}
	return r + i + "i"
}
