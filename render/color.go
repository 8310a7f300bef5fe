package render

import (
	"math"

	mandel "github.com/marben/mandel_zoom"
)

// Background is the color of points that never escape.
const Background uint32 = 0x00000000

// HueWheel cycles the hue once every Period iterations at fixed saturation and value.
type HueWheel struct {
	Period     float64
	Saturation float64
	Value      float64
}

// DefaultColors is the pastel wheel used unless a renderer is given another mapper.
var DefaultColors = HueWheel{Period: 70, Saturation: 0.5, Value: 1}

var _ mandel.ColorMapper = HueWheel{}

// Color implements mandel.ColorMapper.
func (w HueWheel) Color(iter int, escaped bool, _ int) uint32 {
	if !escaped {
		return Background
	}
	return HSV(math.Mod(float64(iter)/w.Period, 1), w.Saturation, w.Value)
}

// HSV converts hue, saturation and value in [0, 1] into packed 0x00RRGGBB.
func HSV(h, s, v float64) uint32 {
	if s == 0 {
		return pack(v, v, v)
	}

	h = math.Mod(h, 1) * 6
	i := int(h)
	f := h - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch i % 6 {
	case 0:
		return pack(v, t, p)
	case 1:
		return pack(q, v, p)
	case 2:
		return pack(p, v, t)
	case 3:
		return pack(p, q, v)
	case 4:
		return pack(t, p, v)
	default:
		return pack(v, p, q)
	}
}

func pack(r, g, b float64) uint32 {
	return uint32(channel(r))<<16 | uint32(channel(g))<<8 | uint32(channel(b))
}

func channel(x float64) uint8 {
	return uint8(math.Max(0, math.Min(1, x)) * 255)
}
