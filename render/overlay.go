package render

import (
	"strconv"

	mandel "github.com/marben/mandel_zoom"
)

const (
	digitCols    = 3
	digitRows    = 5
	digitZoom    = 2 // each art cell becomes a 2x2 block, giving a 6x10 glyph
	digitAdvance = 8

	rgbMask uint32 = 0x00FFFFFF
)

var digitArt = [10][digitRows][digitCols]uint8{
	{{0, 1, 0}, {1, 0, 1}, {1, 0, 1}, {1, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 1, 0}, {0, 1, 0}, {0, 1, 0}, {1, 1, 1}},
	{{0, 1, 0}, {1, 0, 1}, {0, 0, 1}, {0, 1, 0}, {1, 1, 1}},
	{{1, 1, 0}, {0, 0, 1}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}},
	{{1, 0, 1}, {1, 0, 1}, {0, 1, 1}, {0, 0, 1}, {0, 0, 1}},
	{{1, 1, 1}, {1, 0, 0}, {1, 1, 0}, {0, 0, 1}, {1, 1, 1}},
	{{0, 1, 1}, {1, 0, 0}, {1, 1, 0}, {1, 0, 1}, {0, 1, 0}},
	{{1, 1, 1}, {0, 0, 1}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 1}, {0, 1, 0}, {1, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 1}, {0, 1, 1}, {0, 0, 1}, {0, 1, 0}},
}

// DrawCounter writes the decimal frame number into the top left corner of buf by
// inverting the color channels under each glyph. Drawing the same number twice restores
// the original pixels. Glyphs that do not fit in the frame are skipped.
func DrawCounter(frame uint64, buf []uint32, dims mandel.Dimensions) {
	if len(buf) < dims.Len() {
		return
	}

	const top = 1
	glyphW, glyphH := digitCols*digitZoom, digitRows*digitZoom
	if top+glyphH > dims.Height {
		return
	}

	left := 1
	for _, ch := range strconv.FormatUint(frame, 10) {
		if left+glyphW > dims.Width {
			return
		}
		art := &digitArt[ch-'0']
		for y := range glyphH {
			row := (top + y) * dims.Width
			for x := range glyphW {
				if art[y/digitZoom][x/digitZoom] == 1 {
					i := row + left + x
					buf[i] ^= rgbMask
				}
			}
		}
		left += digitAdvance
	}
}
