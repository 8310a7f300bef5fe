package render

import (
	"slices"
	"testing"

	mandel "github.com/marben/mandel_zoom"
)

func TestDrawCounter_SingleDigit(t *testing.T) {
	dims := mandel.Dimensions{Width: 10, Height: 12}
	buf := make([]uint32, dims.Len())
	DrawCounter(1, buf, dims)

	// Glyph "1": top art row is 0,1,0, so pixels x = 3..4 of rows 1..2 are lit.
	lit := func(x, y int) bool { return buf[y*dims.Width+x] == rgbMask }
	for _, p := range [][2]int{{3, 1}, {4, 1}, {3, 2}, {4, 2}} {
		if !lit(p[0], p[1]) {
			t.Errorf("pixel %v not inverted", p)
		}
	}
	for _, p := range [][2]int{{1, 1}, {2, 1}, {5, 1}, {6, 1}, {3, 0}, {0, 5}} {
		if lit(p[0], p[1]) {
			t.Errorf("pixel %v unexpectedly inverted", p)
		}
	}
	// Bottom art row of "1" is 1,1,1.
	for x := 1; x <= 6; x++ {
		if !lit(x, 10) {
			t.Errorf("bottom row pixel %d not inverted", x)
		}
	}
}

func TestDrawCounter_TwiceRestores(t *testing.T) {
	dims := mandel.Dimensions{Width: 64, Height: 16}
	buf := make([]uint32, dims.Len())
	for i := range buf {
		buf[i] = uint32(i) * 2654435761 & rgbMask
	}
	orig := slices.Clone(buf)

	DrawCounter(1234567, buf, dims)
	if slices.Equal(buf, orig) {
		t.Fatal("DrawCounter changed nothing")
	}
	for i, p := range buf {
		if p>>24 != 0 {
			t.Fatalf("buf[%d] = %#x: inversion touched the top byte", i, p)
		}
	}
	DrawCounter(1234567, buf, dims)
	if !slices.Equal(buf, orig) {
		t.Error("drawing the counter twice did not restore the frame")
	}
}

func TestDrawCounter_Clips(t *testing.T) {
	// Room for two glyphs only: 1 + 8 + 6 = 15 <= 20, the third would end at 23.
	dims := mandel.Dimensions{Width: 20, Height: 12}
	buf := make([]uint32, dims.Len())
	DrawCounter(888, buf, dims)

	for y := range dims.Height {
		for x := 17; x < dims.Width; x++ {
			if buf[y*dims.Width+x] != 0 {
				t.Fatalf("pixel (%d,%d) of a clipped glyph was drawn", x, y)
			}
		}
	}

	small := mandel.Dimensions{Width: 20, Height: 10}
	buf = make([]uint32, small.Len())
	DrawCounter(8, buf, small)
	for i, p := range buf {
		if p != 0 {
			t.Fatalf("buf[%d] drawn in a frame too short for a glyph", i)
		}
	}
}
