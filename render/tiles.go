package render

import (
	"fmt"
	"image"
	"sync"

	mandel "github.com/marben/mandel_zoom"
)

// TileSize is the edge length of the square tiles used by the Tiled strategy.
const TileSize = 64

// SplitTiles splits a frame into tiles of tileW x tileH pixels.
// Tiles at the right and bottom edges are smaller when dims is not divisible.
func SplitTiles(dims mandel.Dimensions, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	var tiles []image.Rectangle
	for oy := 0; oy < dims.Height; oy += tileH {
		th := min(tileH, dims.Height-oy)
		for ox := 0; ox < dims.Width; ox += tileW {
			tw := min(tileW, dims.Width-ox)
			tiles = append(tiles, image.Rect(ox, oy, ox+tw, oy+th))
		}
	}
	return tiles
}

// VerifyTiles checks that tiles cover the frame with every pixel owned exactly once.
func VerifyTiles(tiles []image.Rectangle, dims mandel.Dimensions) error {
	frame := image.Rect(0, 0, dims.Width, dims.Height)
	owned := make([]bool, dims.Len())
	for k, t := range tiles {
		if !t.In(frame) {
			return fmt.Errorf("%w: tile %d %v outside %v", ErrPartition, k, t, frame)
		}
		for y := t.Min.Y; y < t.Max.Y; y++ {
			for x := t.Min.X; x < t.Max.X; x++ {
				i := y*dims.Width + x
				if owned[i] {
					return fmt.Errorf("%w: pixel (%d,%d) in more than one tile", ErrPartition, x, y)
				}
				owned[i] = true
			}
		}
	}
	for i, o := range owned {
		if !o {
			return fmt.Errorf("%w: pixel (%d,%d) not in any tile", ErrPartition, i%dims.Width, i/dims.Width)
		}
	}
	return nil
}

// tileQueue hands out the tiles of one frame to whichever worker asks first.
type tileQueue struct {
	m              sync.Mutex
	unstarted      []image.Rectangle
	totalPixels    int
	finishedPixels int
}

func newTileQueue(tiles []image.Rectangle) *tileQueue {
	total := 0
	for _, t := range tiles {
		total += t.Dx() * t.Dy()
	}
	return &tileQueue{unstarted: tiles, totalPixels: total}
}

func (q *tileQueue) pop() (tile image.Rectangle, found bool) {
	q.m.Lock()
	defer q.m.Unlock()

	if len(q.unstarted) == 0 {
		return image.Rectangle{}, false
	}
	tile = q.unstarted[0]
	q.unstarted = q.unstarted[1:]
	return tile, true
}

func (q *tileQueue) finish(tile image.Rectangle) {
	q.m.Lock()
	q.finishedPixels += tile.Dx() * tile.Dy()
	q.m.Unlock()
}

// finished is the fraction of pixels rendered so far.
func (q *tileQueue) finished() float32 {
	q.m.Lock()
	defer q.m.Unlock()
	if q.totalPixels == 0 {
		return 1
	}
	return float32(q.finishedPixels) / float32(q.totalPixels)
}
