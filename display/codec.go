package display

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrMalformed is returned by DecodeFrame for messages that do not describe a whole frame.
var ErrMalformed = errors.New("malformed frame message")

// WireFrame is a frame as it travels to viewers.
// Pixels are 0x00RRGGBB, row-major.
type WireFrame struct {
	Seq    uint64
	Width  int
	Height int
	Pixels []uint32
}

// wireFrame is the msgpack layout. Pixels go out as little-endian uint32 bytes
// so a browser can read them with a DataView.
type wireFrame struct {
	Seq    uint64 `msgpack:"seq"`
	Width  int    `msgpack:"w"`
	Height int    `msgpack:"h"`
	Pixels []byte `msgpack:"px"`
}

// EncodeFrame marshals f to msgpack. The result does not alias f.Pixels.
func EncodeFrame(f WireFrame) ([]byte, error) {
	if !covers(len(f.Pixels), f.Width, f.Height) {
		return nil, fmt.Errorf("encode frame %d: %d pixels for %dx%d", f.Seq, len(f.Pixels), f.Width, f.Height)
	}

	px := make([]byte, 4*len(f.Pixels))
	for i, p := range f.Pixels {
		binary.LittleEndian.PutUint32(px[4*i:], p)
	}

	b, err := msgpack.Marshal(&wireFrame{Seq: f.Seq, Width: f.Width, Height: f.Height, Pixels: px})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal msgpack frame: %w", err)
	}
	return b, nil
}

// DecodeFrame unmarshals a message produced by EncodeFrame.
func DecodeFrame(data []byte) (WireFrame, error) {
	var w wireFrame
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return WireFrame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(w.Pixels)%4 != 0 || !covers(len(w.Pixels)/4, w.Width, w.Height) {
		return WireFrame{}, fmt.Errorf("%w: %d bytes for %dx%d", ErrMalformed, len(w.Pixels), w.Width, w.Height)
	}

	f := WireFrame{Seq: w.Seq, Width: w.Width, Height: w.Height, Pixels: make([]uint32, w.Width*w.Height)}
	for i := range f.Pixels {
		f.Pixels[i] = binary.LittleEndian.Uint32(w.Pixels[4*i:])
	}
	return f, nil
}

// covers reports whether n pixels are exactly a width x height frame.
// It divides instead of multiplying so hostile dimensions cannot overflow.
func covers(n, width, height int) bool {
	return width > 0 && height > 0 && n%width == 0 && n/width == height
}
