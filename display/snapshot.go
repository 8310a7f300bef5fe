package display

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	mandel "github.com/marben/mandel_zoom"
)

// Snapshot is a display that writes every Nth frame it is shown to an image file.
type Snapshot struct {
	dir    string
	format string
	every  int

	mu      sync.Mutex
	seen    uint64
	written uint64
	closed  bool
}

var _ mandel.Display = (*Snapshot)(nil)

// NewSnapshot creates dir if needed. format is png, bmp or tiff; every < 1 means every frame.
func NewSnapshot(dir, format string, every int) (*Snapshot, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = "png"
	}
	if err := Encode(io.Discard, image.NewRGBA(image.Rect(0, 0, 1, 1)), format); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Snapshot{dir: dir, format: format, every: max(every, 1)}, nil
}

// Path is where the frame with the given update index is written.
func (s *Snapshot) Path(index uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame-%06d.%s", index, s.format))
}

// Update writes the frame if its index is a multiple of every.
func (s *Snapshot) Update(pixels []uint32, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	index := s.seen
	s.seen++
	if index%uint64(s.every) != 0 {
		return nil
	}
	if len(pixels) != width*height {
		return fmt.Errorf("snapshot: %d pixels for %dx%d", len(pixels), width, height)
	}

	path := s.Path(index)
	if err := s.write(path, ToImage(pixels, width, height)); err != nil {
		return err
	}
	s.written++
	mandel.Logger().Debug("snapshot written", "path", path)
	return nil
}

func (s *Snapshot) write(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is built from the configured dir
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := Encode(f, img, s.format); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Written is the number of image files written so far.
func (s *Snapshot) Written() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

func (s *Snapshot) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Snapshot) CloseRequested() bool { return false }

// Close stops further writes.
func (s *Snapshot) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// ToImage converts 0x00RRGGBB pixels to an opaque RGBA image.
func ToImage(pixels []uint32, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	n := min(len(pixels), width*height)
	for i := range n {
		p := pixels[i]
		o := 4 * i
		img.Pix[o+0] = uint8(p >> 16)
		img.Pix[o+1] = uint8(p >> 8)
		img.Pix[o+2] = uint8(p)
		img.Pix[o+3] = 0xff
	}
	return img
}

// Encode writes img to w as png, bmp or tiff.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff", "tif":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}
