package display

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var testPixels = []uint32{0xff0000, 0x00ff00, 0x0000ff, 0x123456}

func TestToImage(t *testing.T) {
	img := ToImage(testPixels, 2, 2)
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{R: 0xff, A: 0xff}},
		{1, 0, color.RGBA{G: 0xff, A: 0xff}},
		{0, 1, color.RGBA{B: 0xff, A: 0xff}},
		{1, 1, color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSnapshot_Formats(t *testing.T) {
	decoders := map[string]func(f *os.File) (image.Image, error){
		"png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			s, err := NewSnapshot(t.TempDir(), format, 1)
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Update(testPixels, 2, 2); err != nil {
				t.Fatal(err)
			}

			f, err := os.Open(s.Path(0))
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, err := decode(f)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
				t.Fatalf("bounds = %v", b)
			}
			r, g, b, _ := img.At(1, 1).RGBA()
			if r>>8 != 0x12 || g>>8 != 0x34 || b>>8 != 0x56 {
				t.Errorf("pixel (1,1) = %x %x %x", r>>8, g>>8, b>>8)
			}
		})
	}
}

func TestSnapshot_Every(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSnapshot(dir, "PNG", 2)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		if err := s.Update(testPixels, 2, 2); err != nil {
			t.Fatal(err)
		}
	}

	if s.Written() != 3 {
		t.Errorf("Written() = %d, want 3", s.Written())
	}
	for _, name := range []string{"frame-000000.png", "frame-000002.png", "frame-000004.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "frame-000001.png")); err == nil {
		t.Error("frame 1 should have been skipped")
	}
}

func TestSnapshot_Close(t *testing.T) {
	s, err := NewSnapshot(t.TempDir(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsOpen() || s.CloseRequested() {
		t.Fatal("new snapshot should be open")
	}
	_ = s.Close()
	if s.IsOpen() {
		t.Error("IsOpen after Close")
	}
	if err := s.Update(testPixels, 2, 2); !errors.Is(err, ErrClosed) {
		t.Errorf("Update after Close = %v, want ErrClosed", err)
	}
}

func TestNewSnapshot_UnknownFormat(t *testing.T) {
	if _, err := NewSnapshot(t.TempDir(), "gif", 1); err == nil {
		t.Error("expected an error for gif")
	}
}
