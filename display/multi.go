package display

import (
	"errors"

	mandel "github.com/marben/mandel_zoom"
)

// Multi shows every frame on all of its open sinks.
// It stays open while any sink is open and asks to close when any sink does.
type Multi []mandel.Display

var _ mandel.Display = Multi(nil)

func (m Multi) Update(pixels []uint32, width, height int) error {
	var errs []error
	for _, d := range m {
		if !d.IsOpen() {
			continue
		}
		if err := d.Update(pixels, width, height); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 && !m.IsOpen() {
		return ErrClosed
	}
	return errors.Join(errs...)
}

func (m Multi) IsOpen() bool {
	for _, d := range m {
		if d.IsOpen() {
			return true
		}
	}
	return false
}

func (m Multi) CloseRequested() bool {
	for _, d := range m {
		if d.CloseRequested() {
			return true
		}
	}
	return false
}
