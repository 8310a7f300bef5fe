// Package display plays rendered frames to display sinks: websocket viewers,
// image snapshots on disk, or several of them at once.
package display

import (
	"context"
	"errors"
	"fmt"

	mandel "github.com/marben/mandel_zoom"
)

// ErrClosed is returned by Update on a sink that has been closed.
var ErrClosed = errors.New("display closed")

// Source hands out frames and takes their buffers back. *pipeline.Pipeline implements it.
type Source interface {
	Frames() <-chan mandel.Frame
	Return(mandel.Frame)
}

// Play shows frames from src on sink until the sink closes or asks to close,
// ctx is done, or src runs dry. Every received frame is returned to src,
// shown or not. It returns the number of frames shown.
func Play(ctx context.Context, src Source, sink mandel.Display, lim *Limiter) (int, error) {
	log := mandel.Logger()
	shown := 0

	for {
		if !sink.IsOpen() || sink.CloseRequested() {
			log.Info("display closed", "frames_shown", shown)
			return shown, nil
		}

		var f mandel.Frame
		select {
		case <-ctx.Done():
			return shown, ctx.Err()
		case fr, ok := <-src.Frames():
			if !ok {
				return shown, nil
			}
			f = fr
		}

		if err := lim.Wait(ctx); err != nil {
			src.Return(f)
			return shown, err
		}

		err := sink.Update(f.Pixels, f.Dims.Width, f.Dims.Height)
		src.Return(f)
		if errors.Is(err, ErrClosed) {
			return shown, nil
		}
		if err != nil {
			return shown, fmt.Errorf("update frame %d: %w", f.Seq, err)
		}
		shown++
	}
}

// Drain returns every frame still queued on src until its channel closes.
func Drain(src Source) int {
	n := 0
	for f := range src.Frames() {
		src.Return(f)
		n++
	}
	return n
}
