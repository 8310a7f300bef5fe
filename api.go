package mandel

// Display is a sink for rendered frames.
// Pixels are packed 0x00RRGGBB, row-major, width*height long. The slice is only
// borrowed for the duration of Update.
type Display interface {
	Update(pixels []uint32, width, height int) error

	// IsOpen reports whether the display still accepts frames.
	IsOpen() bool

	// CloseRequested reports whether the user asked to stop (escape key, close message).
	CloseRequested() bool
}

// ColorMapper converts an escape time into a packed 0x00RRGGBB color.
// escaped is false for points that stayed bounded for maxIter iterations.
type ColorMapper interface {
	Color(iter int, escaped bool, maxIter int) uint32
}

// ColorFunc adapts a plain function to ColorMapper.
type ColorFunc func(iter int, escaped bool, maxIter int) uint32

func (f ColorFunc) Color(iter int, escaped bool, maxIter int) uint32 {
	return f(iter, escaped, maxIter)
}
