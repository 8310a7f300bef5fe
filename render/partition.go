package render

import (
	"errors"
	"fmt"

	mandel "github.com/marben/mandel_zoom"
)

var (
	// ErrOutOfSpan is the panic value (wrapped) when a worker stores to an index it does not own.
	ErrOutOfSpan = errors.New("index outside of worker span")

	// ErrBufferSize is the panic value (wrapped) when a buffer does not match the frame dimensions.
	ErrBufferSize = errors.New("buffer length does not match dimensions")

	// ErrPartition is returned by Verify for partitions that are not an exact disjoint cover.
	ErrPartition = errors.New("invalid partition")
)

// Strategy selects how pixel indices are dealt out to workers.
type Strategy int

const (
	// Chunked gives each worker a contiguous run of whole rows.
	Chunked Strategy = iota

	// Interleaved gives worker k the indices k, k+T, k+2T, ...
	Interleaved

	// Tiled splits the frame into TileSize squares that workers take from a
	// shared queue as they finish the previous one.
	Tiled
)

func (s Strategy) String() string {
	switch s {
	case Chunked:
		return "chunked"
	case Interleaved:
		return "interleaved"
	case Tiled:
		return "tiled"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts the names printed by Strategy.String.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "chunked", "rows", "":
		return Chunked, nil
	case "interleaved", "stride":
		return Interleaved, nil
	case "tiled", "tiles":
		return Tiled, nil
	}
	return 0, fmt.Errorf("unknown partition strategy %q", name)
}

// Span is the set of pixel indices owned by one worker:
// Start, Start+Stride, Start+2*Stride, ... while < End.
type Span struct {
	Start, End, Stride int
}

// Contiguous reports whether the span is a plain [Start, End) range.
func (s Span) Contiguous() bool {
	return s.Stride == 1
}

// Count is the number of indices owned by the span.
func (s Span) Count() int {
	if s.End <= s.Start || s.Stride <= 0 {
		return 0
	}
	return (s.End - s.Start + s.Stride - 1) / s.Stride
}

// Owns reports whether i belongs to the span.
func (s Span) Owns(i int) bool {
	return i >= s.Start && i < s.End && s.Stride > 0 && (i-s.Start)%s.Stride == 0
}

// Each calls fn for every owned index in ascending order.
func (s Span) Each(fn func(i int)) {
	if s.Stride <= 0 {
		return
	}
	for i := s.Start; i < s.End; i += s.Stride {
		fn(i)
	}
}

// Store writes v at buf[i]. Writing an index the span does not own is a
// partitioning bug and panics.
func (s Span) Store(buf []uint32, i int, v uint32) {
	if !s.Owns(i) || i >= len(buf) {
		panic(fmt.Errorf("%w: index %d, span %+v, buffer %d", ErrOutOfSpan, i, s, len(buf)))
	}
	buf[i] = v
}

func (s Span) String() string {
	return fmt.Sprintf("[%d:%d:%d]", s.Start, s.End, s.Stride)
}

// Partition splits a frame of the given dimensions between workers.
// Fewer spans than workers are returned when there is not enough work to go around;
// an empty frame yields no spans. Tiled is scheduled at render time, see SplitTiles;
// here it is treated like Chunked.
func Partition(strategy Strategy, dims mandel.Dimensions, workers int) []Span {
	n := dims.Len()
	if n <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	switch strategy {
	case Interleaved:
		workers = min(workers, n)
		spans := make([]Span, workers)
		for k := range spans {
			spans[k] = Span{Start: k, End: n, Stride: workers}
		}
		return spans
	default:
		return chunkRows(dims, workers)
	}
}

// chunkRows splits rows as evenly as possible; the first rows%workers chunks get one extra row.
func chunkRows(dims mandel.Dimensions, workers int) []Span {
	rows := dims.Height
	workers = min(workers, rows)
	per, extra := rows/workers, rows%workers

	spans := make([]Span, 0, workers)
	row := 0
	for k := range workers {
		h := per
		if k < extra {
			h++
		}
		spans = append(spans, Span{
			Start:  row * dims.Width,
			End:    (row + h) * dims.Width,
			Stride: 1,
		})
		row += h
	}
	return spans
}

// Verify checks that spans cover [0, n) with every index owned exactly once.
func Verify(spans []Span, n int) error {
	owner := make([]int, n)
	for k, s := range spans {
		if s.Stride <= 0 {
			return fmt.Errorf("%w: span %d %v has stride %d", ErrPartition, k, s, s.Stride)
		}
		if s.Start < 0 || s.End > n {
			return fmt.Errorf("%w: span %d %v outside [0, %d)", ErrPartition, k, s, n)
		}
		var dup error
		s.Each(func(i int) {
			if owner[i] != 0 && dup == nil {
				dup = fmt.Errorf("%w: index %d owned by spans %d and %d", ErrPartition, i, owner[i]-1, k)
			}
			owner[i] = k + 1
		})
		if dup != nil {
			return dup
		}
	}
	for i, o := range owner {
		if o == 0 {
			return fmt.Errorf("%w: index %d not owned", ErrPartition, i)
		}
	}
	return nil
}
