package pipeline

import (
	"context"
	"errors"
	"fmt"

	mandel "github.com/marben/mandel_zoom"
)

// ErrDrained is returned by Valve.Obtain once no more buffers will ever arrive.
var ErrDrained = errors.New("pipeline drained")

// Action is the valve's decision for one attempt at obtaining a buffer.
type Action int

const (
	// Reuse hands a returned buffer straight back to the renderer.
	Reuse Action = iota

	// Shed retires a returned buffer because too many are standing idle,
	// then waits for the next one.
	Shed

	// Allocate creates a new zeroed buffer.
	Allocate

	// Wait blocks until the consumer returns a buffer.
	Wait

	// Drain stops the pipeline: the return queue is closed and empty.
	Drain
)

func (a Action) String() string {
	switch a {
	case Reuse:
		return "reuse"
	case Shed:
		return "shed"
	case Allocate:
		return "allocate"
	case Wait:
		return "wait"
	case Drain:
		return "drain"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Observation is what the valve sees when it polls the return queue.
type Observation struct {
	Received bool // a buffer was immediately available
	Closed   bool // the return queue is closed and empty
	Backlog  int  // buffers waiting in the return queue before the poll
	InFlight int  // buffers allocated and not yet retired
}

// Decide is the valve's transition table.
//
//	received, backlog > threshold  -> Shed
//	received                       -> Reuse
//	closed                         -> Drain
//	in flight < cap                -> Allocate
//	otherwise                      -> Wait
func Decide(o Observation, limit, threshold int) Action {
	switch {
	case o.Received && o.Backlog > threshold:
		return Shed
	case o.Received:
		return Reuse
	case o.Closed:
		return Drain
	case o.InFlight < limit:
		return Allocate
	default:
		return Wait
	}
}

// ValveStats is a snapshot of the valve counters.
type ValveStats struct {
	InFlight  int    // allocated minus retired
	Allocated uint64 // buffers created over the lifetime of the valve
	Retired   uint64 // buffers dropped by shedding or Retire
	Reused    uint64 // buffers handed out again after a round trip
	Waits     uint64 // times Obtain had to block at the cap
}

// Valve decides whether to allocate, reuse, retire or wait for pixel buffers.
//
// A Valve is owned by a single goroutine; it is not safe for concurrent use.
type Valve struct {
	cap       int
	threshold int
	size      int
	stats     ValveStats
}

// NewValve creates a valve handing out buffers of size pixels.
// limit bounds the number of buffers in flight; a returned buffer is shed when
// more than threshold buffers are waiting in the return queue. threshold is at
// least 1, so a shed buffer is always followed by another one already queued.
func NewValve(size, limit, threshold int) *Valve {
	return &Valve{
		cap:       max(limit, 1),
		threshold: max(threshold, 1),
		size:      size,
	}
}

// Cap is the maximum number of buffers in flight.
func (v *Valve) Cap() int { return v.cap }

// Threshold is the backlog above which returned buffers are shed.
func (v *Valve) Threshold() int { return v.threshold }

// Stats returns a snapshot of the counters.
func (v *Valve) Stats() ValveStats { return v.stats }

// Retire accounts for a buffer that leaves circulation outside of shedding,
// for example one handed back after the pipeline stopped.
func (v *Valve) Retire() {
	v.stats.InFlight--
	v.stats.Retired++
}

// Obtain returns the next buffer to render into, following Decide.
// It returns ErrDrained when returned is closed and empty, and ctx.Err() when ctx
// is done while blocked.
func (v *Valve) Obtain(ctx context.Context, returned <-chan []uint32) ([]uint32, Action, error) {
	o := Observation{Backlog: len(returned), InFlight: v.stats.InFlight}

	var buf []uint32
	select {
	case b, ok := <-returned:
		o.Received = ok
		o.Closed = !ok
		buf = b
	default:
	}

	action := Decide(o, v.cap, v.threshold)
	switch action {
	case Reuse:
		v.stats.Reused++
		return buf, action, nil

	case Shed:
		v.Retire()
		mandel.Logger().Debug("valve shed buffer",
			"backlog", o.Backlog,
			"threshold", v.threshold,
			"in_flight", v.stats.InFlight,
		)
		buf, err := v.wait(ctx, returned)
		return buf, action, err

	case Allocate:
		v.stats.InFlight++
		v.stats.Allocated++
		return make([]uint32, v.size), action, nil

	case Wait:
		v.stats.Waits++
		buf, err := v.wait(ctx, returned)
		return buf, action, err

	default:
		return nil, Drain, ErrDrained
	}
}

// wait blocks for a returned buffer.
func (v *Valve) wait(ctx context.Context, returned <-chan []uint32) ([]uint32, error) {
	select {
	case b, ok := <-returned:
		if !ok {
			return nil, ErrDrained
		}
		v.stats.Reused++
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
