// Package incrementor provides odometer-style counters over N-dimensional shapes.
//
// All incrementors enumerate in row-major order (last axis fastest) and reuse a
// single index buffer: the slice returned by Next is owned by the incrementor
// and is overwritten by the following call.
package incrementor

import "iter"

// Option configures an incrementor.
type Option func(*options)

type options struct {
	autoReset bool
}

// WithAutoReset makes the incrementor wrap to the first coordinate instead of
// signalling exhaustion, producing an infinite sequence.
func WithAutoReset() Option {
	return func(o *options) { o.autoReset = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Coordinates enumerates every coordinate vector of a shape.
type Coordinates struct {
	dims      []int
	index     []int
	active    []int // axes with size > 1, last axis first
	empty     bool
	autoReset bool
	started   bool
	done      bool
	onEnd     func(*Coordinates) bool
}

// New creates a coordinate incrementor over dims.
// A 0-dimensional shape is treated as a 1-element vector.
func New(dims []int, opts ...Option) *Coordinates {
	if len(dims) == 0 {
		dims = []int{1}
	}
	o := buildOptions(opts)
	c := &Coordinates{
		dims:      append([]int(nil), dims...),
		index:     make([]int, len(dims)),
		active:    activeAxes(dims),
		autoReset: o.autoReset,
	}
	for _, d := range dims {
		if d == 0 {
			c.empty = true
		}
	}
	return c
}

func activeAxes(dims []int) []int {
	axes := make([]int, 0, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] > 1 {
			axes = append(axes, i)
		}
	}
	return axes
}

// Next advances to the next coordinate and returns it. The first call returns
// the all-zero coordinate. At exhaustion Next returns nil, unless the
// incrementor auto-resets or an end callback asks to continue.
func (c *Coordinates) Next() []int {
	if c.done {
		return nil
	}
	if !c.started {
		c.started = true
		if c.empty {
			c.done = true
			return nil
		}
		return c.index
	}
	for _, ax := range c.active {
		c.index[ax]++
		if c.index[ax] < c.dims[ax] {
			return c.index
		}
		c.index[ax] = 0
	}
	return c.end()
}

// end runs when the counter wraps past the last coordinate; the index is
// already all-zero at this point.
func (c *Coordinates) end() []int {
	if c.autoReset {
		return c.index
	}
	if cb := c.onEnd; cb != nil {
		c.onEnd = nil
		if cb(c) {
			c.Reset()
			c.started = true
			return c.index
		}
	}
	c.done = true
	return nil
}

// OnEnd installs a one-shot callback run at exhaustion. Returning true resets
// the incrementor and continues from the first coordinate.
func (c *Coordinates) OnEnd(cb func(*Coordinates) bool) {
	c.onEnd = cb
}

// Index returns the current coordinate buffer.
func (c *Coordinates) Index() []int {
	return c.index
}

// Dims returns the dimensions being enumerated.
func (c *Coordinates) Dims() []int {
	return c.dims
}

// Reset restores the all-zero starting position.
func (c *Coordinates) Reset() {
	clear(c.index)
	c.started = false
	c.done = false
}

// Seq returns the remaining coordinates as a range-over-func sequence.
// The yielded slice is shared; copy it to retain a coordinate.
func (c *Coordinates) Seq() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for idx := c.Next(); idx != nil; idx = c.Next() {
			if !yield(idx) {
				return
			}
		}
	}
}
