package incrementor

import "github.com/born-ml/strided/internal/shape"

// Offsets walks a shape in row-major order and yields block offsets directly.
// The running offset is adjusted per carry instead of recomputed from the
// coordinates, so each step costs one addition in the common case.
type Offsets struct {
	dims      []int
	strides   []int
	base      int
	index     []int
	active    []int
	offset    int
	empty     bool
	autoReset bool
	started   bool
	done      bool
}

// NewOffsets creates an offset incrementor over s.
func NewOffsets(s shape.Shape, opts ...Option) *Offsets {
	dims, strides := s.Dims(), s.Strides()
	if len(dims) == 0 {
		dims, strides = []int{1}, []int{0}
	}
	o := buildOptions(opts)
	return &Offsets{
		dims:      dims,
		strides:   strides,
		base:      s.Offset(),
		index:     make([]int, len(dims)),
		active:    activeAxes(dims),
		offset:    s.Offset(),
		empty:     s.Size() == 0,
		autoReset: o.autoReset,
	}
}

// Next returns the next block offset, or -1 at exhaustion.
func (o *Offsets) Next() int {
	if o.done {
		return -1
	}
	if !o.started {
		o.started = true
		if o.empty {
			o.done = true
			return -1
		}
		return o.offset
	}
	for _, ax := range o.active {
		o.index[ax]++
		o.offset += o.strides[ax]
		if o.index[ax] < o.dims[ax] {
			return o.offset
		}
		o.offset -= o.dims[ax] * o.strides[ax]
		o.index[ax] = 0
	}
	if o.autoReset {
		return o.offset
	}
	o.done = true
	return -1
}

// Index returns the coordinates of the last returned offset.
func (o *Offsets) Index() []int {
	return o.index
}

// Reset restores the starting position.
func (o *Offsets) Reset() {
	clear(o.index)
	o.offset = o.base
	o.started = false
	o.done = false
}
