// Package iterator provides per-element traversal over strided memory.
//
// An NDIterator binds one (Shape, Block) pair and picks its traversal strategy
// once, at construction. Stepping never re-evaluates the layout, so hot loops
// pay a single predictable switch per element.
package iterator

import (
	"iter"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/incrementor"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/shape"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Source is anything that pairs a shape with the block it addresses.
type Source interface {
	Shape() shape.Shape
	Block() *memory.Block
}

// Strategy identifies how an iterator walks memory.
type Strategy uint8

// Traversal strategies.
const (
	Empty      Strategy = iota // zero-size shape, no elements
	Scalar                     // a single element, replayed when auto-resetting
	Contiguous                 // flat pointer increment
	Strided1D                  // one axis with a non-unit stride
	StridedND                  // offset odometer over several axes
)

func (s Strategy) String() string {
	switch s {
	case Empty:
		return "empty"
	case Scalar:
		return "scalar"
	case Contiguous:
		return "contiguous"
	case Strided1D:
		return "strided-1d"
	case StridedND:
		return "strided-nd"
	default:
		return "unknown"
	}
}

// Option configures iterator construction.
type Option func(*options)

type options struct {
	autoReset bool
}

// WithAutoReset makes the iterator restart after its last element, so
// HasNext always reports true.
func WithAutoReset() Option {
	return func(o *options) { o.autoReset = true }
}

// NDIterator walks the elements of a shape over a block of T.
type NDIterator[T dtype.Element] struct {
	strategy  Strategy
	data      []T
	shape     shape.Shape
	size      int
	autoReset bool
	broadcast bool

	pos     int // elements yielded in the current pass
	offset  int // first element (Scalar, Contiguous, Strided1D)
	stride  int // Strided1D
	offsets *incrementor.Offsets
}

// New creates an iterator over src's own shape.
func New[T dtype.Element](src Source, opts ...Option) (*NDIterator[T], error) {
	return NewWithShape[T](src.Block(), src.Shape(), opts...)
}

// NewWithShape creates an iterator over block through sh, which may be a
// broadcast expansion of the block's natural shape.
func NewWithShape[T dtype.Element](block *memory.Block, sh shape.Shape, opts ...Option) (*NDIterator[T], error) {
	if block == nil {
		return nil, errors.Wrap(errs.ErrInvalidOperation, "iterator over nil block")
	}
	data, err := memory.TryView[T](block)
	if err != nil {
		return nil, err
	}
	if sh.Size() > 0 && (sh.MinOffset() < 0 || sh.Extent() > len(data)) {
		return nil, errors.Wrapf(errs.ErrInvalidOperation,
			"shape %v (offsets %d..%d) exceeds block of %d elements", sh, sh.MinOffset(), sh.Extent(), len(data))
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	it := &NDIterator[T]{
		data:      data,
		shape:     sh,
		size:      sh.Size(),
		autoReset: o.autoReset,
		offset:    sh.Offset(),
	}

	switch {
	case it.size == 0:
		it.strategy = Empty
	case sh.IsBroadcasted():
		// The replicated source must replay to feed a larger consumer.
		it.broadcast = true
		it.autoReset = true
		if sh.Broadcast().RawSize() == 1 {
			it.strategy = Scalar
		} else {
			it.strategy = StridedND
			it.offsets = incrementor.NewOffsets(sh, incrementor.WithAutoReset())
		}
	case it.size == 1:
		it.strategy = Scalar
	case sh.IsContiguous():
		it.strategy = Contiguous
	case sh.NDim() == 1:
		it.strategy = Strided1D
		it.stride = sh.Stride(0)
	default:
		it.strategy = StridedND
		it.offsets = incrementor.NewOffsets(sh, incrementor.WithAutoReset())
	}

	if klog.V(5).Enabled() {
		klog.Infof("iterator: %s over %v (block %s, autoReset=%v)", it.strategy, sh, block.ID(), it.autoReset)
	}
	return it, nil
}

// HasNext reports whether MoveNext may be called. Auto-resetting iterators
// over a non-empty shape always have a next element.
func (it *NDIterator[T]) HasNext() bool {
	if it.strategy == Empty {
		return false
	}
	return it.autoReset || it.pos < it.size
}

// MoveNext returns a copy of the next element.
func (it *NDIterator[T]) MoveNext() T {
	return *it.MoveNextReference()
}

// MoveNextReference returns a pointer to the next element for in-place
// writes. It visits elements in the same order as MoveNext.
// Panics when called while HasNext is false.
func (it *NDIterator[T]) MoveNextReference() *T {
	if !it.HasNext() {
		panic(errors.Wrapf(errs.ErrInvalidOperation, "MoveNext past the end of a %s iterator", it.strategy))
	}

	var off int
	switch it.strategy {
	case Scalar:
		off = it.offset
	case Contiguous:
		off = it.offset + it.pos
	case Strided1D:
		off = it.offset + it.pos*it.stride
	case StridedND:
		off = it.offsets.Next()
	}

	it.pos++
	if it.pos == it.size && it.autoReset {
		it.pos = 0
	}
	return &it.data[off]
}

// Reset rewinds to the first element.
func (it *NDIterator[T]) Reset() {
	it.pos = 0
	if it.offsets != nil {
		it.offsets.Reset()
	}
}

// Size returns the number of elements in one pass.
func (it *NDIterator[T]) Size() int { return it.size }

// Shape returns the shape being traversed.
func (it *NDIterator[T]) Shape() shape.Shape { return it.shape }

// Strategy returns the traversal strategy chosen at construction.
func (it *NDIterator[T]) Strategy() Strategy { return it.strategy }

// AutoReset reports whether the sequence restarts after the last element.
func (it *NDIterator[T]) AutoReset() bool { return it.autoReset }

// Broadcast reports whether the iterator replays a smaller broadcast source.
func (it *NDIterator[T]) Broadcast() bool { return it.broadcast }

// All rewinds the iterator and yields exactly one pass of elements.
func (it *NDIterator[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		it.Reset()
		for i := 0; i < it.size; i++ {
			if !yield(it.MoveNext()) {
				return
			}
		}
	}
}
