package iterator

import (
	"unsafe"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/shape"
	"github.com/pkg/errors"
)

// MultiIterator drives two iterators over a common broadcast shape in
// lock-step: each step yields a writable slot on the left and a value on the
// right.
type MultiIterator[T dtype.Element] struct {
	Left  *NDIterator[T]
	Right *NDIterator[T]
	size  int
	pos   int
}

// NewMulti broadcasts lhs and rhs against each other and pairs iterators over
// the expanded shapes.
func NewMulti[T dtype.Element](lhs, rhs Source) (*MultiIterator[T], error) {
	lsh, rsh, err := shape.Broadcast(lhs.Shape(), rhs.Shape())
	if err != nil {
		return nil, err
	}
	return pair[T](lhs.Block(), lsh, rhs.Block(), rsh)
}

func pair[T dtype.Element](lb *memory.Block, lsh shape.Shape, rb *memory.Block, rsh shape.Shape) (*MultiIterator[T], error) {
	left, err := NewWithShape[T](lb, lsh)
	if err != nil {
		return nil, err
	}
	right, err := NewWithShape[T](rb, rsh)
	if err != nil {
		return nil, err
	}
	if left.Size() != right.Size() {
		return nil, errors.Wrapf(errs.ErrInvalidOperation,
			"paired iterators disagree on length: %v has %d elements, %v has %d",
			lsh, left.Size(), rsh, right.Size())
	}
	return &MultiIterator[T]{Left: left, Right: right, size: left.Size()}, nil
}

// Size returns the number of paired steps.
func (m *MultiIterator[T]) Size() int { return m.size }

// HasNext reports whether another pair is available.
func (m *MultiIterator[T]) HasNext() bool { return m.pos < m.size }

// Next returns the next left slot and right value.
func (m *MultiIterator[T]) Next() (*T, T) {
	m.pos++
	return m.Left.MoveNextReference(), m.Right.MoveNext()
}

// Reset rewinds both sides.
func (m *MultiIterator[T]) Reset() {
	m.pos = 0
	m.Left.Reset()
	m.Right.Reset()
}

// assigners is the per-type entry point table, resolved once per Assign.
var assigners = [dtype.NumCodes]func(lhs, rhs Source) error{
	dtype.Bool:    assign[bool],
	dtype.Uint8:   assign[uint8],
	dtype.Int16:   assign[int16],
	dtype.Uint16:  assign[uint16],
	dtype.Int32:   assign[int32],
	dtype.Uint32:  assign[uint32],
	dtype.Int64:   assign[int64],
	dtype.Uint64:  assign[uint64],
	dtype.Float32: assign[float32],
	dtype.Float64: assign[float64],
}

// Assign copies rhs into lhs element by element, broadcasting rhs to lhs's
// shape. Both sides must share an element type. The left shape never grows:
// an rhs that would enlarge it is a shape mismatch. A broadcast lhs is
// rejected since its replicated elements share memory. Overlapping memory is
// handled by reading rhs from a temporary copy unless both sides address the
// same elements in the same order.
func Assign(lhs, rhs Source) error {
	lb, rb := lhs.Block(), rhs.Block()
	if lb == nil || rb == nil {
		return errors.Wrap(errs.ErrInvalidOperation, "assign with nil block")
	}
	if lb.Code() != rb.Code() {
		return errors.Wrapf(errs.ErrCast, "assign %s into %s", rb.Code(), lb.Code())
	}
	if !lb.Writable() {
		return errors.Wrapf(errs.ErrInvalidOperation, "assign into read-only block %s", lb.ID())
	}
	if lhs.Shape().IsBroadcasted() {
		return errors.Wrapf(errs.ErrInvalidOperation,
			"assign into broadcast view %v: replicated elements share memory", lhs.Shape())
	}
	fn := assigners[lb.Code()]
	if fn == nil {
		return errors.Wrapf(errs.ErrUnsupportedType, "assign %s", lb.Code())
	}
	return fn(lhs, rhs)
}

func assign[T dtype.Element](lhs, rhs Source) error {
	target := lhs.Shape()
	lsh, rsh, err := shape.Broadcast(target, rhs.Shape())
	if err != nil {
		return err
	}
	if !lsh.Equal(target) {
		return errors.Wrapf(errs.ErrShapeMismatch,
			"could not broadcast input array from shape %v into shape %v", rhs.Shape(), target)
	}

	rb := rhs.Block()
	if overlaps(lhs.Block(), target, rb, rhs.Shape()) && !Aliases(lhs, rhs) {
		tmp, err := materialize[T](rb, rhs.Shape())
		if err != nil {
			return err
		}
		rb = tmp
		rsh, err = rhs.Shape().Clean().BroadcastTo(target.Dims())
		if err != nil {
			return err
		}
	}

	m, err := pair[T](lhs.Block(), lsh, rb, rsh)
	if err != nil {
		return err
	}
	for m.HasNext() {
		dst, v := m.Next()
		*dst = v
	}
	return nil
}

// materialize copies the elements addressed by sh into a fresh contiguous block.
func materialize[T dtype.Element](b *memory.Block, sh shape.Shape) (*memory.Block, error) {
	it, err := NewWithShape[T](b, sh)
	if err != nil {
		return nil, err
	}
	out, err := memory.Allocate(b.Code(), sh.Size())
	if err != nil {
		return nil, err
	}
	dst := memory.View[T](out)
	for i := range dst {
		dst[i] = it.MoveNext()
	}
	return out, nil
}

// overlaps reports whether two views may touch the same bytes.
func overlaps(a *memory.Block, ash shape.Shape, b *memory.Block, bsh shape.Shape) bool {
	if a.Root() != b.Root() || ash.Size() == 0 || bsh.Size() == 0 {
		return false
	}
	alo, ahi := span(a, ash)
	blo, bhi := span(b, bsh)
	return alo < bhi && blo < ahi
}

func span(b *memory.Block, sh shape.Shape) (lo, hi uintptr) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(b.Bytes())))
	size := uintptr(b.Code().Size())
	return base + uintptr(sh.MinOffset())*size, base + uintptr(sh.Extent())*size
}

type bound struct {
	sh shape.Shape
	b  *memory.Block
}

func (v bound) Shape() shape.Shape   { return v.sh }
func (v bound) Block() *memory.Block { return v.b }

// Bind pairs a block with a shape addressing it.
func Bind(b *memory.Block, sh shape.Shape) Source { return bound{sh: sh, b: b} }

// Overlaps reports whether two sources may address the same bytes.
func Overlaps(a, b Source) bool {
	return overlaps(a.Block(), a.Shape(), b.Block(), b.Shape())
}

// Detach copies src into a fresh contiguous block of the same element type.
func Detach(src Source) (Source, error) {
	tmp, err := memory.Allocate(src.Block().Code(), src.Shape().Size())
	if err != nil {
		return nil, err
	}
	dst := Bind(tmp, src.Shape().Clean())
	if err := Assign(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// Aliases reports whether a and b address exactly the same elements in the
// same order, so an element-wise write through a reads each input before
// overwriting it.
func Aliases(a, b Source) bool {
	ab, bb := a.Block(), b.Block()
	return ab.Code() == bb.Code() &&
		unsafe.SliceData(ab.Bytes()) == unsafe.SliceData(bb.Bytes()) &&
		a.Shape().SameLayout(b.Shape())
}
