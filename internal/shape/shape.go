// Package shape implements the dimension and stride model of strided arrays.
//
// A Shape is immutable: every view-producing derivation (reshape, transpose,
// slicing, broadcasting) returns a new Shape and leaves its receiver untouched.
// Strides are counted in elements, not bytes.
package shape

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/born-ml/strided/internal/errs"
	"github.com/pkg/errors"
)

// Shape describes how logical coordinates map onto a linear memory block.
type Shape struct {
	dims       []int
	strides    []int
	offset     int // slice-base offset into the block
	size       int
	contiguous bool
	modified   bool // strides or offset differ from a plain row-major layout
	broadcast  *BroadcastInfo
}

// New creates a canonical row-major Shape.
// Panics on negative dimensions; use FromDims to validate untrusted input.
func New(dims ...int) Shape {
	s, err := FromDims(dims)
	if err != nil {
		panic(err)
	}
	return s
}

// FromDims creates a canonical row-major Shape, rejecting negative dimensions.
// Zero-size dimensions are legal and produce an empty shape.
func FromDims(dims []int) (Shape, error) {
	if err := validateDims(dims); err != nil {
		return Shape{}, err
	}
	d := slices.Clone(dims)
	return Shape{
		dims:       d,
		strides:    ComputeStrides(d),
		size:       product(d),
		contiguous: true,
	}, nil
}

// Scalar returns the 0-dimensional shape holding one element.
func Scalar() Shape {
	return Shape{size: 1, contiguous: true}
}

// NewView creates a Shape with explicit strides and slice-base offset.
// Contiguity is recomputed from the strides; non-canonical strides or a
// non-zero offset mark the shape as a modified (transpose/slice) view.
func NewView(dims, strides []int, offset int) (Shape, error) {
	if len(dims) != len(strides) {
		return Shape{}, errors.Wrapf(errs.ErrShapeMismatch,
			"dims %v and strides %v have different lengths", dims, strides)
	}
	if err := validateDims(dims); err != nil {
		return Shape{}, err
	}
	if offset < 0 {
		return Shape{}, errors.Wrapf(errs.ErrIndexOutOfRange, "negative offset %d", offset)
	}
	if !spanFits(dims, strides, offset) {
		return Shape{}, errors.Wrapf(errs.ErrInvalidOperation,
			"view of %v with strides %v at offset %d addresses past the largest offset", dims, strides, offset)
	}
	return newView(slices.Clone(dims), slices.Clone(strides), offset), nil
}

// newView takes ownership of dims and strides.
func newView(dims, strides []int, offset int) Shape {
	canonical := ComputeStrides(dims)
	return Shape{
		dims:       dims,
		strides:    strides,
		offset:     offset,
		size:       product(dims),
		contiguous: isContiguous(dims, strides),
		modified:   offset != 0 || !slices.Equal(strides, canonical),
	}
}

func validateDims(dims []int) error {
	_, err := Volume(dims)
	return err
}

// Volume returns the product of dims. It rejects negative dimensions and
// products that do not fit in an int. Zero-size dimensions are ignored for
// the overflow check, so strides of an empty shape stay representable.
func Volume(dims []int) (int, error) {
	n, nonzero := 1, 1
	for i, d := range dims {
		if d < 0 {
			return 0, errors.Wrapf(errs.ErrInvalidOperation,
				"invalid dimension at index %d: %d (must be >= 0)", i, d)
		}
		if d == 0 {
			n = 0
			continue
		}
		if nonzero > math.MaxInt/d {
			return 0, errors.Wrapf(errs.ErrInvalidOperation, "array is too big: dimensions %v", dims)
		}
		nonzero *= d
	}
	if n != 0 {
		n = nonzero
	}
	return n, nil
}

// ComputeStrides calculates row-major strides: stride[i] = product of dims after i.
func ComputeStrides(dims []int) []int {
	strides := make([]int, len(dims))
	if len(dims) == 0 {
		return strides
	}
	strides[len(dims)-1] = 1
	for i := len(dims) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * dims[i+1]
	}
	return strides
}

// spanFits reports whether every offset a view can address, and one past the
// highest, fits in an int.
func spanFits(dims, strides []int, offset int) bool {
	if slices.Contains(dims, 0) {
		return true
	}
	if offset == math.MaxInt {
		return false
	}
	lo, hi := offset, offset
	for i, d := range dims {
		st := strides[i]
		if st == 0 || d == 1 {
			continue
		}
		steps := d - 1
		mag := st
		if mag < 0 {
			if mag == math.MinInt {
				return false
			}
			mag = -mag
		}
		if mag > math.MaxInt/steps {
			return false
		}
		reach := mag * steps
		if st > 0 {
			if hi > math.MaxInt-1-reach {
				return false
			}
			hi += reach
		} else {
			if lo < math.MinInt+reach {
				return false
			}
			lo -= reach
		}
	}
	return true
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// isContiguous compares against canonical strides, ignoring axes of size 1
// whose stride never contributes to an offset.
func isContiguous(dims, strides []int) bool {
	expected := 1
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] == 0 {
			return true
		}
		if dims[i] == 1 {
			continue
		}
		if strides[i] != expected {
			return false
		}
		expected *= dims[i]
	}
	return true
}

// Dims returns a copy of the dimension sizes.
func (s Shape) Dims() []int { return slices.Clone(s.dims) }

// Strides returns a copy of the element strides.
func (s Shape) Strides() []int { return slices.Clone(s.strides) }

// Dim returns the size of one axis.
func (s Shape) Dim(axis int) int { return s.dims[axis] }

// Stride returns the stride of one axis.
func (s Shape) Stride(axis int) int { return s.strides[axis] }

// Offset returns the slice-base offset.
func (s Shape) Offset() int { return s.offset }

// Size returns the number of logical elements.
func (s Shape) Size() int { return s.size }

// NDim returns the number of axes.
func (s Shape) NDim() int { return len(s.dims) }

// IsScalar reports whether s is 0-dimensional.
func (s Shape) IsScalar() bool { return len(s.dims) == 0 }

// IsEmpty reports whether s holds no elements.
func (s Shape) IsEmpty() bool { return s.size == 0 }

// IsContiguous reports whether the strides equal the canonical row-major strides.
func (s Shape) IsContiguous() bool { return s.contiguous }

// ModifiedStrides reports whether s is a transpose or slice view rather than
// a plain reshape of a contiguous block.
func (s Shape) ModifiedStrides() bool { return s.modified }

// Broadcast returns the broadcast information, or nil for non-broadcast shapes.
func (s Shape) Broadcast() *BroadcastInfo { return s.broadcast }

// IsBroadcasted reports whether s replicates elements through zero strides.
func (s Shape) IsBroadcasted() bool {
	return s.broadcast != nil && s.broadcast.RawSize() != s.size
}

// Extent returns one past the highest block offset addressed by s.
// An empty shape addresses nothing and returns its offset.
func (s Shape) Extent() int {
	if s.size == 0 {
		return s.offset
	}
	hi := s.offset
	for i, d := range s.dims {
		if st := s.strides[i]; st > 0 {
			hi += (d - 1) * st
		}
	}
	return hi + 1
}

// MinOffset returns the lowest block offset addressed by s.
func (s Shape) MinOffset() int {
	lo := s.offset
	if s.size == 0 {
		return lo
	}
	for i, d := range s.dims {
		if st := s.strides[i]; st < 0 {
			lo += (d - 1) * st
		}
	}
	return lo
}

// Equal reports whether two shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s.dims, other.dims)
}

// SameLayout reports whether two shapes have identical dims, strides and offset.
func (s Shape) SameLayout(other Shape) bool {
	return s.offset == other.offset &&
		slices.Equal(s.dims, other.dims) &&
		slices.Equal(s.strides, other.strides)
}

// Clean returns a canonical contiguous shape with the same dimensions.
func (s Shape) Clean() Shape {
	return Shape{
		dims:       slices.Clone(s.dims),
		strides:    ComputeStrides(s.dims),
		size:       s.size,
		contiguous: true,
	}
}

// String formats the dimensions NumPy-style, e.g. "(2, 3)" or "(3,)".
func (s Shape) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, d := range s.dims {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(d))
	}
	if len(s.dims) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

// GetOffset maps coordinates to a block offset.
//
// Negative coordinates count from the end of their axis. A coordinate prefix is
// accepted: missing trailing coordinates are treated as 0. A 0-dimensional
// shape accepts a single coordinate 0 (or -1).
func (s Shape) GetOffset(coords ...int) (int, error) {
	if len(s.dims) == 0 {
		if len(coords) == 0 || (len(coords) == 1 && (coords[0] == 0 || coords[0] == -1)) {
			return s.offset, nil
		}
		return 0, errors.Wrapf(errs.ErrIndexOutOfRange, "index %v into scalar", coords)
	}
	if len(coords) > len(s.dims) {
		return 0, errors.Wrapf(errs.ErrIndexOutOfRange,
			"too many indices: %d for %d dimensions", len(coords), len(s.dims))
	}
	off := s.offset
	for i, c := range coords {
		d := s.dims[i]
		if c < 0 {
			c += d
		}
		if c < 0 || c >= d {
			return 0, errors.Wrapf(errs.ErrIndexOutOfRange,
				"index %d is out of bounds for axis %d with size %d", coords[i], i, d)
		}
		off += c * s.strides[i]
	}
	return off, nil
}

// OffsetUnchecked maps in-range, non-negative coordinates to a block offset.
func (s Shape) OffsetUnchecked(coords []int) int {
	off := s.offset
	for i, c := range coords {
		off += c * s.strides[i]
	}
	return off
}

// Unravel writes the row-major coordinates of a flat logical index into dst.
func (s Shape) Unravel(flat int, dst []int) {
	for i := len(s.dims) - 1; i >= 0; i-- {
		d := s.dims[i]
		if d == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = flat % d
		flat /= d
	}
}

// TransformOffset converts a flat logical index into a block offset.
func (s Shape) TransformOffset(flat int) int {
	switch {
	case s.contiguous:
		return s.offset + flat
	case len(s.dims) == 0:
		return s.offset
	case len(s.dims) == 1:
		return s.offset + flat*s.strides[0]
	}
	off := s.offset
	for i := len(s.dims) - 1; i >= 0; i-- {
		d := s.dims[i]
		off += (flat % d) * s.strides[i]
		flat /= d
	}
	return off
}

// NormalizeAxis resolves a possibly negative axis against ndim.
func NormalizeAxis(axis, ndim int) (int, error) {
	if axis < 0 {
		axis += ndim
	}
	if axis < 0 || axis >= ndim {
		return 0, errors.Wrapf(errs.ErrIndexOutOfRange,
			"axis %d is out of bounds for array of dimension %d", axis, ndim)
	}
	return axis, nil
}
