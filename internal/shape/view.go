package shape

import (
	"slices"

	"github.com/born-ml/strided/internal/errs"
	"github.com/pkg/errors"
)

// Reshape returns a view of s with new dimensions. One dimension may be -1 and
// is inferred from the size. Only contiguous shapes can be reshaped as views;
// callers copy first otherwise.
func (s Shape) Reshape(dims ...int) (Shape, error) {
	resolved, err := inferDims(dims, s.size)
	if err != nil {
		return Shape{}, errors.WithMessagef(err, "cannot reshape %v into %v", s, dims)
	}
	if !s.contiguous {
		return Shape{}, errors.Wrapf(errs.ErrInvalidOperation,
			"cannot reshape non-contiguous %v into %v without a copy", s, dims)
	}
	out := newView(resolved, ComputeStrides(resolved), s.offset)
	return out, nil
}

func inferDims(dims []int, size int) ([]int, error) {
	out := slices.Clone(dims)
	unknown := -1
	for i, d := range out {
		switch {
		case d == -1:
			if unknown >= 0 {
				return nil, errors.Wrap(errs.ErrInvalidOperation, "can only specify one unknown dimension")
			}
			unknown = i
			out[i] = 1
		case d < 0:
			return nil, errors.Wrapf(errs.ErrInvalidOperation, "invalid dimension %d", d)
		}
	}
	known, err := Volume(out)
	if err != nil {
		return nil, err
	}
	if unknown >= 0 {
		if known == 0 || size%known != 0 {
			return nil, errors.Wrapf(errs.ErrShapeMismatch, "size %d is not divisible by %d", size, known)
		}
		out[unknown] = size / known
		known = size
	}
	if known != size {
		return nil, errors.Wrapf(errs.ErrShapeMismatch, "size %d does not match %d", known, size)
	}
	return out, nil
}

// Transpose permutes the axes of s. With no axes the order is reversed.
func (s Shape) Transpose(axes ...int) (Shape, error) {
	n := len(s.dims)
	if len(axes) == 0 {
		axes = make([]int, n)
		for i := range axes {
			axes[i] = n - 1 - i
		}
	}
	if len(axes) != n {
		return Shape{}, errors.Wrapf(errs.ErrShapeMismatch, "axes %v don't match array of dimension %d", axes, n)
	}

	seen := make([]bool, n)
	dims := make([]int, n)
	strides := make([]int, n)
	for i, a := range axes {
		ax, err := NormalizeAxis(a, n)
		if err != nil {
			return Shape{}, err
		}
		if seen[ax] {
			return Shape{}, errors.Wrapf(errs.ErrInvalidOperation, "repeated axis %d in transpose", a)
		}
		seen[ax] = true
		dims[i] = s.dims[ax]
		strides[i] = s.strides[ax]
	}
	return newView(dims, strides, s.offset), nil
}

// ExpandDims inserts an axis of size 1 at position axis.
func (s Shape) ExpandDims(axis int) (Shape, error) {
	ax, err := NormalizeAxis(axis, len(s.dims)+1)
	if err != nil {
		return Shape{}, err
	}
	stride := 1
	if ax < len(s.dims) {
		stride = s.strides[ax] * s.dims[ax]
	}
	dims := slices.Insert(slices.Clone(s.dims), ax, 1)
	strides := slices.Insert(slices.Clone(s.strides), ax, stride)
	out := newView(dims, strides, s.offset)
	out.modified = s.modified
	return out, nil
}

// Squeeze removes axes of size 1. With no axes every size-1 axis is removed.
func (s Shape) Squeeze(axes ...int) (Shape, error) {
	drop := make([]bool, len(s.dims))
	if len(axes) == 0 {
		for i, d := range s.dims {
			drop[i] = d == 1
		}
	}
	for _, a := range axes {
		ax, err := NormalizeAxis(a, len(s.dims))
		if err != nil {
			return Shape{}, err
		}
		if s.dims[ax] != 1 {
			return Shape{}, errors.Wrapf(errs.ErrInvalidOperation,
				"cannot select an axis to squeeze out which has size not equal to one (axis %d, size %d)", a, s.dims[ax])
		}
		drop[ax] = true
	}
	dims := make([]int, 0, len(s.dims))
	strides := make([]int, 0, len(s.dims))
	for i := range s.dims {
		if !drop[i] {
			dims = append(dims, s.dims[i])
			strides = append(strides, s.strides[i])
		}
	}
	out := newView(dims, strides, s.offset)
	out.modified = s.modified
	return out, nil
}

// Subshape returns the shape of the sub-array selected by a coordinate prefix.
// The result addresses the same block, starting at the selected element.
func (s Shape) Subshape(coords ...int) (Shape, error) {
	off, err := s.GetOffset(coords...)
	if err != nil {
		return Shape{}, err
	}
	if len(s.dims) == 0 {
		return s, nil
	}
	k := len(coords)
	out := newView(slices.Clone(s.dims[k:]), slices.Clone(s.strides[k:]), off)
	return out, nil
}
