package shape

import (
	"slices"

	"github.com/born-ml/strided/internal/errs"
	"github.com/pkg/errors"
)

// BroadcastInfo pairs the dimensions a shape had before broadcasting with the
// target dimensions it was expanded to.
type BroadcastInfo struct {
	Original   []int
	Target     []int
	Replicated []bool // per target axis: elements repeat along it through a zero stride
}

// RawSize returns the number of distinct elements before expansion.
func (b *BroadcastInfo) RawSize() int {
	return product(b.Original)
}

// ResolveDims implements NumPy-style broadcasting rules on dimension lists.
//
// Rules:
//  1. Compare shapes element-wise from right to left
//  2. Dimensions are compatible if they are equal, or one of them is 1
//  3. Missing dimensions are treated as 1
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5)
//	(3,)   + (5, 3) → (5, 3)
//	(3, 4) + (3, 5) → error
func ResolveDims(a, b []int) ([]int, error) {
	n := max(len(a), len(b))
	result := make([]int, n)

	for i := 0; i < n; i++ {
		aDim, bDim := 1, 1
		if ai := len(a) - 1 - i; ai >= 0 {
			aDim = a[ai]
		}
		if bi := len(b) - 1 - i; bi >= 0 {
			bDim = b[bi]
		}

		switch {
		case aDim == bDim:
			result[n-1-i] = aDim
		case aDim == 1:
			result[n-1-i] = bDim
		case bDim == 1:
			result[n-1-i] = aDim
		default:
			return nil, errors.Wrapf(errs.ErrShapeMismatch,
				"operands could not be broadcast together with shapes %v %v (dimension %d: %d vs %d)",
				a, b, n-1-i, aDim, bDim)
		}
	}
	return result, nil
}

// Broadcast resolves the common shape of a and b and returns both expanded to
// it. Replicated axes get stride 0; both results carry BroadcastInfo.
func Broadcast(a, b Shape) (Shape, Shape, error) {
	target, err := ResolveDims(a.dims, b.dims)
	if err != nil {
		return Shape{}, Shape{}, err
	}
	ab, err := a.BroadcastTo(target)
	if err != nil {
		return Shape{}, Shape{}, err
	}
	bb, err := b.BroadcastTo(target)
	if err != nil {
		return Shape{}, Shape{}, err
	}
	return ab, bb, nil
}

// BroadcastMany broadcasts any number of shapes against each other.
func BroadcastMany(shapes ...Shape) ([]Shape, error) {
	if len(shapes) == 0 {
		return nil, nil
	}
	target := shapes[0].dims
	for _, s := range shapes[1:] {
		var err error
		if target, err = ResolveDims(target, s.dims); err != nil {
			return nil, err
		}
	}
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		b, err := s.BroadcastTo(target)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// BroadcastTo expands s to the target dimensions without copying.
//
// Missing leading axes and axes of size 1 that grow get stride 0. The result
// keeps s's offset. Broadcasting an already broadcast shape keeps the
// original dimensions of the first expansion.
func (s Shape) BroadcastTo(target []int) (Shape, error) {
	if len(target) < len(s.dims) {
		return Shape{}, errors.Wrapf(errs.ErrShapeMismatch,
			"cannot broadcast %v to %v: target has fewer dimensions", s, target)
	}
	if err := validateDims(target); err != nil {
		return Shape{}, err
	}

	pad := len(target) - len(s.dims)
	strides := make([]int, len(target))
	replicated := make([]bool, len(target))
	for i, t := range target {
		si := i - pad
		switch {
		case si < 0:
			replicated[i] = t > 1
		case s.dims[si] == t:
			strides[i] = s.strides[si]
		case s.dims[si] == 1:
			replicated[i] = t > 1
		default:
			return Shape{}, errors.Wrapf(errs.ErrShapeMismatch,
				"cannot broadcast %v to %v (dimension %d: %d vs %d)", s, target, i, s.dims[si], t)
		}
	}

	original := s.dims
	if s.broadcast != nil {
		original = s.broadcast.Original
	}

	out := newView(slices.Clone(target), strides, s.offset)
	out.modified = s.modified || out.modified
	out.broadcast = &BroadcastInfo{
		Original:   slices.Clone(original),
		Target:     slices.Clone(target),
		Replicated: replicated,
	}
	return out, nil
}
