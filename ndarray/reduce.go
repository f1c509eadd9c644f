// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"slices"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/shape"
	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
)

// ReduceOption configures a reduction.
type ReduceOption func(*reduceOptions)

type reduceOptions struct {
	axis     int
	hasAxis  bool
	keepDims bool
}

// Axis reduces along one axis instead of over every element. Negative axes
// count from the end.
func Axis(axis int) ReduceOption {
	return func(o *reduceOptions) { o.axis, o.hasAxis = axis, true }
}

// KeepDims keeps reduced axes in the result with size 1, so it broadcasts
// against the input.
func KeepDims() ReduceOption {
	return func(o *reduceOptions) { o.keepDims = true }
}

func reduce(op kernel.ReduceOp, a *NDArray, opts []ReduceOption) (*NDArray, error) {
	var o reduceOptions
	for _, opt := range opts {
		opt(&o)
	}

	dt := a.DType()
	if op == kernel.Sum || op == kernel.Prod {
		dt = dtype.Accumulator(dt)
	}
	k, err := kernel.Lookup(dt)
	if err != nil {
		return nil, err
	}
	src, err := a.st.CastIfNecessary(dt)
	if err != nil {
		return nil, err
	}

	in := a.Shape()
	var dims []int
	switch {
	case !o.hasAxis && o.keepDims:
		dims = slices.Repeat([]int{1}, len(in))
	case !o.hasAxis:
		dims = nil
	default:
		ax, err := shape.NormalizeAxis(o.axis, len(in))
		if err != nil {
			return nil, err
		}
		o.axis = ax
		dims = slices.Clone(in)
		if o.keepDims {
			dims[ax] = 1
		} else {
			dims = slices.Delete(dims, ax, ax+1)
		}
	}

	sh, err := shape.FromDims(dims)
	if err != nil {
		return nil, err
	}
	out, err := storage.Allocate(sh, dt)
	if err != nil {
		return nil, err
	}
	if o.hasAxis {
		err = k.Reduce(op, out, src, o.axis)
	} else {
		err = k.ReduceAll(op, out, src)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "%s of %s%v", op, a.DType(), a.st.Shape())
	}
	return wrap(out), nil
}

// Sum adds up elements, over the whole array or along Axis. Integer inputs
// accumulate in 64 bits of the same signedness; bools count as int64.
//
// Example:
//
//	total, _ := ndarray.Sum(a)                 // 0-d
//	cols, _ := ndarray.Sum(a, ndarray.Axis(0)) // one value per column
func Sum(a *NDArray, opts ...ReduceOption) (*NDArray, error) {
	return reduce(kernel.Sum, a, opts)
}

// Prod multiplies elements, accumulating like Sum. The product of no
// elements is 1.
func Prod(a *NDArray, opts ...ReduceOption) (*NDArray, error) {
	return reduce(kernel.Prod, a, opts)
}

// Min returns the smallest element. Reducing an empty selection fails with
// ErrInvalidOperation.
func Min(a *NDArray, opts ...ReduceOption) (*NDArray, error) {
	return reduce(kernel.Min, a, opts)
}

// Max returns the largest element. Reducing an empty selection fails with
// ErrInvalidOperation.
func Max(a *NDArray, opts ...ReduceOption) (*NDArray, error) {
	return reduce(kernel.Max, a, opts)
}
