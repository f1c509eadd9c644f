// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"fmt"
	"math"

	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/iterator"
	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/shape"
	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
)

// NDArray is a typed, strided, N-dimensional array.
//
// Several arrays may share one memory block: views created by Reshape,
// Transpose, Slice and friends write through to the array they came from.
// Copy returns an array with private memory.
type NDArray struct {
	st *storage.Storage
}

func wrap(st *storage.Storage) *NDArray {
	return &NDArray{st: st}
}

// allocate panics on invalid dimensions, like the creation helpers built on it.
func allocate(dt DType, dims []int) *storage.Storage {
	sh, err := shape.FromDims(dims)
	if err != nil {
		panic(err)
	}
	st, err := storage.Allocate(sh, dt)
	if err != nil {
		panic(err)
	}
	return st
}

// Zeros creates an array filled with zeros.
// Panics on negative dimensions or an invalid type.
//
// Example:
//
//	a := ndarray.Zeros(ndarray.Float32, 3, 4)
func Zeros(dt DType, dims ...int) *NDArray {
	return wrap(allocate(dt, dims))
}

// Empty creates an array without initializing its elements to anything in
// particular. Heap memory is zeroed anyway, so today it equals Zeros.
func Empty(dt DType, dims ...int) *NDArray {
	return Zeros(dt, dims...)
}

// Ones creates an array filled with ones.
func Ones(dt DType, dims ...int) *NDArray {
	return Full(dt, 1, dims...)
}

// Full creates an array with every element set to v converted to dt.
func Full(dt DType, v float64, dims ...int) *NDArray {
	st := allocate(dt, dims)
	if err := st.Fill(v); err != nil {
		panic(err)
	}
	return wrap(st)
}

// Arange returns evenly spaced values in [start, stop) as a one-dimensional
// array of type dt. Panics if step is zero.
//
// Example:
//
//	a := ndarray.Arange(ndarray.Int32, 0, 10, 2) // [0 2 4 6 8]
func Arange(dt DType, start, stop, step float64) *NDArray {
	if step == 0 {
		panic(errors.Wrap(errs.ErrInvalidOperation, "arange step must not be zero"))
	}
	n := max(int(math.Ceil((stop-start)/step)), 0)

	st := allocate(Float64, []int{n})
	data := memory.View[float64](st.Block())
	parallel.For(n, func(i int) {
		data[i] = start + float64(i)*step
	}, kernel.ParallelConfig())

	if dt == Float64 {
		return wrap(st)
	}
	out, err := st.Cast(dt)
	if err != nil {
		panic(err)
	}
	return wrap(out)
}

// FromSlice creates an array holding a copy of data. Without dims the result
// is one-dimensional; otherwise the dims must multiply to len(data).
func FromSlice[T Element](data []T, dims ...int) (*NDArray, error) {
	st, err := storage.FromSlice(data, dims...)
	if err != nil {
		return nil, err
	}
	return wrap(st), nil
}

// Scalar creates a 0-dimensional array holding v.
func Scalar[T Element](v T) *NDArray {
	return wrap(storage.Scalar(v))
}

// DType returns the element type.
func (a *NDArray) DType() DType { return a.st.Code() }

// Shape returns the dimensions.
func (a *NDArray) Shape() []int { return a.st.Shape().Dims() }

// Strides returns the element strides per axis. Broadcast axes have stride 0.
func (a *NDArray) Strides() []int { return a.st.Shape().Strides() }

// NDim returns the number of dimensions.
func (a *NDArray) NDim() int { return a.st.Shape().NDim() }

// Size returns the number of elements.
func (a *NDArray) Size() int { return a.st.Size() }

// IsContiguous reports whether the elements are laid out densely in row-major
// order.
func (a *NDArray) IsContiguous() bool {
	sh := a.st.Shape()
	return sh.IsContiguous() && !sh.IsBroadcasted()
}

// IsView reports whether a shares memory owned by another array.
func (a *NDArray) IsView() bool { return a.st.IsView() }

// Base returns the array that owns a's memory, or nil if a owns it. The base
// of a view of a view is the original owner, never an intermediate view.
func (a *NDArray) Base() *NDArray {
	if b := a.st.Base(); b != nil {
		return wrap(b)
	}
	return nil
}

// SharesMemory reports whether a and b address overlapping elements of the
// same memory.
func (a *NDArray) SharesMemory(b *NDArray) bool {
	return iterator.Overlaps(a.st, b.st)
}

// String returns a short description such as "NDArray[float64](2, 3)".
func (a *NDArray) String() string {
	return fmt.Sprintf("NDArray[%s]%v", a.DType(), a.st.Shape())
}
