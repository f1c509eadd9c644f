// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"github.com/born-ml/strided/internal/shape"
	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
)

// view derives a new layout over a's memory.
func (a *NDArray) view(sh shape.Shape) (*NDArray, error) {
	st, err := a.st.AliasAs(sh)
	if err != nil {
		return nil, err
	}
	return wrap(st), nil
}

// Reshape returns a with new dimensions. One dimension may be -1 and is
// inferred. Contiguous arrays are reshaped as views; others are copied first.
func (a *NDArray) Reshape(dims ...int) (*NDArray, error) {
	if !a.IsContiguous() {
		return a.Copy().reshapeOwned(dims)
	}
	sh, err := a.st.Shape().Reshape(dims...)
	if err != nil {
		return nil, err
	}
	return a.view(sh)
}

// reshapeOwned relabels the dimensions of a root array without making it a
// view.
func (a *NDArray) reshapeOwned(dims []int) (*NDArray, error) {
	sh, err := a.st.Shape().Reshape(dims...)
	if err != nil {
		return nil, err
	}
	st, err := storage.Wrap(a.st.Block(), sh)
	if err != nil {
		return nil, err
	}
	return wrap(st), nil
}

// Transpose permutes the axes. With no arguments the axes are reversed.
func (a *NDArray) Transpose(axes ...int) (*NDArray, error) {
	sh, err := a.st.Shape().Transpose(axes...)
	if err != nil {
		return nil, err
	}
	return a.view(sh)
}

// T returns a with its axes reversed.
func (a *NDArray) T() *NDArray {
	t, err := a.Transpose()
	if err != nil {
		panic(err)
	}
	return t
}

// Slice selects along leading axes; unselected trailing axes are kept whole.
//
// Example:
//
//	row, _ := a.Slice(ndarray.Index(1))                       // a[1]
//	rev, _ := a.Slice(ndarray.All(), ndarray.All().WithStep(-1)) // a[:, ::-1]
func (a *NDArray) Slice(slices ...Slice) (*NDArray, error) {
	sh, err := a.st.Shape().Slice(slices...)
	if err != nil {
		return nil, err
	}
	return a.view(sh)
}

// Index selects with NumPy slice notation, e.g. a.Index("1:3, ::-1, ...").
func (a *NDArray) Index(expr string) (*NDArray, error) {
	slices, err := shape.ParseSlices(expr)
	if err != nil {
		return nil, err
	}
	out, err := a.Slice(slices...)
	return out, errors.WithMessagef(err, "index %q", expr)
}

// BroadcastTo returns a read-through view of a expanded to dims. Replicated
// axes have stride 0, so writing through the result is rejected.
func (a *NDArray) BroadcastTo(dims ...int) (*NDArray, error) {
	sh, err := a.st.Shape().BroadcastTo(dims)
	if err != nil {
		return nil, err
	}
	return a.view(sh)
}

// BroadcastArrays expands every array to their common shape.
func BroadcastArrays(arrays ...*NDArray) ([]*NDArray, error) {
	shapes := make([]shape.Shape, len(arrays))
	for i, a := range arrays {
		shapes[i] = a.st.Shape()
	}
	resolved, err := shape.BroadcastMany(shapes...)
	if err != nil {
		return nil, err
	}
	out := make([]*NDArray, len(arrays))
	for i, a := range arrays {
		if out[i], err = a.view(resolved[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ExpandDims inserts an axis of size 1 at position axis.
func (a *NDArray) ExpandDims(axis int) (*NDArray, error) {
	sh, err := a.st.Shape().ExpandDims(axis)
	if err != nil {
		return nil, err
	}
	return a.view(sh)
}

// Squeeze removes the given axes of size 1, or all of them when none are
// given.
func (a *NDArray) Squeeze(axes ...int) (*NDArray, error) {
	sh, err := a.st.Shape().Squeeze(axes...)
	if err != nil {
		return nil, err
	}
	return a.view(sh)
}

// Ravel returns a one-dimensional array of a's elements in row-major order.
// It is a view when a is contiguous and a copy otherwise.
func (a *NDArray) Ravel() *NDArray {
	flat, err := a.Reshape(a.Size())
	if err != nil {
		panic(err)
	}
	return flat
}

// Flatten returns a one-dimensional copy of a.
func (a *NDArray) Flatten() *NDArray {
	flat, err := a.Copy().reshapeOwned([]int{a.Size()})
	if err != nil {
		panic(err)
	}
	return flat
}

// Subarray returns a view of the sub-array at a coordinate prefix:
// a.Subarray(1) of a (3, 4) array is its second row.
func (a *NDArray) Subarray(coords ...int) (*NDArray, error) {
	st, err := a.st.GetData(coords...)
	if err != nil {
		return nil, err
	}
	return wrap(st), nil
}

// SetSubarray assigns src, broadcast as needed, into the sub-array at a
// coordinate prefix.
func (a *NDArray) SetSubarray(src *NDArray, coords ...int) error {
	return a.st.SetData(src.st, coords...)
}
