// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"iter"

	"github.com/born-ml/strided/internal/iterator"
	"github.com/born-ml/strided/internal/storage"
)

// Copy returns a contiguous array with private memory holding a's elements.
func (a *NDArray) Copy() *NDArray {
	return wrap(a.st.Clone())
}

// AsType returns a copy of a converted to dt. Floats convert to integers by
// truncation toward zero; any non-zero value converts to true.
func (a *NDArray) AsType(dt DType) (*NDArray, error) {
	st, err := a.st.Cast(dt)
	if err != nil {
		return nil, err
	}
	return wrap(st), nil
}

// Assign overwrites every element of a with src, broadcasting src to a's
// shape and converting its element type. src may overlap a.
func (a *NDArray) Assign(src *NDArray) error {
	return a.st.Assign(src.st)
}

// Fill sets every element to v converted to a's element type.
func (a *NDArray) Fill(v float64) error {
	return a.st.Fill(v)
}

// At returns the element at coords boxed in its Go type.
// Panics if the coordinates are out of range.
//
// Example:
//
//	a := ndarray.Zeros(ndarray.Float32, 3, 4)
//	v := a.At(1, 2).(float32)
func (a *NDArray) At(coords ...int) any {
	v, err := a.st.GetAny(coords...)
	if err != nil {
		panic(err)
	}
	return v
}

// SetAt converts v, a bool or any Go integer or float, to a's element type
// and stores it at coords.
func (a *NDArray) SetAt(v any, coords ...int) error {
	return a.st.SetAny(v, coords...)
}

// Get returns the element of a at coords. T must match a's element type.
func Get[T Element](a *NDArray, coords ...int) (T, error) {
	return storage.Get[T](a.st, coords...)
}

// Set stores v at coords. T must match a's element type.
func Set[T Element](a *NDArray, v T, coords ...int) error {
	return storage.Set(a.st, v, coords...)
}

// ToSlice copies a's elements in row-major order. T must match a's element
// type; convert with AsType first otherwise.
func ToSlice[T Element](a *NDArray) ([]T, error) {
	return storage.ToSlice[T](a.st)
}

// Values yields a's elements in row-major order converted to float64.
func (a *NDArray) Values() iter.Seq[float64] {
	st, err := a.st.CastIfNecessary(Float64)
	if err != nil {
		panic(err)
	}
	it, err := iterator.New[float64](st)
	if err != nil {
		panic(err)
	}
	return it.All()
}
