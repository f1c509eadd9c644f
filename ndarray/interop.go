// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ToDense copies a two-dimensional array into a gonum matrix, converting
// elements to float64. A one-dimensional array becomes a single row.
func (a *NDArray) ToDense() (*mat.Dense, error) {
	var r, c int
	switch dims := a.Shape(); len(dims) {
	case 1:
		r, c = 1, dims[0]
	case 2:
		r, c = dims[0], dims[1]
	default:
		return nil, errors.Wrapf(errs.ErrShapeMismatch, "dense matrix from %d-dimensional array", len(dims))
	}
	if r == 0 || c == 0 {
		return nil, errors.Wrapf(errs.ErrShapeMismatch, "dense matrix from empty array %v", a.st.Shape())
	}
	data, err := a.float64s()
	if err != nil {
		return nil, err
	}
	return mat.NewDense(r, c, data), nil
}

// float64s copies a's elements in row-major order as float64.
func (a *NDArray) float64s() ([]float64, error) {
	st, err := a.st.CastIfNecessary(Float64)
	if err != nil {
		return nil, err
	}
	return storage.ToSlice[float64](st)
}

// FromDense copies a gonum matrix into a new float64 array of shape (r, c).
func FromDense(m mat.Matrix) *NDArray {
	r, c := m.Dims()
	st := allocate(Float64, []int{r, c})
	data := memory.View[float64](st.Block())

	if d, ok := m.(*mat.Dense); ok {
		raw := d.RawMatrix()
		for i := range r {
			copy(data[i*c:(i+1)*c], raw.Data[i*raw.Stride:i*raw.Stride+c])
		}
		return wrap(st)
	}
	for i := range r {
		for j := range c {
			data[i*c+j] = m.At(i, j)
		}
	}
	return wrap(st)
}

// MatMul returns the matrix product of two-dimensional arrays a (m, k) and
// b (k, n) as a float64 array (m, n), computed by gonum.
func MatMul(a, b *NDArray) (*NDArray, error) {
	if a.NDim() != 2 || b.NDim() != 2 {
		return nil, errors.Wrapf(errs.ErrShapeMismatch,
			"matmul needs 2-dimensional operands, got %v and %v", a.st.Shape(), b.st.Shape())
	}
	if a.Shape()[1] != b.Shape()[0] {
		return nil, errors.Wrapf(errs.ErrShapeMismatch,
			"matmul inner dimensions differ: %v and %v", a.st.Shape(), b.st.Shape())
	}
	m, n := a.Shape()[0], b.Shape()[1]
	if m == 0 || n == 0 || a.Shape()[1] == 0 {
		return Zeros(Float64, m, n), nil
	}
	x, err := a.ToDense()
	if err != nil {
		return nil, err
	}
	y, err := b.ToDense()
	if err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(x, y)
	return FromDense(&out), nil
}
