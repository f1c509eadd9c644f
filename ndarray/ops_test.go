// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"errors"
	"testing"

	"github.com/born-ml/strided/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBroadcastsAndPromotes(t *testing.T) {
	m := matrix(t, 2, 3)
	v, err := FromSlice([]int32{10, 20, 30})
	require.NoError(t, err)

	out, err := Add(m, v)
	require.NoError(t, err)
	assert.Equal(t, Float64, out.DType())
	assert.Equal(t, []int{2, 3}, out.Shape())
	assert.Equal(t, []float64{10, 21, 32, 13, 24, 35}, values[float64](t, out))

	col, err := FromSlice([]uint8{1, 2}, 2, 1)
	require.NoError(t, err)
	row, err := FromSlice([]int16{10, 20, 30}, 1, 3)
	require.NoError(t, err)
	out, err = Add(col, row)
	require.NoError(t, err)
	assert.Equal(t, Int16, out.DType())
	assert.Equal(t, []int16{11, 21, 31, 12, 22, 32}, values[int16](t, out))

	_, err = Add(Zeros(Float64, 3), Zeros(Float64, 4))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestBinaryOps(t *testing.T) {
	a, err := FromSlice([]int32{7, -7, 3, 0})
	require.NoError(t, err)
	b, err := FromSlice([]int32{2, 2, 5, 1})
	require.NoError(t, err)

	tests := []struct {
		name string
		op   func(a, b *NDArray) (*NDArray, error)
		want []int32
	}{
		{"sub", Sub, []int32{5, -9, -2, -1}},
		{"mul", Mul, []int32{14, -14, 15, 0}},
		{"div", Div, []int32{3, -3, 0, 0}},
		{"maximum", Maximum, []int32{7, 2, 5, 1}},
		{"minimum", Minimum, []int32{2, -7, 3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.op(a, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, values[int32](t, out))
		})
	}
}

func TestDivision(t *testing.T) {
	a, err := FromSlice([]int64{6, 8})
	require.NoError(t, err)

	_, err = Div(a, Scalar(int64(0)))
	assert.True(t, errors.Is(err, ErrInvalidOperation))

	b, err := FromSlice([]int64{3, 0})
	require.NoError(t, err)
	out, err := Div(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0}, values[int64](t, out))

	f, err := Div(Scalar(1.0), Scalar(float32(4)))
	require.NoError(t, err)
	assert.Equal(t, Float64, f.DType())
	assert.Equal(t, 0.25, f.At())
}

func TestInPlace(t *testing.T) {
	a := Arange(Float64, 0, 4, 1)
	rev, err := a.Index("::-1")
	require.NoError(t, err)
	require.NoError(t, AddTo(a, rev))
	assert.Equal(t, []float64{3, 3, 3, 3}, values[float64](t, a))

	require.NoError(t, MulBy(a, Scalar(int64(2))))
	assert.Equal(t, []float64{6, 6, 6, 6}, values[float64](t, a))

	require.NoError(t, SubFrom(a, Arange(Float64, 0, 4, 1)))
	assert.Equal(t, []float64{6, 5, 4, 3}, values[float64](t, a))

	require.NoError(t, DivBy(a, Scalar(2.0)))
	assert.Equal(t, []float64{3, 2.5, 2, 1.5}, values[float64](t, a))

	err = AddTo(a, Zeros(Float64, 2, 4))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestInPlaceThroughView(t *testing.T) {
	m := Zeros(Int32, 3, 3)
	diag, err := m.Ravel().Index("::4")
	require.NoError(t, err)
	require.NoError(t, AddTo(diag, Scalar(int32(1))))
	assert.Equal(t, []int32{1, 0, 0, 0, 1, 0, 0, 0, 1}, values[int32](t, m))
}

func TestUnary(t *testing.T) {
	a, err := FromSlice([]int16{1, -2, 0})
	require.NoError(t, err)

	n, err := Negate(a)
	require.NoError(t, err)
	assert.Equal(t, []int16{-1, 2, 0}, values[int16](t, n))

	abs, err := Abs(a)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 0}, values[int16](t, abs))

	_, err = Negate(Ones(Bool, 2))
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestBoolArithmetic(t *testing.T) {
	_, err := Add(Ones(Bool, 2), Ones(Bool, 2))
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	out, err := Add(Ones(Bool, 2), Ones(Uint8, 2))
	require.NoError(t, err)
	assert.Equal(t, []uint8{2, 2}, values[uint8](t, out))
}

func TestReductions(t *testing.T) {
	m := matrix(t, 2, 3)

	total, err := Sum(m)
	require.NoError(t, err)
	assert.Equal(t, 0, total.NDim())
	assert.Equal(t, 15.0, total.At())

	cols, err := Sum(m, Axis(0))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5, 7}, values[float64](t, cols))

	rows, err := Sum(m, Axis(-1), KeepDims())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, rows.Shape())
	assert.Equal(t, []float64{3, 12}, values[float64](t, rows))

	prod, err := Prod(m, Axis(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 60}, values[float64](t, prod))

	lo, err := Min(m)
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo.At())

	hi, err := Max(m.T(), Axis(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 5}, values[float64](t, hi))

	all, err := Max(m, KeepDims())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, all.Shape())
	assert.Equal(t, 5.0, all.At(0, 0))

	_, err = Sum(m, Axis(2))
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestReductionTypes(t *testing.T) {
	a, err := FromSlice([]int16{30000, 30000})
	require.NoError(t, err)
	s, err := Sum(a)
	require.NoError(t, err)
	assert.Equal(t, Int64, s.DType())
	assert.Equal(t, int64(60000), s.At())

	u, err := Prod(Full(Uint8, 200, 2))
	require.NoError(t, err)
	assert.Equal(t, Uint64, u.DType())
	assert.Equal(t, uint64(40000), u.At())

	flags, err := FromSlice([]bool{true, false, true})
	require.NoError(t, err)
	count, err := Sum(flags)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.At())

	mx, err := Max(a)
	require.NoError(t, err)
	assert.Equal(t, Int16, mx.DType())

	_, err = Max(flags)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestReduceEmpty(t *testing.T) {
	e := Zeros(Float32, 0, 3)

	s, err := Sum(e)
	require.NoError(t, err)
	assert.Equal(t, float32(0), s.At())

	p, err := Prod(e, Axis(0))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1}, values[float32](t, p))

	_, err = Min(e)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	_, err = Max(e, Axis(0))
	assert.True(t, errors.Is(err, ErrInvalidOperation))

	s, err = Sum(e, Axis(1))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, s.Shape())
}

func TestParallelMatchesSequential(t *testing.T) {
	t.Cleanup(func() { SetParallelConfig(DefaultParallelConfig()) })

	n := 50_000
	a := Arange(Float64, 0, float64(n), 1)
	b := Full(Float64, 0.5, n)

	SetParallelConfig(ParallelConfig{Enabled: true, NumWorkers: 4, MinChunkSize: 1024})
	par, err := Mul(a, b)
	require.NoError(t, err)

	SetParallelConfig(parallel.Sequential())
	seq, err := Mul(a, b)
	require.NoError(t, err)

	assert.Equal(t, values[float64](t, seq), values[float64](t, par))
	assert.Equal(t, 24999.5, par.At(n-1))
}

func BenchmarkAddBroadcast(b *testing.B) {
	m := Ones(Float32, 512, 512)
	v := Arange(Float32, 0, 512, 1)
	b.ResetTimer()
	for b.Loop() {
		if _, err := Add(m, v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSumAxis(b *testing.B) {
	m := Ones(Float64, 512, 512)
	for b.Loop() {
		if _, err := Sum(m, Axis(0)); err != nil {
			b.Fatal(err)
		}
	}
}
