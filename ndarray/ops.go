// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/shape"
	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
)

// binary evaluates op over a and b broadcast against each other into a new
// array of their promoted type.
func binary(op kernel.BinaryOp, a, b *NDArray) (*NDArray, error) {
	dims, err := shape.ResolveDims(a.Shape(), b.Shape())
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", op)
	}
	dt := dtype.Promote(a.DType(), b.DType())
	sh, err := shape.FromDims(dims)
	if err != nil {
		return nil, err
	}
	out, err := storage.Allocate(sh, dt)
	if err != nil {
		return nil, err
	}
	if err := binaryInto(op, out, a.st, b.st); err != nil {
		return nil, err
	}
	return wrap(out), nil
}

// binaryInto evaluates op into dst, converting operands to dst's type.
func binaryInto(op kernel.BinaryOp, dst, a, b *storage.Storage) error {
	k, err := kernel.Lookup(dst.Code())
	if err != nil {
		return err
	}
	x, err := a.CastIfNecessary(dst.Code())
	if err != nil {
		return err
	}
	y, err := b.CastIfNecessary(dst.Code())
	if err != nil {
		return err
	}
	return errors.WithMessagef(k.Binary(op, dst, x, y),
		"%s %s%v and %s%v", op, a.Code(), a.Shape(), b.Code(), b.Shape())
}

// Add returns a + b element-wise.
//
// Example:
//
//	m := ndarray.Ones(ndarray.Float32, 5, 3)
//	v, _ := ndarray.FromSlice([]float32{1, 2, 3})
//	s, _ := ndarray.Add(m, v) // v is added to every row
func Add(a, b *NDArray) (*NDArray, error) { return binary(kernel.Add, a, b) }

// Sub returns a - b element-wise.
func Sub(a, b *NDArray) (*NDArray, error) { return binary(kernel.Sub, a, b) }

// Mul returns a * b element-wise.
func Mul(a, b *NDArray) (*NDArray, error) { return binary(kernel.Mul, a, b) }

// Div returns a / b element-wise. Integer division truncates toward zero; an
// integer divisor of zero yields 0, or ErrInvalidOperation when b is a single
// zero.
func Div(a, b *NDArray) (*NDArray, error) { return binary(kernel.Div, a, b) }

// Maximum returns the element-wise larger of a and b.
func Maximum(a, b *NDArray) (*NDArray, error) { return binary(kernel.Max2, a, b) }

// Minimum returns the element-wise smaller of a and b.
func Minimum(a, b *NDArray) (*NDArray, error) { return binary(kernel.Min2, a, b) }

// AddTo adds src, broadcast to dst's shape, into dst in place.
func AddTo(dst, src *NDArray) error { return binaryInto(kernel.Add, dst.st, dst.st, src.st) }

// SubFrom subtracts src, broadcast to dst's shape, from dst in place.
func SubFrom(dst, src *NDArray) error { return binaryInto(kernel.Sub, dst.st, dst.st, src.st) }

// MulBy multiplies dst in place by src broadcast to dst's shape.
func MulBy(dst, src *NDArray) error { return binaryInto(kernel.Mul, dst.st, dst.st, src.st) }

// DivBy divides dst in place by src broadcast to dst's shape.
func DivBy(dst, src *NDArray) error { return binaryInto(kernel.Div, dst.st, dst.st, src.st) }

func unary(op kernel.UnaryOp, a *NDArray) (*NDArray, error) {
	k, err := kernel.Lookup(a.DType())
	if err != nil {
		return nil, err
	}
	out, err := storage.Allocate(a.st.Shape(), a.DType())
	if err != nil {
		return nil, err
	}
	if err := k.Unary(op, out, a.st); err != nil {
		return nil, err
	}
	return wrap(out), nil
}

// Negate returns -a element-wise. Unsigned types wrap around.
func Negate(a *NDArray) (*NDArray, error) { return unary(kernel.Negate, a) }

// Abs returns |a| element-wise.
func Abs(a *NDArray) (*NDArray, error) { return unary(kernel.Abs, a) }
