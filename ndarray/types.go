// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/shape"
)

// DType identifies the element type of an array.
type DType = dtype.Code

// Element types.
const (
	Bool    DType = dtype.Bool
	Uint8   DType = dtype.Uint8
	Int16   DType = dtype.Int16
	Uint16  DType = dtype.Uint16
	Int32   DType = dtype.Int32
	Uint32  DType = dtype.Uint32
	Int64   DType = dtype.Int64
	Uint64  DType = dtype.Uint64
	Float32 DType = dtype.Float32
	Float64 DType = dtype.Float64
)

// Element is the constraint satisfied by every Go type an array can hold.
type Element = dtype.Element

// ParseDType resolves a type name such as "float32".
func ParseDType(name string) (DType, error) {
	return dtype.Parse(name)
}

// Errors returned by this package. Test with errors.Is.
var (
	ErrShapeMismatch    = errs.ErrShapeMismatch
	ErrIndexOutOfRange  = errs.ErrIndexOutOfRange
	ErrUnsupportedType  = errs.ErrUnsupportedType
	ErrInvalidOperation = errs.ErrInvalidOperation
	ErrCast             = errs.ErrCast
)

// Slice selects along one axis. Build one with Index, Range, From, All or
// Ellipsis.
type Slice = shape.Slice

// Index selects a single position and drops the axis.
func Index(i int) Slice { return shape.Index(i) }

// Range selects [start, stop). Negative bounds count from the end.
func Range(start, stop int) Slice { return shape.Range(start, stop) }

// From selects from start to the end of the axis.
func From(start int) Slice { return shape.From(start) }

// All selects a whole axis.
func All() Slice { return shape.All() }

// Ellipsis stands for every axis not otherwise selected.
func Ellipsis() Slice { return shape.Ellipsis() }

// ParallelConfig controls how contiguous element loops are split across
// goroutines.
type ParallelConfig = parallel.Config

// DefaultParallelConfig returns the configuration in effect at startup.
func DefaultParallelConfig() ParallelConfig { return parallel.DefaultConfig() }

// SetParallelConfig replaces the process-wide parallel configuration.
func SetParallelConfig(cfg ParallelConfig) { kernel.SetParallelConfig(cfg) }
