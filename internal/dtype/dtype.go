// Package dtype provides the closed set of element types understood by the engine.
package dtype

import (
	"github.com/born-ml/strided/internal/errs"
	"github.com/pkg/errors"
)

// Element is a constraint for every Go type that can back an array.
type Element interface {
	~bool | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Number is Element without bool; arithmetic kernels are instantiated over it.
type Number interface {
	~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Code is the runtime type tag of a memory block.
type Code uint8

// Supported element types. The zero value is Invalid.
const (
	Invalid Code = iota
	Bool
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64

	// NumCodes is the size of tables indexed by Code.
	NumCodes
)

var names = [NumCodes]string{
	Invalid: "invalid",
	Bool:    "bool",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

var sizes = [NumCodes]int{
	Bool:    1,
	Uint8:   1,
	Int16:   2,
	Uint16:  2,
	Int32:   4,
	Uint32:  4,
	Int64:   8,
	Uint64:  8,
	Float32: 4,
	Float64: 8,
}

// Valid reports whether c names a storable element type.
func (c Code) Valid() bool {
	return c > Invalid && c < NumCodes
}

// Size returns the byte size of one element.
// Panics on an invalid code.
func (c Code) Size() int {
	if !c.Valid() {
		panic("dtype: size of invalid code")
	}
	return sizes[c]
}

// String returns the canonical lower-case name.
func (c Code) String() string {
	if c >= NumCodes {
		return "unknown"
	}
	return names[c]
}

// IsFloat reports whether c is a floating-point type.
func (c Code) IsFloat() bool {
	return c == Float32 || c == Float64
}

// IsSigned reports whether c is a signed integer type.
func (c Code) IsSigned() bool {
	return c == Int16 || c == Int32 || c == Int64
}

// IsUnsigned reports whether c is an unsigned integer type.
func (c Code) IsUnsigned() bool {
	return c == Uint8 || c == Uint16 || c == Uint32 || c == Uint64
}

// Parse resolves a canonical type name.
func Parse(name string) (Code, error) {
	for c := Bool; c < NumCodes; c++ {
		if names[c] == name {
			return c, nil
		}
	}
	return Invalid, errors.Wrapf(errs.ErrUnsupportedType, "dtype %q", name)
}

// CodeOf returns the type tag for T.
func CodeOf[T Element]() Code {
	var zero T
	switch any(zero).(type) {
	case bool:
		return Bool
	case uint8:
		return Uint8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	case int64:
		return Int64
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		// Named types (~T) resolve through their underlying kind.
		return codeOfKind(zero)
	}
}
