// Package npy reads and writes arrays in the NumPy .npy format.
//
// Files are written as format version 1.0 (2.0 when the header outgrows 64 KiB),
// little-endian, C order, with the header padded so the data starts on a 64-byte
// boundary. Reading accepts versions 1.0 through 3.0 and fortran-ordered data.
package npy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/strided/internal/dtype"
)

// Format constants.
const (
	Magic           = "\x93NUMPY"
	HeaderAlignment = 64        // data starts on this boundary
	MaxHeaderSize   = 1 << 20   // headers beyond this are rejected as corrupt
	maxV1HeaderLen  = 1<<16 - 1 // header length field of version 1.0 is uint16
)

// Errors specific to the file format.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrMalformedHeader    = errors.New("malformed header")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
)

// descriptors maps element types to their little-endian array-protocol strings.
var descriptors = [dtype.NumCodes]string{
	dtype.Bool:    "|b1",
	dtype.Uint8:   "|u1",
	dtype.Int16:   "<i2",
	dtype.Uint16:  "<u2",
	dtype.Int32:   "<i4",
	dtype.Uint32:  "<u4",
	dtype.Int64:   "<i8",
	dtype.Uint64:  "<u8",
	dtype.Float32: "<f4",
	dtype.Float64: "<f8",
}

// codeOfDescr resolves an array-protocol string. Single-byte types accept any
// byte-order mark; wider types must be little-endian or native.
func codeOfDescr(descr string) (dtype.Code, bool) {
	if len(descr) < 3 {
		return dtype.Invalid, false
	}
	order, kind := descr[0], descr[1:]
	for c := dtype.Bool; c < dtype.NumCodes; c++ {
		if descriptors[c][1:] != kind {
			continue
		}
		switch {
		case c.Size() == 1 && (order == '|' || order == '<' || order == '=' || order == '>'):
			return c, true
		case order == '<' || order == '=':
			return c, true
		}
	}
	return dtype.Invalid, false
}

// Header describes an .npy file.
type Header struct {
	Major, Minor int
	Descr        string
	Code         dtype.Code
	FortranOrder bool
	Dims         []int
	DataOffset   int64 // bytes from the start of the file to the first element
}

// Size returns the number of elements. ReadHeader guarantees it fits in an int.
func (h Header) Size() int {
	n := 1
	for _, d := range h.Dims {
		n *= d
	}
	return n
}

// DataBytes returns the length of the data section.
func (h Header) DataBytes() int64 {
	return int64(h.Size()) * int64(h.Code.Size())
}

func (h Header) String() string {
	order := "C"
	if h.FortranOrder {
		order = "F"
	}
	return fmt.Sprintf("npy v%d.%d %s %s order=%s data@%d", h.Major, h.Minor, h.Code, shapeTuple(h.Dims), order, h.DataOffset)
}

// shapeTuple formats dims as a Python tuple literal.
func shapeTuple(dims []int) string {
	switch len(dims) {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.Itoa(dims[0]) + ",)"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
