// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"io"

	"github.com/born-ml/strided/internal/npy"
)

// LoadOption configures Load.
type LoadOption = npy.Option

// Mmap maps the file instead of reading it into memory. The array and every
// view of it are read-only; the mapping is released once none is reachable.
func Mmap() LoadOption { return npy.WithMmap() }

// WritableMmap maps the file read-write. Assignments reach the file; call
// Flush to force them to disk.
func WritableMmap() LoadOption { return npy.WithWritableMmap() }

// Save writes a to path in NumPy .npy format.
func (a *NDArray) Save(path string) error {
	return npy.Save(path, a.st)
}

// Write encodes a to w in NumPy .npy format.
func (a *NDArray) Write(w io.Writer) error {
	return npy.Write(w, a.st)
}

// Load reads an array from a NumPy .npy file.
//
// Example:
//
//	a, err := ndarray.Load("weights.npy", ndarray.Mmap())
func Load(path string, opts ...LoadOption) (*NDArray, error) {
	st, err := npy.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return wrap(st), nil
}

// Read decodes an array in NumPy .npy format from r.
func Read(r io.Reader) (*NDArray, error) {
	st, err := npy.Read(r)
	if err != nil {
		return nil, err
	}
	return wrap(st), nil
}

// Flush writes pending changes of a writable memory-mapped array to its file.
// It does nothing for arrays in heap memory.
func (a *NDArray) Flush() error {
	return a.st.Block().Flush()
}

// Checksum returns the SHA-256 of a's elements in row-major, little-endian
// order, the bytes Save would write after the header.
func (a *NDArray) Checksum() ([32]byte, error) {
	return npy.Checksum(a.st)
}
