// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ndarray provides strided N-dimensional arrays over typed memory.
//
// An NDArray is a shape (dimensions, strides and an offset) laid over a
// memory block. Reshaping, transposing, slicing and broadcasting derive new
// shapes over the same block, so they never copy. Every view records the root
// array that owns its memory; holding any view keeps that memory alive.
//
// Element-wise operations broadcast their operands NumPy-style and promote
// mixed element types to a common one:
//
//	a, _ := ndarray.Arange(ndarray.Float64, 0, 6, 1).Reshape(2, 3)
//	b, _ := ndarray.FromSlice([]int32{10, 20, 30})
//	c, err := ndarray.Add(a, b) // NDArray[float64](2, 3)
//
// Arrays can be written to and read from NumPy .npy files, optionally
// memory-mapped, and converted to and from gonum dense matrices.
package ndarray
