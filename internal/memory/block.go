// Package memory provides typed, fixed-size memory blocks.
//
// A block is either a root, which owns its memory (heap words or a file
// mapping), or a slice, which aliases a sub-range of a root. Every slice holds
// a strong reference to its root, so the root's memory stays valid for as long
// as any slice of it is reachable. Mapped memory is released by a runtime
// cleanup once the root and all its slices are unreachable.
package memory

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Block is a contiguous buffer of count elements of one element type.
type Block struct {
	id    uuid.UUID
	code  dtype.Code
	count int
	data  []byte // element region, exactly count*code.Size() bytes

	root    *Block   // nil for root blocks
	words   []uint64 // heap backing of a root, kept for alignment
	mapping *mapping // file backing of a root
}

var (
	allocated atomic.Int64
	released  atomic.Int64
	liveBytes atomic.Int64
)

// Stats reports root-block lifetime counters.
type Stats struct {
	Allocated int64 // root blocks created
	Released  int64 // root blocks reclaimed after becoming unreachable
	LiveBytes int64 // bytes held by roots not yet reclaimed
}

// ReadStats returns a snapshot of the lifetime counters.
func ReadStats() Stats {
	return Stats{
		Allocated: allocated.Load(),
		Released:  released.Load(),
		LiveBytes: liveBytes.Load(),
	}
}

type cleanupInfo struct {
	id      uuid.UUID
	bytes   int64
	mapping *mapping
}

func releaseRoot(info cleanupInfo) {
	if info.mapping != nil {
		info.mapping.unmap()
	}
	released.Add(1)
	liveBytes.Add(-info.bytes)
	klog.V(4).Infof("memory: released block %s (%d bytes)", info.id, info.bytes)
}

// track registers a new root for lifetime accounting.
func track(b *Block, bytes int64) {
	allocated.Add(1)
	liveBytes.Add(bytes)
	runtime.AddCleanup(b, releaseRoot, cleanupInfo{id: b.id, bytes: bytes, mapping: b.mapping})
}

// Allocate creates a zeroed root block of count elements.
// The memory is 8-byte aligned so any element type can be viewed in place.
func Allocate(code dtype.Code, count int) (*Block, error) {
	if !code.Valid() {
		return nil, errors.Wrapf(errs.ErrUnsupportedType, "allocate %s", code)
	}
	if count < 0 {
		return nil, errors.Wrapf(errs.ErrInvalidOperation, "allocate negative count %d", count)
	}
	if count > (math.MaxInt-7)/code.Size() {
		return nil, errors.Wrapf(errs.ErrInvalidOperation, "allocate %s x %d: array is too big", code, count)
	}
	n := count * code.Size()
	words := make([]uint64, (n+7)/8)
	b := &Block{
		id:    uuid.New(),
		code:  code,
		count: count,
		words: words,
	}
	if n > 0 {
		//nolint:gosec // reinterpreting owned, aligned words as bytes
		b.data = unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
	} else {
		b.data = []byte{}
	}
	track(b, int64(n))
	klog.V(4).Infof("memory: allocated block %s (%s x %d)", b.id, code, count)
	return b, nil
}

// MustAllocate is Allocate for arguments known to be valid.
func MustAllocate(code dtype.Code, count int) *Block {
	b, err := Allocate(code, count)
	if err != nil {
		panic(err)
	}
	return b
}

// Slice returns a block aliasing count elements starting at element start.
func (b *Block) Slice(start, count int) (*Block, error) {
	if start < 0 || count < 0 || start+count > b.count {
		return nil, errors.Wrapf(errs.ErrIndexOutOfRange,
			"slice [%d:%d] of block with %d elements", start, start+count, b.count)
	}
	size := b.code.Size()
	return b.alias(b.code, count, b.data[start*size:(start+count)*size]), nil
}

// Reinterpret returns a block of another element type aliasing count elements
// starting byteOffset bytes into b. The region must be aligned for code.
func (b *Block) Reinterpret(code dtype.Code, byteOffset, count int) (*Block, error) {
	if !code.Valid() {
		return nil, errors.Wrapf(errs.ErrUnsupportedType, "reinterpret as %s", code)
	}
	n := count * code.Size()
	if byteOffset < 0 || count < 0 || byteOffset+n > len(b.data) {
		return nil, errors.Wrapf(errs.ErrIndexOutOfRange,
			"reinterpret %d bytes at %d of block with %d bytes", n, byteOffset, len(b.data))
	}
	region := b.data[byteOffset : byteOffset+n]
	if n > 0 && uintptr(unsafe.Pointer(&region[0]))%uintptr(code.Size()) != 0 {
		return nil, errors.Wrapf(errs.ErrCast, "region at byte %d is not aligned for %s", byteOffset, code)
	}
	return b.alias(code, count, region), nil
}

func (b *Block) alias(code dtype.Code, count int, region []byte) *Block {
	return &Block{
		id:    b.id,
		code:  code,
		count: count,
		data:  region,
		root:  b.Root(),
	}
}

// ID identifies the root memory; slices share their root's ID.
func (b *Block) ID() uuid.UUID { return b.id }

// Code returns the element type.
func (b *Block) Code() dtype.Code { return b.code }

// Count returns the number of elements.
func (b *Block) Count() int { return b.count }

// Bytes returns the raw element region.
// WARNING: Direct access to underlying memory. Use with caution.
func (b *Block) Bytes() []byte { return b.data }

// Root returns the block owning the memory; a root returns itself.
func (b *Block) Root() *Block {
	if b.root != nil {
		return b.root
	}
	return b
}

// IsRoot reports whether b owns its memory.
func (b *Block) IsRoot() bool { return b.root == nil }

// IsMapped reports whether the memory is backed by a file mapping.
func (b *Block) IsMapped() bool { return b.Root().mapping != nil }

// String describes the block for diagnostics.
func (b *Block) String() string {
	kind := "heap"
	if b.IsMapped() {
		kind = "mapped"
	}
	if !b.IsRoot() {
		kind += " slice"
	}
	return fmt.Sprintf("Block(%s, %s x %d, %s)", b.id, b.code, b.count, kind)
}

// View interprets the block as []T without copying.
// Panics if T does not match the block's element type.
func View[T dtype.Element](b *Block) []T {
	s, err := TryView[T](b)
	if err != nil {
		panic(err)
	}
	return s
}

// TryView interprets the block as []T, reporting a type mismatch as ErrCast.
func TryView[T dtype.Element](b *Block) ([]T, error) {
	if want := dtype.CodeOf[T](); want != b.code {
		return nil, errors.Wrapf(errs.ErrCast, "block dtype is %s, not %s", b.code, want)
	}
	if b.count == 0 {
		return []T{}, nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by count
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), b.count), nil
}

// Copy copies src's bytes into dst. Both blocks must have the same element
// type and dst must hold at least as many elements.
func Copy(dst, src *Block) error {
	if dst.code != src.code {
		return errors.Wrapf(errs.ErrCast, "copy %s into %s", src.code, dst.code)
	}
	if dst.count < src.count {
		return errors.Wrapf(errs.ErrIndexOutOfRange,
			"copy %d elements into block of %d", src.count, dst.count)
	}
	copy(dst.data, src.data)
	return nil
}
