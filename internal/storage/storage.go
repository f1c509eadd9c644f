// Package storage binds a memory block to the shape that addresses it.
//
// A Storage is either a root, which owns the layout its block was allocated
// for, or a view, which aliases a root's block under another shape. Views point
// straight at their root: an alias of an alias of an alias resolves its base in
// one hop, and holding any view keeps the root and its memory alive.
package storage

import (
	"fmt"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/iterator"
	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/shape"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Storage is a typed, strided window over a memory block.
type Storage struct {
	block *memory.Block
	shape shape.Shape
	base  *Storage // root storage for views, nil for roots
}

// Allocate creates a zeroed root storage with a canonical layout of sh's
// dimensions.
func Allocate(sh shape.Shape, code dtype.Code) (*Storage, error) {
	b, err := memory.Allocate(code, sh.Size())
	if err != nil {
		return nil, err
	}
	return &Storage{block: b, shape: sh.Clean()}, nil
}

// FromSlice copies data into a new root storage. Without dims the result is
// one-dimensional.
func FromSlice[T dtype.Element](data []T, dims ...int) (*Storage, error) {
	if len(dims) == 0 {
		dims = []int{len(data)}
	}
	sh, err := shape.FromDims(dims)
	if err != nil {
		return nil, err
	}
	if sh.Size() != len(data) {
		return nil, errors.Wrapf(errs.ErrShapeMismatch,
			"cannot fit %d elements into shape %v", len(data), sh)
	}
	s, err := Allocate(sh, dtype.CodeOf[T]())
	if err != nil {
		return nil, err
	}
	copy(memory.View[T](s.block), data)
	return s, nil
}

// Scalar creates a 0-dimensional root storage holding v.
func Scalar[T dtype.Element](v T) *Storage {
	s, err := Allocate(shape.Scalar(), dtype.CodeOf[T]())
	if err != nil {
		panic(err)
	}
	memory.View[T](s.block)[0] = v
	return s
}

// Wrap makes a root storage over an existing block. sh must address only
// elements inside the block.
func Wrap(b *memory.Block, sh shape.Shape) (*Storage, error) {
	if err := checkBounds(b, sh); err != nil {
		return nil, err
	}
	return &Storage{block: b, shape: sh}, nil
}

func checkBounds(b *memory.Block, sh shape.Shape) error {
	if b == nil {
		return errors.Wrap(errs.ErrInvalidOperation, "nil block")
	}
	if sh.Size() > 0 && (sh.MinOffset() < 0 || sh.Extent() > b.Count()) {
		return errors.Wrapf(errs.ErrIndexOutOfRange,
			"shape %v (offsets %d..%d) exceeds block of %d elements", sh, sh.MinOffset(), sh.Extent(), b.Count())
	}
	return nil
}

// Shape returns the layout.
func (s *Storage) Shape() shape.Shape { return s.shape }

// Block returns the addressed memory.
func (s *Storage) Block() *memory.Block { return s.block }

// Code returns the element type.
func (s *Storage) Code() dtype.Code { return s.block.Code() }

// Size returns the number of logical elements.
func (s *Storage) Size() int { return s.shape.Size() }

// Base returns the root storage of a view, or nil for a root.
func (s *Storage) Base() *Storage { return s.base }

// Root returns the root storage; a root returns itself.
func (s *Storage) Root() *Storage {
	if s.base != nil {
		return s.base
	}
	return s
}

// IsView reports whether s aliases another storage's memory.
func (s *Storage) IsView() bool { return s.base != nil }

// Alias returns a view sharing s's memory and shape.
func (s *Storage) Alias() *Storage {
	return &Storage{block: s.block, shape: s.shape, base: s.Root()}
}

// AliasAs returns a view sharing s's memory under another layout, typically
// one derived from s's shape by reshape, transpose, slicing or broadcasting.
func (s *Storage) AliasAs(sh shape.Shape) (*Storage, error) {
	if err := checkBounds(s.block, sh); err != nil {
		return nil, err
	}
	return &Storage{block: s.block, shape: sh, base: s.Root()}, nil
}

// Clone returns a root storage holding a contiguous copy of s's elements.
func (s *Storage) Clone() *Storage {
	return &Storage{block: s.CloneData(), shape: s.shape.Clean()}
}

// CloneData copies s's elements in logical order into a new block.
func (s *Storage) CloneData() *memory.Block {
	b := memory.MustAllocate(s.Code(), s.Size())
	dst := iterator.Bind(b, s.shape.Clean())
	if err := s.copyInto(dst); err != nil {
		// Both sides are valid and share a type; only a corrupt shape gets here.
		panic(err)
	}
	return b
}

// CastIfNecessary returns s itself when it already holds code, and a
// converted copy otherwise. s is never modified.
func (s *Storage) CastIfNecessary(code dtype.Code) (*Storage, error) {
	if s.Code() == code {
		return s, nil
	}
	return s.Cast(code)
}

// Cast returns a converted copy of s with element type code.
func (s *Storage) Cast(code dtype.Code) (*Storage, error) {
	k, err := kernel.Lookup(code)
	if err != nil {
		return nil, err
	}
	out, err := Allocate(s.shape, code)
	if err != nil {
		return nil, err
	}
	if err := k.Convert(out, s); err != nil {
		return nil, errors.WithMessagef(err, "cast %s to %s", s.Code(), code)
	}
	klog.V(5).Infof("storage: cast %v from %s to %s", s.shape, s.Code(), code)
	return out, nil
}

// CopyTo writes s's elements into dst. See Assign.
func (s *Storage) CopyTo(dst *Storage) error {
	return dst.Assign(s)
}

// Assign overwrites every element of s with src, broadcasting src to s's
// shape and converting its element type when it differs. Writes through a
// view land in the shared memory.
func (s *Storage) Assign(src *Storage) error {
	if s.Code() != src.Code() {
		k, err := kernel.Lookup(s.Code())
		if err != nil {
			return err
		}
		return k.Convert(s, src)
	}
	return src.copyInto(s)
}

// copyInto copies s into a destination of the same element type. Two flat,
// equally shaped, non-overlapping layouts take a bulk memory copy; anything
// else goes through the paired iterator.
func (s *Storage) copyInto(dst iterator.Source) error {
	dsh := dst.Shape()
	if flat(s.shape) && flat(dsh) && s.shape.Equal(dsh) && !iterator.Overlaps(dst, s) && dst.Block().Writable() {
		from, err := s.block.Slice(s.shape.Offset(), s.Size())
		if err != nil {
			return err
		}
		to, err := dst.Block().Slice(dsh.Offset(), dsh.Size())
		if err != nil {
			return err
		}
		return memory.Copy(to, from)
	}
	return iterator.Assign(dst, s)
}

func flat(sh shape.Shape) bool {
	return sh.IsContiguous() && !sh.IsBroadcasted()
}

// Fill sets every element to v converted to the element type.
func (s *Storage) Fill(v float64) error {
	k, err := kernel.Lookup(s.Code())
	if err != nil {
		return err
	}
	return k.Fill(s, v)
}

// GetData returns a view of the sub-array at a coordinate prefix.
func (s *Storage) GetData(coords ...int) (*Storage, error) {
	sub, err := s.shape.Subshape(coords...)
	if err != nil {
		return nil, err
	}
	return s.AliasAs(sub)
}

// SetData assigns src into the sub-array at a coordinate prefix.
func (s *Storage) SetData(src *Storage, coords ...int) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	sub, err := s.GetData(coords...)
	if err != nil {
		return err
	}
	return sub.Assign(src)
}

// String describes the storage for diagnostics.
func (s *Storage) String() string {
	if s.base != nil {
		return fmt.Sprintf("Storage(%s %v, view of %s)", s.Code(), s.shape, s.block.ID())
	}
	return fmt.Sprintf("Storage(%s %v, %s)", s.Code(), s.shape, s.block.ID())
}
