package kernel

import (
	"iter"
	"slices"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/incrementor"
	"github.com/born-ml/strided/internal/iterator"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/shape"
	"github.com/pkg/errors"
)

// fold reduces n values. Min and Max have no identity and reject n == 0.
func fold[T dtype.Number](op ReduceOp, n int, values iter.Seq[T]) (T, error) {
	var acc T
	switch op {
	case Sum:
		for v := range values {
			acc += v
		}
	case Prod:
		acc = 1
		for v := range values {
			acc *= v
		}
	case Min, Max:
		if n == 0 {
			return acc, errors.Wrapf(errs.ErrInvalidOperation,
				"zero-size array to reduction operation %s which has no identity", op)
		}
		first := true
		for v := range values {
			switch {
			case first:
				acc, first = v, false
			case op == Min:
				acc = min(acc, v)
			default:
				acc = max(acc, v)
			}
		}
	default:
		return acc, errors.Wrapf(errs.ErrInvalidOperation, "unknown reduction %d", op)
	}
	return acc, nil
}

func (k *numeric[T]) ReduceAll(op ReduceOp, dst, src iterator.Source) error {
	if err := checkDst(k.code, dst); err != nil {
		return err
	}
	if err := checkOperand(k.code, src); err != nil {
		return err
	}
	if dst.Shape().Size() != 1 {
		return errors.Wrapf(errs.ErrShapeMismatch, "%s of all elements into shape %v", op, dst.Shape())
	}
	di, err := iterator.New[T](dst)
	if err != nil {
		return err
	}

	ssh := src.Shape()
	var values iter.Seq[T]
	if flat(ssh) {
		values = slices.Values(memory.View[T](src.Block())[ssh.Offset():][:ssh.Size()])
	} else {
		it, err := iterator.New[T](src)
		if err != nil {
			return err
		}
		values = it.All()
	}
	v, err := fold(op, ssh.Size(), values)
	if err != nil {
		return err
	}
	*di.MoveNextReference() = v
	return nil
}

func (k *numeric[T]) Reduce(op ReduceOp, dst, src iterator.Source, axis int) error {
	if err := checkDst(k.code, dst); err != nil {
		return err
	}
	if err := checkOperand(k.code, src); err != nil {
		return err
	}
	ssh := src.Shape()
	ax, err := shape.NormalizeAxis(axis, ssh.NDim())
	if err != nil {
		return err
	}
	dims := ssh.Dims()
	kept := slices.Clone(dims)
	kept[ax] = 1
	removed := slices.Delete(slices.Clone(dims), ax, ax+1)
	if got := dst.Shape().Dims(); !slices.Equal(got, removed) && !slices.Equal(got, kept) {
		return errors.Wrapf(errs.ErrShapeMismatch,
			"%s along axis %d of %v into shape %v", op, ax, ssh, dst.Shape())
	}
	if (op == Min || op == Max) && dims[ax] == 0 && dst.Shape().Size() > 0 {
		return errors.Wrapf(errs.ErrInvalidOperation,
			"zero-size array to reduction operation %s which has no identity", op)
	}

	if src, err = isolate(dst, src); err != nil {
		return err
	}
	di, err := iterator.New[T](dst)
	if err != nil {
		return err
	}
	lanes, err := incrementor.NewAxis(dims, ax)
	if err != nil {
		return err
	}
	// src may have been detached into a canonical copy.
	ssh = src.Shape()
	for sel := lanes.Next(); sel != nil; sel = lanes.Next() {
		lane, err := ssh.Slice(sel...)
		if err != nil {
			return err
		}
		it, err := iterator.NewWithShape[T](src.Block(), lane)
		if err != nil {
			return err
		}
		v, err := fold(op, lane.Size(), it.All())
		if err != nil {
			return err
		}
		*di.MoveNextReference() = v
	}
	return nil
}
