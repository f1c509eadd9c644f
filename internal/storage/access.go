package storage

import (
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/iterator"
	"github.com/born-ml/strided/internal/memory"
	"github.com/pkg/errors"
)

// offset resolves a full coordinate vector to a block offset.
func (s *Storage) offset(coords []int) (int, error) {
	if len(coords) != s.shape.NDim() && !(s.shape.IsScalar() && len(coords) <= 1) {
		return 0, errors.Wrapf(errs.ErrIndexOutOfRange,
			"%d indices for array of dimension %d", len(coords), s.shape.NDim())
	}
	return s.shape.GetOffset(coords...)
}

// Get reads the element at coords. Negative coordinates count from the end.
func Get[T dtype.Element](s *Storage, coords ...int) (T, error) {
	var zero T
	data, err := memory.TryView[T](s.block)
	if err != nil {
		return zero, err
	}
	off, err := s.offset(coords)
	if err != nil {
		return zero, err
	}
	return data[off], nil
}

// Set writes v at coords.
func Set[T dtype.Element](s *Storage, v T, coords ...int) error {
	data, err := memory.TryView[T](s.block)
	if err != nil {
		return err
	}
	if err := s.checkWritable(); err != nil {
		return err
	}
	off, err := s.offset(coords)
	if err != nil {
		return err
	}
	data[off] = v
	return nil
}

// checkWritable rejects writes through read-only mappings and broadcast
// views, whose replicated elements share one slot.
func (s *Storage) checkWritable() error {
	if !s.block.Writable() {
		return errors.Wrapf(errs.ErrInvalidOperation, "set on read-only block %s", s.block.ID())
	}
	if s.shape.IsBroadcasted() {
		return errors.Wrapf(errs.ErrInvalidOperation, "set on broadcast view %v", s.shape)
	}
	return nil
}

var getters = [dtype.NumCodes]func(s *Storage, off int) any{
	dtype.Bool:    getAt[bool],
	dtype.Uint8:   getAt[uint8],
	dtype.Int16:   getAt[int16],
	dtype.Uint16:  getAt[uint16],
	dtype.Int32:   getAt[int32],
	dtype.Uint32:  getAt[uint32],
	dtype.Int64:   getAt[int64],
	dtype.Uint64:  getAt[uint64],
	dtype.Float32: getAt[float32],
	dtype.Float64: getAt[float64],
}

func getAt[T dtype.Element](s *Storage, off int) any {
	return memory.View[T](s.block)[off]
}

// GetAny reads the element at coords boxed in its Go type.
func (s *Storage) GetAny(coords ...int) (any, error) {
	off, err := s.offset(coords)
	if err != nil {
		return nil, err
	}
	return getters[s.Code()](s, off), nil
}

// SetAny converts v to the element type and writes it at coords. v may be a
// bool or any Go integer or floating-point value.
func (s *Storage) SetAny(v any, coords ...int) error {
	sc, err := scalarOf(v)
	if err != nil {
		return err
	}
	if err := s.checkWritable(); err != nil {
		return err
	}
	if _, err := s.offset(coords); err != nil {
		return err
	}
	sub, err := s.GetData(coords...)
	if err != nil {
		return err
	}
	return sub.Assign(sc)
}

// scalarOf boxes a Go value into a 0-dimensional storage.
func scalarOf(v any) (*Storage, error) {
	switch x := v.(type) {
	case bool:
		return Scalar(x), nil
	case uint8:
		return Scalar(x), nil
	case int8:
		return Scalar(int16(x)), nil
	case int16:
		return Scalar(x), nil
	case uint16:
		return Scalar(x), nil
	case int32:
		return Scalar(x), nil
	case uint32:
		return Scalar(x), nil
	case int:
		return Scalar(int64(x)), nil
	case int64:
		return Scalar(x), nil
	case uint:
		return Scalar(uint64(x)), nil
	case uint64:
		return Scalar(x), nil
	case float32:
		return Scalar(x), nil
	case float64:
		return Scalar(x), nil
	default:
		return nil, errors.Wrapf(errs.ErrUnsupportedType, "value of type %T", v)
	}
}

// ToSlice copies the elements in logical row-major order.
func ToSlice[T dtype.Element](s *Storage) ([]T, error) {
	it, err := iterator.New[T](s)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, s.Size())
	for v := range it.All() {
		out = append(out, v)
	}
	return out, nil
}

// AsSlice returns the elements without copying. Only flat layouts qualify;
// writes to the result land in the shared memory.
func AsSlice[T dtype.Element](s *Storage) ([]T, error) {
	data, err := memory.TryView[T](s.block)
	if err != nil {
		return nil, err
	}
	if !flat(s.shape) {
		return nil, errors.Wrapf(errs.ErrInvalidOperation, "shape %v is not contiguous", s.shape)
	}
	off := s.shape.Offset()
	return data[off : off+s.Size() : off+s.Size()], nil
}
