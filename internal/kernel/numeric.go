package kernel

import (
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/iterator"
	"github.com/pkg/errors"
)

type convertFunc func(dst, src iterator.Source) error

// numeric is the kernel of every non-bool element type.
type numeric[T dtype.Number] struct {
	code    dtype.Code
	float   bool
	convert [dtype.NumCodes]convertFunc
}

func newNumeric[T dtype.Number]() *numeric[T] {
	code := dtype.CodeOf[T]()
	return &numeric[T]{
		code:  code,
		float: code.IsFloat(),
		convert: [dtype.NumCodes]convertFunc{
			dtype.Bool:    fromBool[T],
			dtype.Uint8:   convertNumber[T, uint8],
			dtype.Int16:   convertNumber[T, int16],
			dtype.Uint16:  convertNumber[T, uint16],
			dtype.Int32:   convertNumber[T, int32],
			dtype.Uint32:  convertNumber[T, uint32],
			dtype.Int64:   convertNumber[T, int64],
			dtype.Uint64:  convertNumber[T, uint64],
			dtype.Float32: convertNumber[T, float32],
			dtype.Float64: convertNumber[T, float64],
		},
	}
}

func convertNumber[D, S dtype.Number](dst, src iterator.Source) error {
	return mapUnary(dst, src, func(v S) D { return D(v) })
}

func fromBool[D dtype.Number](dst, src iterator.Source) error {
	return mapUnary(dst, src, func(v bool) D {
		if v {
			return 1
		}
		return 0
	})
}

func (k *numeric[T]) Code() dtype.Code { return k.code }

func (k *numeric[T]) Convert(dst, src iterator.Source) error {
	if err := checkDst(k.code, dst); err != nil {
		return err
	}
	sc := src.Block().Code()
	if !sc.Valid() || k.convert[sc] == nil {
		return errors.Wrapf(errs.ErrUnsupportedType, "convert %s to %s", sc, k.code)
	}
	return k.convert[sc](dst, src)
}

func (k *numeric[T]) Fill(dst iterator.Source, v float64) error {
	if err := checkDst(k.code, dst); err != nil {
		return err
	}
	return fill(dst, T(v))
}

func (k *numeric[T]) Binary(op BinaryOp, dst, a, b iterator.Source) error {
	if err := checkDst(k.code, dst); err != nil {
		return err
	}
	if err := checkOperand(k.code, a); err != nil {
		return err
	}
	if err := checkOperand(k.code, b); err != nil {
		return err
	}

	var f func(x, y T) T
	switch op {
	case Add:
		f = func(x, y T) T { return x + y }
	case Sub:
		f = func(x, y T) T { return x - y }
	case Mul:
		f = func(x, y T) T { return x * y }
	case Div:
		if k.float {
			f = func(x, y T) T { return x / y }
			break
		}
		zero, err := scalarZero[T](b)
		if err != nil {
			return err
		}
		if zero {
			return errors.Wrapf(errs.ErrInvalidOperation, "integer division by zero (%s)", k.code)
		}
		f = func(x, y T) T {
			if y == 0 {
				return 0
			}
			return x / y
		}
	case Max2:
		f = func(x, y T) T { return max(x, y) }
	case Min2:
		f = func(x, y T) T { return min(x, y) }
	default:
		return errors.Wrapf(errs.ErrInvalidOperation, "unknown binary op %d", op)
	}
	return mapBinary(dst, a, b, f)
}

// scalarZero reports whether src holds a single element equal to zero.
func scalarZero[T dtype.Number](src iterator.Source) (bool, error) {
	sh := src.Shape()
	single := sh.Size() == 1 || (sh.Size() > 0 && sh.Broadcast() != nil && sh.Broadcast().RawSize() == 1)
	if !single {
		return false, nil
	}
	it, err := iterator.New[T](src)
	if err != nil {
		return false, err
	}
	return it.MoveNext() == 0, nil
}

func (k *numeric[T]) Unary(op UnaryOp, dst, src iterator.Source) error {
	if err := checkDst(k.code, dst); err != nil {
		return err
	}
	if err := checkOperand(k.code, src); err != nil {
		return err
	}
	switch op {
	case Negate:
		return mapUnary(dst, src, func(v T) T { return -v })
	case Abs:
		return mapUnary(dst, src, func(v T) T {
			if v < 0 {
				return -v
			}
			return v
		})
	default:
		return errors.Wrapf(errs.ErrInvalidOperation, "unknown unary op %d", op)
	}
}

// boolKernel supports only the operations that make sense on truth values.
type boolKernel struct{}

func (boolKernel) Code() dtype.Code { return dtype.Bool }

var toBool = [dtype.NumCodes]convertFunc{
	dtype.Bool:    func(dst, src iterator.Source) error { return mapUnary(dst, src, func(v bool) bool { return v }) },
	dtype.Uint8:   convertToBool[uint8],
	dtype.Int16:   convertToBool[int16],
	dtype.Uint16:  convertToBool[uint16],
	dtype.Int32:   convertToBool[int32],
	dtype.Uint32:  convertToBool[uint32],
	dtype.Int64:   convertToBool[int64],
	dtype.Uint64:  convertToBool[uint64],
	dtype.Float32: convertToBool[float32],
	dtype.Float64: convertToBool[float64],
}

func convertToBool[S dtype.Number](dst, src iterator.Source) error {
	return mapUnary(dst, src, func(v S) bool { return v != 0 })
}

func (boolKernel) Convert(dst, src iterator.Source) error {
	if err := checkDst(dtype.Bool, dst); err != nil {
		return err
	}
	sc := src.Block().Code()
	if !sc.Valid() || toBool[sc] == nil {
		return errors.Wrapf(errs.ErrUnsupportedType, "convert %s to bool", sc)
	}
	return toBool[sc](dst, src)
}

func (boolKernel) Fill(dst iterator.Source, v float64) error {
	if err := checkDst(dtype.Bool, dst); err != nil {
		return err
	}
	return fill(dst, v != 0)
}

func (boolKernel) Binary(op BinaryOp, _, _, _ iterator.Source) error {
	return errors.Wrapf(errs.ErrUnsupportedType, "%s on bool", op)
}

func (boolKernel) Unary(op UnaryOp, _, _ iterator.Source) error {
	return errors.Wrapf(errs.ErrUnsupportedType, "%s on bool", op)
}

func (boolKernel) Reduce(op ReduceOp, _, _ iterator.Source, _ int) error {
	return errors.Wrapf(errs.ErrUnsupportedType, "%s on bool", op)
}

func (boolKernel) ReduceAll(op ReduceOp, _, _ iterator.Source) error {
	return errors.Wrapf(errs.ErrUnsupportedType, "%s on bool", op)
}
