// Package kernel holds the typed element loops behind array operations.
//
// Each element type has exactly one Kernel, stored in a fixed table indexed by
// dtype.Code. Callers resolve the kernel once per operation and every loop
// inside it runs on concrete Go types, so there is no per-element type switch.
package kernel

import (
	"sync/atomic"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/iterator"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/pkg/errors"
)

// BinaryOp selects an element-wise operation of two operands.
type BinaryOp uint8

// Binary operations.
const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Max2
	Min2
)

var binaryNames = [...]string{"add", "subtract", "multiply", "divide", "maximum", "minimum"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "unknown"
}

// UnaryOp selects an element-wise operation of one operand.
type UnaryOp uint8

// Unary operations.
const (
	Negate UnaryOp = iota
	Abs
)

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "negative"
	case Abs:
		return "absolute"
	default:
		return "unknown"
	}
}

// ReduceOp selects a reduction.
type ReduceOp uint8

// Reductions.
const (
	Sum ReduceOp = iota
	Prod
	Min
	Max
)

func (op ReduceOp) String() string {
	switch op {
	case Sum:
		return "sum"
	case Prod:
		return "prod"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

// Kernel runs element loops for one element type. The destination of every
// method must hold that type; operands of Binary, Unary and Reduce must too.
// Operands broadcast to the destination's shape, never the reverse.
type Kernel interface {
	Code() dtype.Code
	// Convert casts src, of any element type, into dst.
	Convert(dst, src iterator.Source) error
	// Fill sets every element of dst to v converted to the kernel type.
	Fill(dst iterator.Source, v float64) error
	Binary(op BinaryOp, dst, a, b iterator.Source) error
	Unary(op UnaryOp, dst, src iterator.Source) error
	// Reduce folds src along axis into dst, whose shape is src's with that
	// axis removed or kept with size 1.
	Reduce(op ReduceOp, dst, src iterator.Source, axis int) error
	// ReduceAll folds every element of src into the single element of dst.
	ReduceAll(op ReduceOp, dst, src iterator.Source) error
}

var registry = [dtype.NumCodes]Kernel{
	dtype.Bool:    boolKernel{},
	dtype.Uint8:   newNumeric[uint8](),
	dtype.Int16:   newNumeric[int16](),
	dtype.Uint16:  newNumeric[uint16](),
	dtype.Int32:   newNumeric[int32](),
	dtype.Uint32:  newNumeric[uint32](),
	dtype.Int64:   newNumeric[int64](),
	dtype.Uint64:  newNumeric[uint64](),
	dtype.Float32: newNumeric[float32](),
	dtype.Float64: newNumeric[float64](),
}

// Lookup returns the kernel for code.
func Lookup(code dtype.Code) (Kernel, error) {
	if !code.Valid() || registry[code] == nil {
		return nil, errors.Wrapf(errs.ErrUnsupportedType, "no kernel for %s", code)
	}
	return registry[code], nil
}

var parallelConfig atomic.Pointer[parallel.Config]

func init() {
	SetParallelConfig(parallel.DefaultConfig())
}

// SetParallelConfig replaces the process-wide configuration used by the
// contiguous fast paths.
func SetParallelConfig(cfg parallel.Config) {
	parallelConfig.Store(&cfg)
}

// ParallelConfig returns the current process-wide configuration.
func ParallelConfig() parallel.Config {
	return *parallelConfig.Load()
}

// checkDst validates a destination for a kernel of type code.
func checkDst(code dtype.Code, dst iterator.Source) error {
	b := dst.Block()
	if b == nil {
		return errors.Wrap(errs.ErrInvalidOperation, "nil destination block")
	}
	if b.Code() != code {
		return errors.Wrapf(errs.ErrCast, "destination is %s, kernel is %s", b.Code(), code)
	}
	if !b.Writable() {
		return errors.Wrapf(errs.ErrInvalidOperation, "destination block %s is read-only", b.ID())
	}
	if dst.Shape().IsBroadcasted() {
		return errors.Wrapf(errs.ErrInvalidOperation, "destination %v is a broadcast view", dst.Shape())
	}
	return nil
}

// checkOperand validates an input that must share the kernel type.
func checkOperand(code dtype.Code, src iterator.Source) error {
	b := src.Block()
	if b == nil {
		return errors.Wrap(errs.ErrInvalidOperation, "nil operand block")
	}
	if b.Code() != code {
		return errors.Wrapf(errs.ErrCast, "operand is %s, kernel is %s", b.Code(), code)
	}
	return nil
}

// isolate returns src unchanged unless writing dst element by element could
// clobber elements of src not yet read; then it returns a private copy.
func isolate(dst, src iterator.Source) (iterator.Source, error) {
	if !iterator.Overlaps(dst, src) || iterator.Aliases(dst, src) {
		return src, nil
	}
	return iterator.Detach(src)
}
