// Package errs defines the error taxonomy shared by the array engine.
//
// Every error returned by the engine wraps one of these sentinels, so callers
// can classify failures with errors.Is regardless of the wrapping context.
package errs

import "errors"

// Error taxonomy.
var (
	// ErrShapeMismatch reports broadcast-incompatible axes or a shape that
	// cannot be derived from another (reshape to a different size).
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrIndexOutOfRange reports a coordinate outside a dimension.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnsupportedType reports an element type with no registered path.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidOperation reports a malformed request such as an iterator over
	// an invalid shape or a paired traversal over unresolved shapes.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrCast reports an element-type mismatch between operands or views.
	ErrCast = errors.New("cast error")
)
