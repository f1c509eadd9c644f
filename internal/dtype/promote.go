package dtype

// Promote returns the smallest type that can represent the values of both a
// and b, following NumPy's promotion lattice restricted to the supported
// types. uint64 combined with a signed integer has no integer home and
// promotes to float64.
func Promote(a, b Code) Code {
	switch {
	case a == b:
		return a
	case a == Bool:
		return b
	case b == Bool:
		return a
	case a.IsFloat() || b.IsFloat():
		return promoteFloat(a, b)
	case a.IsSigned() == b.IsSigned():
		if sizes[a] >= sizes[b] {
			return a
		}
		return b
	}

	signed, unsigned := a, b
	if b.IsSigned() {
		signed, unsigned = b, a
	}
	if sizes[signed] > sizes[unsigned] {
		return signed
	}
	switch unsigned {
	case Uint8:
		return Int16
	case Uint16:
		return Int32
	case Uint32:
		return Int64
	}
	return Float64
}

// promoteFloat handles pairs where at least one side is floating point.
// float32 holds integers of up to 16 bits exactly.
func promoteFloat(a, b Code) Code {
	if a == Float64 || b == Float64 {
		return Float64
	}
	other := a
	if a == Float32 {
		other = b
	}
	if other == Float32 || sizes[other] <= 2 {
		return Float32
	}
	return Float64
}

// Accumulator returns the type Sum and Prod accumulate c in: integers widen to
// 64 bits of the same signedness, bool counts as int64, floats are unchanged.
func Accumulator(c Code) Code {
	switch {
	case c.IsFloat():
		return c
	case c.IsUnsigned():
		return Uint64
	default:
		return Int64
	}
}
