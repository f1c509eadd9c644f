package dtype

import (
	"errors"
	"testing"

	"github.com/born-ml/strided/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float32

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Bool, CodeOf[bool]())
	assert.Equal(t, Uint8, CodeOf[uint8]())
	assert.Equal(t, Int16, CodeOf[int16]())
	assert.Equal(t, Uint16, CodeOf[uint16]())
	assert.Equal(t, Int32, CodeOf[int32]())
	assert.Equal(t, Uint32, CodeOf[uint32]())
	assert.Equal(t, Int64, CodeOf[int64]())
	assert.Equal(t, Uint64, CodeOf[uint64]())
	assert.Equal(t, Float32, CodeOf[float32]())
	assert.Equal(t, Float64, CodeOf[float64]())
	assert.Equal(t, Float32, CodeOf[celsius]())
}

func TestSizes(t *testing.T) {
	tests := []struct {
		code Code
		size int
	}{
		{Bool, 1}, {Uint8, 1}, {Int16, 2}, {Uint16, 2}, {Int32, 4},
		{Uint32, 4}, {Int64, 8}, {Uint64, 8}, {Float32, 4}, {Float64, 8},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.size, tt.code.Size())
		})
	}
	assert.Panics(t, func() { _ = Invalid.Size() })
}

func TestParse(t *testing.T) {
	for c := Bool; c < NumCodes; c++ {
		got, err := Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := Parse("complex128")
	assert.True(t, errors.Is(err, errs.ErrUnsupportedType))
}

func TestKinds(t *testing.T) {
	assert.True(t, Float64.IsFloat())
	assert.False(t, Int64.IsFloat())
	assert.True(t, Int16.IsSigned())
	assert.True(t, Uint64.IsUnsigned())
	assert.False(t, Bool.IsUnsigned())
	assert.False(t, Invalid.Valid())
	assert.Equal(t, "unknown", Code(200).String())
}

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b, want Code
	}{
		{Float32, Float32, Float32},
		{Bool, Int32, Int32},
		{Uint8, Bool, Uint8},
		{Int16, Int64, Int64},
		{Uint32, Uint8, Uint32},
		{Uint8, Int16, Int16},
		{Uint16, Int16, Int32},
		{Int32, Uint32, Int64},
		{Uint64, Int64, Float64},
		{Int16, Float32, Float32},
		{Int32, Float32, Float64},
		{Uint8, Float32, Float32},
		{Float32, Float64, Float64},
		{Int64, Float64, Float64},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"+"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Promote(tt.a, tt.b))
			assert.Equal(t, tt.want, Promote(tt.b, tt.a), "promotion is symmetric")
		})
	}
}

func TestAccumulator(t *testing.T) {
	assert.Equal(t, Int64, Accumulator(Int16))
	assert.Equal(t, Int64, Accumulator(Bool))
	assert.Equal(t, Uint64, Accumulator(Uint8))
	assert.Equal(t, Float32, Accumulator(Float32))
}
