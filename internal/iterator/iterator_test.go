package iterator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	sh shape.Shape
	b  *memory.Block
}

func (v view) Shape() shape.Shape   { return v.sh }
func (v view) Block() *memory.Block { return v.b }

func arange(n int) *memory.Block {
	b := memory.MustAllocate(dtype.Float64, n)
	for i := range memory.View[float64](b) {
		memory.View[float64](b)[i] = float64(i)
	}
	return b
}

func drain[T dtype.Element](it *NDIterator[T], n int) []T {
	out := make([]T, 0, n)
	for i := 0; i < n && it.HasNext(); i++ {
		out = append(out, it.MoveNext())
	}
	return out
}

func mustView(t *testing.T, dims, strides []int, offset int) shape.Shape {
	t.Helper()
	sh, err := shape.NewView(dims, strides, offset)
	require.NoError(t, err)
	return sh
}

func TestScalar(t *testing.T) {
	b := memory.MustAllocate(dtype.Float64, 1)
	memory.View[float64](b)[0] = 7

	it, err := New[float64](view{shape.Scalar(), b})
	require.NoError(t, err)
	assert.Equal(t, Scalar, it.Strategy())
	require.True(t, it.HasNext())
	assert.Equal(t, 7.0, it.MoveNext())
	assert.False(t, it.HasNext())
	assert.Panics(t, func() { it.MoveNext() })

	rep, err := New[float64](view{shape.Scalar(), b}, WithAutoReset())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.True(t, rep.HasNext())
		assert.Equal(t, 7.0, rep.MoveNext())
	}
	assert.True(t, rep.HasNext())
}

func TestEmpty(t *testing.T) {
	b := memory.MustAllocate(dtype.Float32, 0)
	it, err := New[float32](view{shape.New(3, 0, 4), b}, WithAutoReset())
	require.NoError(t, err)
	assert.Equal(t, Empty, it.Strategy())
	assert.False(t, it.HasNext())
	assert.Equal(t, 0, it.Size())
	assert.Panics(t, func() { it.MoveNext() })
}

func TestContiguous(t *testing.T) {
	it, err := New[float64](view{shape.New(2, 3), arange(6)})
	require.NoError(t, err)
	assert.Equal(t, Contiguous, it.Strategy())
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, drain(it, 10))
	assert.False(t, it.HasNext())

	it.Reset()
	assert.Equal(t, []float64{0, 1}, drain(it, 2))
}

func TestContiguousWithOffset(t *testing.T) {
	sh, err := shape.New(4, 2).Slice(shape.Range(1, 3))
	require.NoError(t, err)
	it, err := New[float64](view{sh, arange(8)})
	require.NoError(t, err)
	assert.Equal(t, Contiguous, it.Strategy())
	assert.Equal(t, []float64{2, 3, 4, 5}, drain(it, 10))
}

func TestStrided1D(t *testing.T) {
	sh := mustView(t, []int{3}, []int{3}, 1)
	it, err := New[float64](view{sh, arange(10)})
	require.NoError(t, err)
	assert.Equal(t, Strided1D, it.Strategy())
	assert.Equal(t, []float64{1, 4, 7}, drain(it, 10))

	rev := mustView(t, []int{4}, []int{-1}, 3)
	it, err = New[float64](view{rev, arange(4)})
	require.NoError(t, err)
	assert.Equal(t, Strided1D, it.Strategy())
	assert.Equal(t, []float64{3, 2, 1, 0}, drain(it, 10))
}

func TestStridedND(t *testing.T) {
	sh, err := shape.New(2, 3).Transpose()
	require.NoError(t, err)
	it, err := New[float64](view{sh, arange(6)})
	require.NoError(t, err)
	assert.Equal(t, StridedND, it.Strategy())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, drain(it, 10))
	assert.False(t, it.HasNext())

	it.Reset()
	assert.Equal(t, []float64{0, 3, 1}, drain(it, 3))
}

func TestBroadcastForcesAutoReset(t *testing.T) {
	sh, err := shape.New(3).BroadcastTo([]int{2, 3})
	require.NoError(t, err)
	it, err := New[float64](view{sh, arange(3)})
	require.NoError(t, err)
	assert.Equal(t, StridedND, it.Strategy())
	assert.True(t, it.AutoReset())
	assert.True(t, it.Broadcast())
	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2, 0, 1}, drain(it, 8))
	assert.True(t, it.HasNext())
}

func TestBroadcastSingleElement(t *testing.T) {
	sh, err := shape.New(1).BroadcastTo([]int{4})
	require.NoError(t, err)
	b := memory.MustAllocate(dtype.Int32, 1)
	memory.View[int32](b)[0] = 5
	it, err := New[int32](view{sh, b})
	require.NoError(t, err)
	assert.Equal(t, Scalar, it.Strategy())
	assert.Equal(t, []int32{5, 5, 5, 5, 5}, drain(it, 5))
}

func TestAllYieldsOnePass(t *testing.T) {
	it, err := New[float64](view{shape.New(3), arange(3)}, WithAutoReset())
	require.NoError(t, err)
	it.MoveNext()

	var got []float64
	for v := range it.All() {
		got = append(got, v)
	}
	assert.Equal(t, []float64{0, 1, 2}, got)
}

func TestMoveNextReferenceWrites(t *testing.T) {
	b := arange(6)
	sh, err := shape.New(2, 3).Transpose()
	require.NoError(t, err)
	it, err := New[float64](view{sh, b})
	require.NoError(t, err)
	for i := 0; it.HasNext(); i++ {
		*it.MoveNextReference() = float64(10 * i)
	}
	// Transposed order visits 0,3,1,4,2,5.
	assert.Equal(t, []float64{0, 20, 40, 10, 30, 50}, memory.View[float64](b))
}

func TestNewErrors(t *testing.T) {
	_, err := New[int32](view{shape.New(3), arange(3)})
	assert.True(t, errors.Is(err, errs.ErrCast))

	_, err = New[float64](view{mustView(t, []int{4}, []int{1}, 8), arange(10)})
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation))

	_, err = New[float64](view{mustView(t, []int{4}, []int{-1}, 2), arange(10)})
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation))

	_, err = NewWithShape[float64](nil, shape.New(1))
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation))
}

func TestMultiBroadcastsBothSides(t *testing.T) {
	m, err := NewMulti[float64](view{shape.New(3, 1), arange(3)}, view{shape.New(1, 4), arange(4)})
	require.NoError(t, err)
	assert.Equal(t, 12, m.Size())

	var pairs [][2]float64
	for m.HasNext() {
		l, r := m.Next()
		pairs = append(pairs, [2]float64{*l, r})
	}
	require.Len(t, pairs, 12)
	assert.Equal(t, [2]float64{0, 0}, pairs[0])
	assert.Equal(t, [2]float64{0, 3}, pairs[3])
	assert.Equal(t, [2]float64{2, 3}, pairs[11])
}

func TestMultiVectorAgainstMatrix(t *testing.T) {
	m, err := NewMulti[float64](view{shape.New(5, 3), arange(15)}, view{shape.New(3), arange(3)})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3}, m.Right.Shape().Dims())
	assert.Equal(t, 0, m.Right.Shape().Stride(0))
	assert.Equal(t, 15, m.Size())

	_, err = NewMulti[float64](view{shape.New(3), arange(3)}, view{shape.New(4), arange(4)})
	assert.True(t, errors.Is(err, errs.ErrShapeMismatch))
}

func TestAssignBroadcast(t *testing.T) {
	dst := memory.MustAllocate(dtype.Float64, 12)
	require.NoError(t, Assign(view{shape.New(3, 4), dst}, view{shape.New(3, 1), arange(3)}))
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}, memory.View[float64](dst))

	require.NoError(t, Assign(view{shape.New(3, 4), dst}, view{shape.New(1, 4), arange(4)}))
	assert.Equal(t, []float64{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3}, memory.View[float64](dst))
}

func TestAssignIntoStridedView(t *testing.T) {
	dst := memory.MustAllocate(dtype.Int64, 6)
	sh, err := shape.New(2, 3).Slice(shape.All(), shape.Range(0, 3).WithStep(2))
	require.NoError(t, err)

	src := memory.MustAllocate(dtype.Int64, 4)
	copy(memory.View[int64](src), []int64{1, 2, 3, 4})
	require.NoError(t, Assign(view{sh, dst}, view{shape.New(2, 2), src}))
	assert.Equal(t, []int64{1, 0, 2, 3, 0, 4}, memory.View[int64](dst))
}

func TestAssignRejectsEnlargingLeft(t *testing.T) {
	err := Assign(view{shape.New(3), arange(3)}, view{shape.New(2, 3), arange(6)})
	assert.True(t, errors.Is(err, errs.ErrShapeMismatch))

	err = Assign(view{shape.New(3), arange(3)}, view{shape.New(4), arange(4)})
	assert.True(t, errors.Is(err, errs.ErrShapeMismatch))
}

func TestAssignTypeMismatch(t *testing.T) {
	err := Assign(view{shape.New(2), memory.MustAllocate(dtype.Int32, 2)}, view{shape.New(2), arange(2)})
	assert.True(t, errors.Is(err, errs.ErrCast))
}

func TestAssignReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4}, 0o600))
	ro, err := memory.Map(path, false)
	require.NoError(t, err)

	err = Assign(view{shape.New(4), ro}, view{shape.New(4), memory.MustAllocate(dtype.Uint8, 4)})
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation))
	assert.Equal(t, []uint8{1, 2, 3, 4}, memory.View[uint8](ro))
}

func TestAssignOverlapping(t *testing.T) {
	b := arange(6)
	// b[1:] = b[:5]
	lhs := view{mustView(t, []int{5}, []int{1}, 1), b}
	rhs := view{shape.New(5), b}
	require.NoError(t, Assign(lhs, rhs))
	assert.Equal(t, []float64{0, 0, 1, 2, 3, 4}, memory.View[float64](b))

	// In-place reversal through a sliced alias of the same root.
	c := arange(6)
	alias, err := c.Slice(0, 6)
	require.NoError(t, err)
	require.NoError(t, Assign(view{shape.New(6), c}, view{mustView(t, []int{6}, []int{-1}, 5), alias}))
	assert.Equal(t, []float64{5, 4, 3, 2, 1, 0}, memory.View[float64](c))
}

func TestAssignRejectsBroadcastLeft(t *testing.T) {
	b := arange(3)
	sh, err := shape.New(3).BroadcastTo([]int{2, 3})
	require.NoError(t, err)

	err = Assign(view{sh, b}, view{shape.New(2, 3), arange(6)})
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation))
	assert.Equal(t, []float64{0, 1, 2}, memory.View[float64](b))

	// Growing a size-1 axis to 1 replicates nothing.
	same, err := shape.New(1, 3).BroadcastTo([]int{1, 3})
	require.NoError(t, err)
	require.NoError(t, Assign(view{same, b}, view{shape.New(3), arange(3)}))
}

func TestAssignSelfSkipsCopy(t *testing.T) {
	b := arange(6)
	tr, err := shape.New(2, 3).Transpose()
	require.NoError(t, err)

	before := memory.ReadStats().Allocated
	require.NoError(t, Assign(view{tr, b}, view{tr, b}))
	assert.Equal(t, before, memory.ReadStats().Allocated, "identical layouts are copied in place")
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, memory.View[float64](b))

	// A reversed alias still reads from a temporary copy.
	rev := mustView(t, []int{6}, []int{-1}, 5)
	require.NoError(t, Assign(view{shape.New(6), b}, view{rev, b}))
	assert.Equal(t, before+1, memory.ReadStats().Allocated)
	assert.Equal(t, []float64{5, 4, 3, 2, 1, 0}, memory.View[float64](b))
}

func TestAssignEmpty(t *testing.T) {
	dst := memory.MustAllocate(dtype.Float64, 0)
	require.NoError(t, Assign(view{shape.New(0, 3), dst}, view{shape.New(3), arange(3)}))
}

func BenchmarkContiguous(b *testing.B) {
	it, err := New[float64](view{shape.New(256, 256), arange(256 * 256)})
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it.Reset()
		var sum float64
		for it.HasNext() {
			sum += it.MoveNext()
		}
		_ = sum
	}
}

func BenchmarkStridedND(b *testing.B) {
	sh, err := shape.New(256, 256).Transpose()
	require.NoError(b, err)
	it, err := New[float64](view{sh, arange(256 * 256)})
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it.Reset()
		var sum float64
		for it.HasNext() {
			sum += it.MoveNext()
		}
		_ = sum
	}
}
