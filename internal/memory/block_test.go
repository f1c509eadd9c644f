package memory

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateAllTypes(t *testing.T) {
	for c := dtype.Bool; c < dtype.NumCodes; c++ {
		b, err := Allocate(c, 6)
		require.NoError(t, err, c.String())
		assert.Equal(t, c, b.Code())
		assert.Equal(t, 6, b.Count())
		assert.Len(t, b.Bytes(), 6*c.Size())
		assert.True(t, b.IsRoot())
		assert.False(t, b.IsMapped())
		assert.True(t, b.Writable())
	}
}

func TestAllocateInvalid(t *testing.T) {
	_, err := Allocate(dtype.Invalid, 3)
	assert.True(t, errors.Is(err, errs.ErrUnsupportedType))

	_, err = Allocate(dtype.Float32, -1)
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation))

	_, err = Allocate(dtype.Float64, math.MaxInt/4)
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation), "byte length overflows int")
}

func TestAllocateEmpty(t *testing.T) {
	b, err := Allocate(dtype.Float64, 0)
	require.NoError(t, err)
	assert.Empty(t, View[float64](b))
}

func TestViewZeroCopy(t *testing.T) {
	b := MustAllocate(dtype.Int64, 3)
	data := View[int64](b)
	data[0] = 42
	assert.Equal(t, int64(42), View[int64](b)[0])
}

func TestViewWrongTypePanics(t *testing.T) {
	b := MustAllocate(dtype.Float32, 2)
	assert.Panics(t, func() { _ = View[float64](b) })

	_, err := TryView[int32](b)
	assert.True(t, errors.Is(err, errs.ErrCast))
}

func TestSliceAliasesRoot(t *testing.T) {
	root := MustAllocate(dtype.Int32, 10)
	for i := range View[int32](root) {
		View[int32](root)[i] = int32(i)
	}

	s, err := root.Slice(2, 5)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3, 4, 5, 6}, View[int32](s))
	assert.Same(t, root, s.Root())
	assert.Equal(t, root.ID(), s.ID())

	// Slice of a slice still points straight at the root.
	ss, err := s.Slice(1, 2)
	require.NoError(t, err)
	assert.Same(t, root, ss.Root())
	View[int32](ss)[0] = 99
	assert.Equal(t, int32(99), View[int32](root)[3])

	_, err = root.Slice(8, 3)
	assert.True(t, errors.Is(err, errs.ErrIndexOutOfRange))
}

func TestReinterpret(t *testing.T) {
	root := MustAllocate(dtype.Uint8, 16)
	f, err := root.Reinterpret(dtype.Float32, 4, 2)
	require.NoError(t, err)
	View[float32](f)[0] = 1
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, root.Bytes()[4:8])

	_, err = root.Reinterpret(dtype.Float32, 2, 1)
	assert.True(t, errors.Is(err, errs.ErrCast))

	_, err = root.Reinterpret(dtype.Float64, 8, 2)
	assert.True(t, errors.Is(err, errs.ErrIndexOutOfRange))
}

func TestCopy(t *testing.T) {
	src := MustAllocate(dtype.Int16, 3)
	copy(View[int16](src), []int16{1, 2, 3})
	dst := MustAllocate(dtype.Int16, 3)
	require.NoError(t, Copy(dst, src))
	assert.Equal(t, []int16{1, 2, 3}, View[int16](dst))

	assert.True(t, errors.Is(Copy(MustAllocate(dtype.Int32, 3), src), errs.ErrCast))
	assert.True(t, errors.Is(Copy(MustAllocate(dtype.Int16, 2), src), errs.ErrIndexOutOfRange))
}

func TestString(t *testing.T) {
	b := MustAllocate(dtype.Float64, 2)
	assert.Contains(t, b.String(), "float64 x 2, heap")
	s, err := b.Slice(0, 1)
	require.NoError(t, err)
	assert.Contains(t, s.String(), "heap slice")
}

// keepSlice drops the root reference inside a helper frame so only the slice
// remains reachable in the caller. freed flips once the root is reclaimed.
func keepSlice(t *testing.T, freed *atomic.Bool) *Block {
	root := MustAllocate(dtype.Float64, 1024)
	for i := range View[float64](root) {
		View[float64](root)[i] = float64(i)
	}
	runtime.AddCleanup(root, func(f *atomic.Bool) { f.Store(true) }, freed)
	s, err := root.Slice(512, 4)
	require.NoError(t, err)
	return s
}

func TestSliceKeepsRootAlive(t *testing.T) {
	freed := new(atomic.Bool)
	s := keepSlice(t, freed)

	for i := 0; i < 5; i++ {
		runtime.GC()
	}
	assert.False(t, freed.Load(), "root reclaimed while a slice is reachable")
	assert.Equal(t, []float64{512, 513, 514, 515}, View[float64](s))
	runtime.KeepAlive(s)

	s = nil
	assert.Eventually(t, func() bool {
		runtime.GC()
		return freed.Load()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRootReleasedWhenUnreachable(t *testing.T) {
	allocatedBefore := ReadStats().Allocated
	func() {
		_ = MustAllocate(dtype.Uint8, 64)
	}()
	assert.Equal(t, allocatedBefore+1, ReadStats().Allocated)

	target := ReadStats().Released + 1
	assert.Eventually(t, func() bool {
		runtime.GC()
		return ReadStats().Released >= target
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMapReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 0o600))

	b, err := Map(path, false)
	require.NoError(t, err)
	assert.True(t, b.IsMapped())
	assert.False(t, b.Writable())
	assert.Equal(t, []uint8{1, 2, 3, 4, 5, 6, 7, 8}, View[uint8](b))

	s, err := b.Slice(4, 4)
	require.NoError(t, err)
	assert.True(t, s.IsMapped())
	assert.False(t, s.Writable())
	assert.Contains(t, s.String(), "mapped slice")
	assert.NoError(t, s.Flush())
}

func TestMapWritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 8), 0o600))

	b, err := Map(path, true)
	require.NoError(t, err)
	f, err := b.Reinterpret(dtype.Int32, 4, 1)
	require.NoError(t, err)
	View[int32](f)[0] = 7
	require.NoError(t, f.Flush())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 7, 0, 0, 0}, raw)
	runtime.KeepAlive(b)
}

func TestMapErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Map(filepath.Join(dir, "missing.bin"), false)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = Map(empty, false)
	assert.True(t, errors.Is(err, errs.ErrInvalidOperation))
}
