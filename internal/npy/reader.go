package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"slices"

	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/shape"
	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ReadHeader parses the preamble and header dict, leaving r positioned at the
// first data byte.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header

	pre := make([]byte, len(Magic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return h, errors.Wrap(err, "reading npy preamble")
	}
	if string(pre[:len(Magic)]) != Magic {
		return h, ErrInvalidMagic
	}
	h.Major, h.Minor = int(pre[len(Magic)]), int(pre[len(Magic)+1])

	var hlen int
	switch h.Major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return h, errors.Wrap(err, "reading header length")
		}
		hlen = int(n)
		h.DataOffset = int64(len(pre) + 2 + hlen)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return h, errors.Wrap(err, "reading header length")
		}
		if n > MaxHeaderSize {
			return h, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", n)
		}
		hlen = int(n)
		h.DataOffset = int64(len(pre) + 4 + hlen)
	default:
		return h, errors.Wrapf(ErrUnsupportedVersion, "got %d.%d, expected 1.0 to 3.0", h.Major, h.Minor)
	}

	dict := make([]byte, hlen)
	if _, err := io.ReadFull(r, dict); err != nil {
		return h, errors.Wrap(err, "reading npy header")
	}
	descr, fortran, dims, err := parseDict(string(dict))
	if err != nil {
		return h, err
	}
	code, ok := codeOfDescr(descr)
	if !ok {
		return h, errors.Wrapf(errs.ErrUnsupportedType, "npy descriptor %q", descr)
	}
	n, err := shape.Volume(dims)
	if err != nil {
		return h, errors.WithMessagef(err, "npy shape %s", shapeTuple(dims))
	}
	if n > (math.MaxInt-7)/code.Size() {
		return h, errors.Wrapf(errs.ErrInvalidOperation,
			"npy shape %s of %s: array is too big", shapeTuple(dims), code)
	}
	h.Descr, h.Code, h.FortranOrder, h.Dims = descr, code, fortran, dims
	return h, nil
}

// layout returns the shape addressing the data section of h. Fortran-ordered
// data is the C-ordered array of reversed dims, transposed.
func (h Header) layout() (shape.Shape, error) {
	if !h.FortranOrder {
		return shape.FromDims(h.Dims)
	}
	rev := slices.Clone(h.Dims)
	slices.Reverse(rev)
	sh, err := shape.FromDims(rev)
	if err != nil {
		return shape.Shape{}, err
	}
	return sh.Transpose()
}

// Read decodes an array from r into a new heap storage.
func Read(r io.Reader) (*storage.Storage, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return readData(r, h)
}

// eagerData bounds the data sections read straight into a block sized from
// the header. Longer sections are buffered as they arrive, so a header
// declaring more data than the stream holds fails with io.ErrUnexpectedEOF
// instead of allocating the declared size.
const eagerData = 64 << 20

func readData(r io.Reader, h Header) (*storage.Storage, error) {
	sh, err := h.layout()
	if err != nil {
		return nil, err
	}
	want := h.DataBytes()
	if want > eagerData {
		var buf bytes.Buffer
		got, err := io.Copy(&buf, io.LimitReader(r, want))
		if err != nil {
			return nil, errors.Wrap(err, "reading npy data")
		}
		if got < want {
			return nil, errors.Wrapf(io.ErrUnexpectedEOF,
				"npy data holds %d bytes, header needs %d", got, want)
		}
		r = &buf
	}
	b, err := memory.Allocate(h.Code, h.Size())
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, b.Bytes()); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "reading %d bytes of npy data", want)
	}
	return storage.Wrap(b, sh)
}

// Option configures Load.
type Option func(*options)

type options struct {
	mmap     bool
	writable bool
}

// WithMmap maps the file instead of reading it. The returned storage aliases
// the mapping, which stays alive while any view of it is reachable.
func WithMmap() Option {
	return func(o *options) { o.mmap = true }
}

// WithWritableMmap maps the file read-write; assignments reach the file.
func WithWritableMmap() Option {
	return func(o *options) { o.mmap, o.writable = true, true }
}

// Load reads the array stored at path.
func Load(path string, opts ...Option) (*storage.Storage, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	//nolint:gosec // G304: loading from a caller-provided path is the point
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %q", path)
	}
	if o.mmap {
		return mapData(path, h, o.writable)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %q", path)
	}
	if avail := fi.Size() - h.DataOffset; avail < h.DataBytes() {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF,
			"%q holds %d data bytes, header needs %d", path, avail, h.DataBytes())
	}
	st, err := readData(br, h)
	return st, errors.WithMessagef(err, "loading %q", path)
}

func mapData(path string, h Header, writable bool) (*storage.Storage, error) {
	sh, err := h.layout()
	if err != nil {
		return nil, err
	}
	file, err := memory.Map(path, writable)
	if err != nil {
		return nil, err
	}
	if avail := int64(file.Count()) - h.DataOffset; avail < h.DataBytes() {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF,
			"%q holds %d data bytes, header needs %d", path, avail, h.DataBytes())
	}
	data, err := file.Reinterpret(h.Code, int(h.DataOffset), h.Size())
	if err != nil {
		return nil, errors.WithMessagef(err, "mapping data of %q", path)
	}
	klog.V(4).Infof("npy: mapped %q as %s %v", path, h.Code, sh)
	return storage.Wrap(data, sh)
}
