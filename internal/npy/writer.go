package npy

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
)

// encodeHeader returns the preamble and padded header dict for st.
func encodeHeader(descr string, dims []int) ([]byte, error) {
	dict := formatDict(descr, dims)

	// magic + version + length field + dict + '\n', padded to the alignment.
	for _, v := range []struct {
		major    byte
		fieldLen int
	}{{1, 2}, {2, 4}} {
		fixed := len(Magic) + 2 + v.fieldLen
		total := fixed + len(dict) + 1
		pad := (HeaderAlignment - total%HeaderAlignment) % HeaderAlignment
		hlen := len(dict) + pad + 1
		if v.major == 1 && hlen > maxV1HeaderLen {
			continue
		}
		if hlen > MaxHeaderSize {
			return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", hlen)
		}

		buf := make([]byte, 0, fixed+hlen)
		buf = append(buf, Magic...)
		buf = append(buf, v.major, 0)
		if v.fieldLen == 2 {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(hlen))
		} else {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(hlen))
		}
		buf = append(buf, dict...)
		buf = append(buf, strings.Repeat(" ", pad)...)
		return append(buf, '\n'), nil
	}
	return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", len(dict))
}

// Write encodes st to w in C order. Non-contiguous storages are compacted
// first.
func Write(w io.Writer, st *storage.Storage) error {
	descr := descriptors[st.Code()]
	if descr == "" {
		return errors.Wrapf(errs.ErrUnsupportedType, "no npy descriptor for %s", st.Code())
	}
	header, err := encodeHeader(descr, st.Shape().Dims())
	if err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing npy header")
	}

	sh := st.Shape()
	if !sh.IsContiguous() || sh.IsBroadcasted() {
		st = st.Clone()
		sh = st.Shape()
	}
	data, err := st.Block().Slice(sh.Offset(), sh.Size())
	if err != nil {
		return err
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return errors.Wrap(err, "writing npy data")
	}
	return nil
}

// Save writes st to a file at path, replacing any existing file.
func Save(path string, st *storage.Storage) error {
	//nolint:gosec // G304: saving to a caller-provided path is the point
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, st); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "flushing %q", path)
	}
	return errors.Wrapf(f.Close(), "closing %q", path)
}
