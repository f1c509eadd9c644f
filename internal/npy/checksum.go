package npy

import (
	"crypto/sha256"
	"io"

	"github.com/born-ml/strided/internal/storage"
	"github.com/pkg/errors"
)

// Checksum returns the SHA-256 of st's elements as they would be written to
// the data section of an .npy file: row-major, little-endian.
func Checksum(st *storage.Storage) ([32]byte, error) {
	sh := st.Shape()
	if !sh.IsContiguous() || sh.IsBroadcasted() {
		st = st.Clone()
		sh = st.Shape()
	}
	data, err := st.Block().Slice(sh.Offset(), sh.Size())
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data.Bytes()), nil
}

// ChecksumData reads an .npy stream and returns its header and the SHA-256 of
// its data section, without materializing the array.
func ChecksumData(r io.Reader) (Header, [32]byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return h, [32]byte{}, err
	}
	sum := sha256.New()
	n, err := io.Copy(sum, io.LimitReader(r, h.DataBytes()))
	if err != nil {
		return h, [32]byte{}, errors.Wrap(err, "hashing npy data")
	}
	if n != h.DataBytes() {
		return h, [32]byte{}, errors.Wrapf(io.ErrUnexpectedEOF, "data section has %d of %d bytes", n, h.DataBytes())
	}
	var out [32]byte
	copy(out[:], sum.Sum(nil))
	return h, out, nil
}

// VerifyChecksum compares st's checksum with want.
func VerifyChecksum(st *storage.Storage, want [32]byte) error {
	got, err := Checksum(st)
	if err != nil {
		return err
	}
	if got != want {
		return errors.Wrapf(ErrChecksumMismatch, "got %x, want %x", got[:8], want[:8])
	}
	return nil
}
