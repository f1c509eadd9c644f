package memory

import (
	"os"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type mapping struct {
	id       uuid.UUID
	mm       mmap.MMap
	writable bool
}

func (m *mapping) unmap() {
	if err := m.mm.Unmap(); err != nil {
		klog.Warningf("memory: failed to unmap block %s: %v", m.id, err)
	}
}

// Map maps a whole file into a root Uint8 block. Typed regions are carved out
// with Reinterpret. The mapping is released once the root and every block
// aliasing it are unreachable; writable mappings write through to the file.
func Map(path string, writable bool) (*Block, error) {
	flag, prot := os.O_RDONLY, mmap.RDONLY
	if writable {
		flag, prot = os.O_RDWR, mmap.RDWR
	}
	//nolint:gosec // G304: mapping a caller-provided path is the point
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q for mapping", path)
	}
	// The mapping outlives the descriptor.
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %q", path)
	}
	if st.Size() == 0 {
		return nil, errors.Wrapf(errs.ErrInvalidOperation, "cannot map empty file %q", path)
	}

	mm, err := mmap.Map(f, prot, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping %q", path)
	}

	id := uuid.New()
	b := &Block{
		id:      id,
		code:    dtype.Uint8,
		count:   len(mm),
		data:    mm,
		mapping: &mapping{id: id, mm: mm, writable: writable},
	}
	track(b, int64(len(mm)))
	klog.V(4).Infof("memory: mapped %q as block %s (%d bytes, writable=%v)", path, id, len(mm), writable)
	return b, nil
}

// Flush writes modified mapped pages back to the file. It is a no-op for heap
// memory.
func (b *Block) Flush() error {
	m := b.Root().mapping
	if m == nil {
		return nil
	}
	return errors.Wrapf(m.mm.Flush(), "flushing block %s", b.id)
}

// Writable reports whether elements may be stored into the block. Read-only
// mappings reject writes.
func (b *Block) Writable() bool {
	m := b.Root().mapping
	return m == nil || m.writable
}
