package kernel

import (
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/iterator"
	"github.com/born-ml/strided/internal/memory"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/shape"
)

// flat reports whether sh walks its block as one run of Size elements
// starting at Offset.
func flat(sh shape.Shape) bool {
	return sh.IsContiguous() && !sh.IsBroadcasted()
}

// mapUnary writes f(src) into dst. src broadcasts to dst's shape.
func mapUnary[D, S dtype.Element](dst, src iterator.Source, f func(S) D) error {
	src, err := isolate(dst, src)
	if err != nil {
		return err
	}
	dsh := dst.Shape()
	ssh, err := src.Shape().BroadcastTo(dsh.Dims())
	if err != nil {
		return err
	}
	di, err := iterator.NewWithShape[D](dst.Block(), dsh)
	if err != nil {
		return err
	}
	si, err := iterator.NewWithShape[S](src.Block(), ssh)
	if err != nil {
		return err
	}

	n := dsh.Size()
	if flat(dsh) && flat(ssh) {
		dd := memory.View[D](dst.Block())[dsh.Offset():][:n]
		sd := memory.View[S](src.Block())[ssh.Offset():][:n]
		parallel.ForRange(n, func(lo, hi int) {
			d, s := dd[lo:hi], sd[lo:hi]
			for i := range d {
				d[i] = f(s[i])
			}
		}, ParallelConfig())
		return nil
	}
	for i := 0; i < n; i++ {
		*di.MoveNextReference() = f(si.MoveNext())
	}
	return nil
}

// mapBinary writes f(a, b) into dst. Both operands broadcast to dst's shape.
func mapBinary[T dtype.Element](dst, a, b iterator.Source, f func(x, y T) T) error {
	a, err := isolate(dst, a)
	if err != nil {
		return err
	}
	if b, err = isolate(dst, b); err != nil {
		return err
	}
	dsh := dst.Shape()
	ash, err := a.Shape().BroadcastTo(dsh.Dims())
	if err != nil {
		return err
	}
	bsh, err := b.Shape().BroadcastTo(dsh.Dims())
	if err != nil {
		return err
	}
	di, err := iterator.NewWithShape[T](dst.Block(), dsh)
	if err != nil {
		return err
	}
	ai, err := iterator.NewWithShape[T](a.Block(), ash)
	if err != nil {
		return err
	}
	bi, err := iterator.NewWithShape[T](b.Block(), bsh)
	if err != nil {
		return err
	}

	n := dsh.Size()
	if flat(dsh) && flat(ash) && flat(bsh) {
		dd := memory.View[T](dst.Block())[dsh.Offset():][:n]
		ad := memory.View[T](a.Block())[ash.Offset():][:n]
		bd := memory.View[T](b.Block())[bsh.Offset():][:n]
		parallel.ForRange(n, func(lo, hi int) {
			d, x, y := dd[lo:hi], ad[lo:hi], bd[lo:hi]
			for i := range d {
				d[i] = f(x[i], y[i])
			}
		}, ParallelConfig())
		return nil
	}
	for i := 0; i < n; i++ {
		*di.MoveNextReference() = f(ai.MoveNext(), bi.MoveNext())
	}
	return nil
}

// fill writes v into every element of dst.
func fill[T dtype.Element](dst iterator.Source, v T) error {
	dsh := dst.Shape()
	di, err := iterator.NewWithShape[T](dst.Block(), dsh)
	if err != nil {
		return err
	}
	n := dsh.Size()
	if flat(dsh) {
		dd := memory.View[T](dst.Block())[dsh.Offset():][:n]
		parallel.ForRange(n, func(lo, hi int) {
			d := dd[lo:hi]
			for i := range d {
				d[i] = v
			}
		}, ParallelConfig())
		return nil
	}
	for i := 0; i < n; i++ {
		*di.MoveNextReference() = v
	}
	return nil
}
