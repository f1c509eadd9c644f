package shape

import (
	"strconv"
	"strings"

	"github.com/born-ml/strided/internal/errs"
	"github.com/pkg/errors"
)

// Slice selects along one axis: a single index (which drops the axis), a
// start:stop:step range, or an ellipsis standing for all remaining axes.
type Slice struct {
	Start, Stop int
	Step        int // 0 means 1
	HasStart    bool
	HasStop     bool
	IsIndex     bool
	IsEllipsis  bool
}

// Index selects a single position and drops the axis.
func Index(i int) Slice { return Slice{Start: i, HasStart: true, IsIndex: true} }

// Range selects [start, stop).
func Range(start, stop int) Slice {
	return Slice{Start: start, Stop: stop, HasStart: true, HasStop: true}
}

// From selects [start, end of axis).
func From(start int) Slice { return Slice{Start: start, HasStart: true} }

// All selects the whole axis.
func All() Slice { return Slice{} }

// Ellipsis expands to All for every axis not otherwise selected.
func Ellipsis() Slice { return Slice{IsEllipsis: true} }

// WithStep returns a copy of sl with a step.
func (sl Slice) WithStep(step int) Slice {
	sl.Step = step
	return sl
}

// String formats sl in NumPy notation.
func (sl Slice) String() string {
	switch {
	case sl.IsEllipsis:
		return "..."
	case sl.IsIndex:
		return strconv.Itoa(sl.Start)
	}
	var b strings.Builder
	if sl.HasStart {
		b.WriteString(strconv.Itoa(sl.Start))
	}
	b.WriteByte(':')
	if sl.HasStop {
		b.WriteString(strconv.Itoa(sl.Stop))
	}
	if sl.Step != 0 && sl.Step != 1 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(sl.Step))
	}
	return b.String()
}

// ParseSlices parses NumPy slice notation such as "1:3, ::-1, 2, ...".
func ParseSlices(expr string) ([]Slice, error) {
	parts := strings.Split(expr, ",")
	out := make([]Slice, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		sl, err := parseSlice(p)
		if err != nil {
			return nil, errors.WithMessagef(err, "parsing %q", expr)
		}
		out = append(out, sl)
	}
	return out, nil
}

func parseSlice(p string) (Slice, error) {
	if p == "..." {
		return Ellipsis(), nil
	}
	if !strings.Contains(p, ":") {
		i, err := strconv.Atoi(p)
		if err != nil {
			return Slice{}, errors.Wrapf(errs.ErrInvalidOperation, "invalid index %q", p)
		}
		return Index(i), nil
	}
	fields := strings.Split(p, ":")
	if len(fields) > 3 {
		return Slice{}, errors.Wrapf(errs.ErrInvalidOperation, "invalid slice %q", p)
	}
	var sl Slice
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return Slice{}, errors.Wrapf(errs.ErrInvalidOperation, "invalid slice %q", p)
		}
		switch i {
		case 0:
			sl.Start, sl.HasStart = v, true
		case 1:
			sl.Stop, sl.HasStop = v, true
		case 2:
			if v == 0 {
				return Slice{}, errors.Wrap(errs.ErrInvalidOperation, "slice step cannot be zero")
			}
			sl.Step = v
		}
	}
	return sl, nil
}

// resolve normalizes sl against an axis of size dim and returns the first
// position, the step and the number of selected elements.
func (sl Slice) resolve(dim int) (start, step, length int, err error) {
	if sl.IsIndex {
		i := sl.Start
		if i < 0 {
			i += dim
		}
		if i < 0 || i >= dim {
			return 0, 0, 0, errors.Wrapf(errs.ErrIndexOutOfRange,
				"index %d is out of bounds for axis with size %d", sl.Start, dim)
		}
		return i, 1, 1, nil
	}

	step = sl.Step
	if step == 0 {
		step = 1
	}

	clamp := func(v int) int {
		if v < 0 {
			v += dim
			if v < 0 {
				if step < 0 {
					return -1
				}
				return 0
			}
			return v
		}
		if v >= dim {
			if step < 0 {
				return dim - 1
			}
			return dim
		}
		return v
	}

	switch {
	case sl.HasStart:
		start = clamp(sl.Start)
	case step > 0:
		start = 0
	default:
		start = dim - 1
	}

	var stop int
	switch {
	case sl.HasStop:
		stop = clamp(sl.Stop)
	case step > 0:
		stop = dim
	default:
		stop = -1
	}

	switch {
	case step > 0 && start < stop:
		length = (stop-start-1)/step + 1
	case step < 0 && stop < start:
		length = (start-stop-1)/(-step) + 1
	}
	return start, step, length, nil
}

// Slice applies per-axis selections and returns the resulting view.
// Axes without a selection are kept whole.
func (s Shape) Slice(slices ...Slice) (Shape, error) {
	expanded, err := expandEllipsis(slices, len(s.dims))
	if err != nil {
		return Shape{}, err
	}

	dims := make([]int, 0, len(s.dims))
	strides := make([]int, 0, len(s.dims))
	off := s.offset
	for axis, d := range s.dims {
		sl := All()
		if axis < len(expanded) {
			sl = expanded[axis]
		}
		start, step, length, err := sl.resolve(d)
		if err != nil {
			return Shape{}, errors.WithMessagef(err, "axis %d", axis)
		}
		if length > 0 {
			off += start * s.strides[axis]
		}
		if sl.IsIndex {
			continue
		}
		dims = append(dims, length)
		strides = append(strides, s.strides[axis]*step)
	}

	out := newView(dims, strides, off)
	out.modified = out.modified || s.modified
	return out, nil
}

func expandEllipsis(slices []Slice, ndim int) ([]Slice, error) {
	at := -1
	for i, sl := range slices {
		if sl.IsEllipsis {
			if at >= 0 {
				return nil, errors.Wrap(errs.ErrInvalidOperation, "an index can only have a single ellipsis")
			}
			at = i
		}
	}
	n := len(slices)
	if at >= 0 {
		n--
	}
	if n > ndim {
		return nil, errors.Wrapf(errs.ErrIndexOutOfRange,
			"too many indices: %d for %d dimensions", n, ndim)
	}
	if at < 0 {
		return slices, nil
	}
	out := make([]Slice, 0, ndim)
	out = append(out, slices[:at]...)
	for i := 0; i < ndim-n; i++ {
		out = append(out, All())
	}
	return append(out, slices[at+1:]...), nil
}
