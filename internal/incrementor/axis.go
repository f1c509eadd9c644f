package incrementor

import (
	"slices"

	"github.com/born-ml/strided/internal/shape"
)

// Axis enumerates every 1-D sub-view along one axis of a shape. Each step
// yields a selector vector with All at the held axis and an Index elsewhere,
// ready for shape.Shape.Slice.
type Axis struct {
	axis      int
	coords    *Coordinates
	selectors []shape.Slice
	count     int
}

// NewAxis creates an axis incrementor over dims holding axis fixed.
func NewAxis(dims []int, axis int) (*Axis, error) {
	ax, err := shape.NormalizeAxis(axis, len(dims))
	if err != nil {
		return nil, err
	}
	outer := slices.Clone(dims)
	outer[ax] = 1

	count := 1
	for _, d := range outer {
		count *= d
	}
	return &Axis{
		axis:      ax,
		coords:    New(outer),
		selectors: make([]shape.Slice, len(dims)),
		count:     count,
	}, nil
}

// Next returns the selectors of the next sub-view, or nil at exhaustion.
func (a *Axis) Next() []shape.Slice {
	idx := a.coords.Next()
	if idx == nil {
		return nil
	}
	for i, v := range idx {
		if i == a.axis {
			a.selectors[i] = shape.All()
			continue
		}
		a.selectors[i] = shape.Index(v)
	}
	return a.selectors
}

// Index returns the coordinates of the current sub-view; the held axis is 0.
func (a *Axis) Index() []int {
	return a.coords.Index()
}

// Axis returns the held axis.
func (a *Axis) Axis() int {
	return a.axis
}

// Count returns the number of sub-views.
func (a *Axis) Count() int {
	return a.count
}

// Reset restarts the enumeration.
func (a *Axis) Reset() {
	a.coords.Reset()
}
