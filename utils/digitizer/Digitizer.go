// Package digitizer maps continuous values to discrete buckets and
// combines per-axis buckets into a single flat index
package digitizer

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/gocontrol/utils/floatutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

// Linspace returns n evenly spaced values over [lo, hi]
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Edges returns the bins-1 interior edges which split domain into bins
// evenly sized buckets
func Edges(domain r1.Interval, bins int) []float64 {
	if bins <= 1 {
		return []float64{}
	}
	return Linspace(domain.Min, domain.Max, bins+1)[1:bins]
}

// Digitize returns the bucket of value given ascending edges. Buckets
// are left-closed: a value less than edges[i] (and not less than
// edges[i-1]) falls into bucket i, so a value exactly at an edge falls
// into the bucket above it. Values at or beyond the last edge fall
// into the last bucket, len(edges).
func Digitize(value float64, edges []float64) int {
	if !sort.Float64sAreSorted(edges) {
		panic(fmt.Sprintf("digitize: edges must be sorted in ascending "+
			"order \n\thave(%v)", edges))
	}
	return sort.Search(len(edges), func(i int) bool {
		return value < edges[i]
	})
}

// Axis is a single dimension of a Digitizer
type Axis struct {
	Domain r1.Interval
	Bins   int

	// Clamp determines whether values are clamped into Domain before
	// bucketing
	Clamp bool
}

// Digitizer buckets multi-dimensional values axis by axis and encodes
// the per-axis buckets as a mixed-radix index. The first axis varies
// fastest.
type Digitizer struct {
	axes  []Axis
	edges [][]float64
	size  int
}

// New returns a new Digitizer over axes
func New(axes ...Axis) (*Digitizer, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("new: digitizer must have at least one axis")
	}

	edges := make([][]float64, len(axes))
	size := 1
	for i, axis := range axes {
		if axis.Bins < 1 {
			return nil, fmt.Errorf("new: axis %v must have at least one bin "+
				"\n\thave(%v)", i, axis.Bins)
		}
		if !(axis.Domain.Min < axis.Domain.Max) {
			return nil, fmt.Errorf("new: axis %v has empty domain %v", i,
				axis.Domain)
		}
		edges[i] = Edges(axis.Domain, axis.Bins)
		size *= axis.Bins
	}

	return &Digitizer{
		axes:  append([]Axis(nil), axes...),
		edges: edges,
		size:  size,
	}, nil
}

// Size returns the number of distinct flat indices, the product of
// the bins of all axes
func (d *Digitizer) Size() int {
	return d.size
}

// Axes returns the number of axes of the digitizer
func (d *Digitizer) Axes() int {
	return len(d.axes)
}

// Bucket returns the bucket of value along axis
func (d *Digitizer) Bucket(axis int, value float64) int {
	if d.axes[axis].Clamp {
		value = floatutils.ClipInterval(value, d.axes[axis].Domain)
	}
	return Digitize(value, d.edges[axis])
}

// Buckets returns the bucket of each value along its axis
func (d *Digitizer) Buckets(values []float64) []int {
	if len(values) != len(d.axes) {
		panic(fmt.Sprintf("buckets: wrong number of values \n\twant(%v) "+
			"\n\thave(%v)", len(d.axes), len(values)))
	}
	buckets := make([]int, len(values))
	for i, v := range values {
		buckets[i] = d.Bucket(i, v)
	}
	return buckets
}

// Encode combines per-axis buckets into a flat index in [0, Size())
func (d *Digitizer) Encode(buckets []int) int {
	if len(buckets) != len(d.axes) {
		panic(fmt.Sprintf("encode: wrong number of buckets \n\twant(%v) "+
			"\n\thave(%v)", len(d.axes), len(buckets)))
	}
	index := 0
	stride := 1
	for i, b := range buckets {
		if b < 0 || b >= d.axes[i].Bins {
			panic(fmt.Sprintf("encode: bucket %v out of range for axis %v "+
				"with %v bins", b, i, d.axes[i].Bins))
		}
		index += b * stride
		stride *= d.axes[i].Bins
	}
	return index
}

// Decode splits a flat index into its per-axis buckets
func (d *Digitizer) Decode(index int) []int {
	if index < 0 || index >= d.size {
		panic(fmt.Sprintf("decode: index %v out of range [0, %v)", index,
			d.size))
	}
	buckets := make([]int, len(d.axes))
	for i, axis := range d.axes {
		buckets[i] = index % axis.Bins
		index /= axis.Bins
	}
	return buckets
}

// Index returns the flat index of values
func (d *Digitizer) Index(values []float64) int {
	return d.Encode(d.Buckets(values))
}
