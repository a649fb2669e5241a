package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples vectors uniformly from a box, one interval
// per dimension. An interval of zero width always yields its bound.
type UniformStarter struct {
	bounds []r1.Interval
	dist   *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling from bounds
// with a source seeded by seed
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	b := append([]r1.Interval(nil), bounds...)
	return UniformStarter{
		bounds: b,
		dist:   distmv.NewUniform(b, rand.NewSource(seed)),
	}
}

// Start samples a starting state
func (u UniformStarter) Start() mat.Vector {
	return mat.NewVecDense(len(u.bounds), u.dist.Rand(nil))
}

// Bounds returns a copy of the intervals sampled from
func (u UniformStarter) Bounds() []r1.Interval {
	return append([]r1.Interval(nil), u.bounds...)
}
