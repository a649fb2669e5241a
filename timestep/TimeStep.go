// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment. A
// Last TimeStep always has a discount of 0.
type TimeStep[O any] struct {
	stepType    StepType
	Reward      float64
	Discount    float64
	Observation O
	Number      int
}

// New returns a new TimeStep
func New[O any](t StepType, r, d float64, o O, n int) TimeStep[O] {
	if t == Last {
		d = 0
	}
	return TimeStep[O]{t, r, d, o, n}
}

// StepType returns the type of the TimeStep
func (t TimeStep[O]) StepType() StepType {
	return t.stepType
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep[O]) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep[O]) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep[O]) Last() bool {
	return t.stepType == Last
}

func (t TimeStep[O]) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Discount, t.Number)
}
