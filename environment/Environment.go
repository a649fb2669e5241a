// Package environment outlines the interfaces and structs needed to
// compose a simulated body, a task, an observer, and actions into an
// episodic environment
package environment

import (
	"fmt"

	"github.com/samuelfneumann/gocontrol/physics"
	ts "github.com/samuelfneumann/gocontrol/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// Simulator is a simulated body which an Environment can drive.
// *physics.Physics, and any struct embedding it, implements Simulator.
type Simulator interface {
	Step()
	Forward()
	Reset()
	Actuators() *physics.Actuators
}

// Action is an action which can be taken in an environment. Applying
// an action may only set actuator controls.
type Action interface {
	Apply(*physics.Actuators)
}

// Observer generates an observation from the current state of a
// Simulator
type Observer[P Simulator, O any] func(P) O

// Task implements the episode initialization, reward scheme and
// termination condition of an environment.
//
// ShouldFinishEpisode and GetReward must be pure functions of their
// arguments.
type Task[P Simulator, O any, A Action] interface {
	// Discount returns the per-step discount of the task
	Discount() float64

	// InitEpisode sets the initial state of a new episode. It may only
	// write positions and velocities.
	InitEpisode(P)

	ShouldFinishEpisode(O) bool
	GetReward(O, A) float64
}

// Environment implements the reset/step state machine of an episodic
// environment. An Environment is between episodes until Reset is
// called, and returns to being between episodes when a step finishes
// the episode.
type Environment[P Simulator, O any, A Action] struct {
	physics P
	task    Task[P, O, A]
	observe Observer[P, O]

	lastStep ts.TimeStep[O]
	running  bool
}

// New returns a new Environment. The environment starts between
// episodes and must be Reset before it can be stepped.
func New[P Simulator, O any, A Action](p P, t Task[P, O, A],
	o Observer[P, O]) *Environment[P, O, A] {
	return &Environment[P, O, A]{
		physics: p,
		task:    t,
		observe: o,
	}
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (e *Environment[P, O, A]) Reset() ts.TimeStep[O] {
	e.physics.Reset()
	e.task.InitEpisode(e.physics)
	e.physics.Forward()

	obs := e.observe(e.physics)
	e.lastStep = ts.New(ts.First, 0, e.task.Discount(), obs, 0)
	e.running = true

	return e.lastStep
}

// Step takes one environmental step given action a and returns the
// next timestep. If the episode has finished, the returned TimeStep is
// Last. Stepping an environment between episodes panics.
func (e *Environment[P, O, A]) Step(a A) ts.TimeStep[O] {
	if !e.running {
		panic(fmt.Sprintf("step: environment must be reset before "+
			"stepping \n\tlast step: %v", e.lastStep))
	}

	a.Apply(e.physics.Actuators())
	e.physics.Step()

	obs := e.observe(e.physics)
	reward := e.task.GetReward(obs, a)
	number := e.lastStep.Number + 1

	if e.task.ShouldFinishEpisode(obs) {
		e.lastStep = ts.New(ts.Last, reward, 0, obs, number)
		e.running = false
	} else {
		e.lastStep = ts.New(ts.Mid, reward, e.task.Discount(), obs, number)
	}
	return e.lastStep
}

// CurrentTimeStep returns the current timestep of the environment
func (e *Environment[P, O, A]) CurrentTimeStep() ts.TimeStep[O] {
	return e.lastStep
}

// Finished returns whether the environment is between episodes
func (e *Environment[P, O, A]) Finished() bool {
	return !e.running
}

// Physics returns the simulated body of the environment
func (e *Environment[P, O, A]) Physics() P {
	return e.physics
}

// Task returns the task of the environment
func (e *Environment[P, O, A]) Task() Task[P, O, A] {
	return e.task
}

// Discount returns the discount of the environment's task
func (e *Environment[P, O, A]) Discount() float64 {
	return e.task.Discount()
}
