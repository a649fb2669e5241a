// Package trackers implements Trackers of episodic returns and
// episode lengths
package trackers

import (
	"fmt"

	"github.com/samuelfneumann/gocontrol/experiment/tracker"
	ts "github.com/samuelfneumann/gocontrol/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// An episode must finish for this Tracker to save its data. If the
// last episode in an experiment does not finish, that episode's return
// will not be saved. Use EndEpisode to close an episode which was
// truncated by the experiment rather than finished by the task.
type Return[O any] struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn[O any](filename string) *Return[O] {
	return &Return[O]{lastTimeStep: -1, filename: filename}
}

// Track tracks the rewards seen on a timestep. A First timestep starts
// a new episode.
//
// Track panics if it is called for non-sequential timesteps
func (r *Return[O]) Track(step ts.TimeStep[O]) {
	if step.First() {
		r.currentReturn = 0
		r.lastTimeStep = step.Number
		return
	}

	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	r.lastTimeStep = step.Number
	if step.Last() {
		r.EndEpisode()
	}
}

// EndEpisode records the return accumulated so far as the return of
// an episode
func (r *Return[O]) EndEpisode() {
	if r.lastTimeStep < 0 {
		return
	}
	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0
	r.lastTimeStep = -1
}

// Returns returns the returns of all tracked episodes
func (r *Return[O]) Returns() []float64 {
	return append([]float64(nil), r.episodeReturns...)
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return[O]) Save() error {
	return tracker.Save(r.filename, r.episodeReturns)
}

var _ tracker.Tracker[int] = &Return[int]{}
