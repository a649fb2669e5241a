package trackers

import (
	"github.com/samuelfneumann/gocontrol/experiment/tracker"
	ts "github.com/samuelfneumann/gocontrol/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment. Only episodes which finish are recorded.
type EpisodeLength[O any] struct {
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which will save
// its data at the specified location filename
func NewEpisodeLength[O any](filename string) *EpisodeLength[O] {
	return &EpisodeLength[O]{filename: filename}
}

// Track caches the episode length if t is the last timestep of an
// episode
func (e *EpisodeLength[O]) Track(t ts.TimeStep[O]) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, t.Number)
	}
}

// Lengths returns the lengths of all finished episodes
func (e *EpisodeLength[O]) Lengths() []int {
	return append([]int(nil), e.episodeLengths...)
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
func (e *EpisodeLength[O]) Save() error {
	return tracker.Save(e.filename, e.episodeLengths)
}

var _ tracker.Tracker[int] = &EpisodeLength[int]{}
