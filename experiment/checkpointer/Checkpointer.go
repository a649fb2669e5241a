// Package checkpointer implements periodic saving of objects during an
// experiment
package checkpointer

// Saver is an object that can be saved to a file
type Saver interface {
	Save(path string) error
}

// Namer returns the path of the checkpoint taken at the end of an
// episode, given the episode number and its return
type Namer func(episode int, ret float64) string

// Checkpointer checkpoints an object at the end of episodes. It
// returns the path saved to, or the empty string if no checkpoint was
// taken.
type Checkpointer interface {
	Checkpoint(episode int, ret float64) (string, error)
}
