package checkpointer

import "fmt"

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	object   Saver

	// filename returns the path of the file to save the object in.
	//
	// If each checkpoint should be saved in a separate file with an
	// incremented number as a suffix (e.g. file1.json, ..., fileK.json),
	// use FilenameEnumerator. If the name does not matter, use
	// FileTimer. To name checkpoints by their episode and return, use
	// ReturnNamer. For example:
	//
	// n := NewNEpisode(10, object, FileTimer("agent", ".json"))
	filename Namer
}

// NewNEpisode returns a checkpointer that checkpoints every n episodes
func NewNEpisode(n int, object Saver, filename Namer) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNEpisode: interval must be positive "+
			"\n\thave(%v)", n)
	}
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object if episode is a multiple of the
// interval
func (n *nEpisode) Checkpoint(episode int, ret float64) (string, error) {
	if episode%n.interval != 0 {
		return "", nil
	}

	path := n.filename(episode, ret)
	if err := n.object.Save(path); err != nil {
		return "", fmt.Errorf("checkpoint: %w", err)
	}
	return path, nil
}
