package checkpointer

import (
	"fmt"
	"math"
	"path/filepath"
	"time"
)

// FileTimer returns a Namer which appends to a filename the number of
// nanoseconds since January 1, 1970
func FileTimer(filename, extension string) Namer {
	return func(int, float64) string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}

// ReturnNamer returns a Namer which names checkpoints in dir as
// agent_<episode>@<return rounded to an integer>.json
func ReturnNamer(dir string) Namer {
	return func(episode int, ret float64) string {
		return filepath.Join(dir, fmt.Sprintf("agent_%d@%d.json", episode,
			int64(math.Round(ret))))
	}
}

// TimestampDir returns the directory models/<MM-DD-HH-MM-SS> under
// root for a run started at t
func TimestampDir(root string, t time.Time) string {
	return filepath.Join(root, "models", t.Format("01-02-15-04-05"))
}
