package checkpointer

import "fmt"

// FilenameEnumerator returns a Namer which numbers files consecutively
// from start+1, as filename<n>extension. The filename may include a
// directory.
func FilenameEnumerator(start int, filename, extension string) Namer {
	n := start
	return func(int, float64) string {
		n++
		return fmt.Sprintf("%v%v%v", filename, n, extension)
	}
}
