package configs

import (
	"errors"
)

// First decodes path from the most preferred file that defines it, or
// returns the zero value. Other errors panic, since providers cannot return
// them.
func First[T any](loader Loader, path string) T {
	var value T
	if err := loader.AssignFirst(path, &value); err != nil {
		if errors.Is(err, ErrValueNotFound) {
			return value
		}
		panic(err)
	}
	return value
}
