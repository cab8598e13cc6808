package configs

import "iter"

// All decodes path from every file that defines it, most preferred first.
func All[T any](loader Loader, path string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for value, err := range loader.IterCueValues(path) {
			if err != nil {
				yield(zero, err)
				return
			}
			var v T
			if err := value.Decode(&v); err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
