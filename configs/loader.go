package configs

import (
	"fmt"
	"iter"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Loader reads config files lazily, once, validating each against schema.
// Files listed first take precedence.
type Loader struct {
	paths    []string
	getRoots func() ([]root, error)
}

type root struct {
	value cue.Value
	path  string
}

func NewLoader(filePaths []string, schemaSrc string) Loader {
	return Loader{
		paths: filePaths,
		getRoots: sync.OnceValues(func() ([]root, error) {
			return loadRoots(filePaths, schemaSrc)
		}),
	}
}

func loadRoots(filePaths []string, schemaSrc string) (ret []root, err error) {
	ctx := cuecontext.New()

	var schema cue.Value
	if schemaSrc != "" {
		schema = ctx.CompileString("close({" + schemaSrc + "})")
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}

	for _, filePath := range filePaths {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		value := ctx.CompileBytes(content, cue.Filename(filePath))
		if err := value.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}
		if schema.Exists() {
			if err := schema.Unify(value).Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", filePath, err)
			}
		}
		ret = append(ret, root{
			value: value,
			path:  filePath,
		})
	}

	return
}

// Paths returns the config files, most preferred first.
func (l Loader) Paths() []string {
	return l.paths
}

// lookup yields path in each file that defines it.
func (l Loader) lookup(path string) iter.Seq2[root, error] {
	return func(yield func(root, error) bool) {
		roots, err := l.getRoots()
		if err != nil {
			yield(root{}, err)
			return
		}
		cuePath := cue.ParsePath(path)
		for _, r := range roots {
			value := r.value.LookupPath(cuePath)
			if value.Err() != nil {
				continue
			}
			if !yield(root{value: value, path: r.path}, nil) {
				return
			}
		}
	}
}

func (l Loader) IterCueValues(path string) iter.Seq2[*cue.Value, error] {
	return func(yield func(*cue.Value, error) bool) {
		for r, err := range l.lookup(path) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(&r.value, nil) {
				return
			}
		}
	}
}

// Sources lists the files that define path, most preferred first.
func (l Loader) Sources(path string) ([]string, error) {
	var ret []string
	for r, err := range l.lookup(path) {
		if err != nil {
			return nil, err
		}
		ret = append(ret, r.path)
	}
	return ret, nil
}

func (l Loader) AssignFirst(path string, target any) error {
	for r, err := range l.lookup(path) {
		if err != nil {
			return err
		}
		if err := r.value.Decode(target); err != nil {
			return fmt.Errorf("%s: %s: %w", r.path, path, err)
		}
		return nil
	}
	return ErrValueNotFound
}
