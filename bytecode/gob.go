package bytecode

import (
	"encoding/gob"
	"io"
)

// Encode writes fn and its nested containers.
func Encode(w io.Writer, fn *Function) error {
	return gob.NewEncoder(w).Encode(fn)
}

// Decode reads a container written by Encode and restores parent links.
func Decode(r io.Reader) (*Function, error) {
	fn := new(Function)
	if err := gob.NewDecoder(r).Decode(fn); err != nil {
		return nil, err
	}
	fn.Link()
	return fn, nil
}
