package jsvm

import "fmt"

// ConstWrites selects what happens to a non-initialising write to a const
// slot or property.
type ConstWrites uint8

const (
	ConstWritesIgnore ConstWrites = iota
	ConstWritesError
)

func (c ConstWrites) String() string {
	switch c {
	case ConstWritesIgnore:
		return "ignore"
	case ConstWritesError:
		return "error"
	}
	return fmt.Sprintf("ConstWrites(%d)", c)
}

func ParseConstWrites(s string) (ConstWrites, error) {
	switch s {
	case "", "ignore":
		return ConstWritesIgnore, nil
	case "error":
		return ConstWritesError, nil
	}
	return 0, fmt.Errorf("unknown const write policy: %q", s)
}

const DefaultMaxCallDepth = 1000

type Config struct {
	// MaxCallDepth bounds the number of active frames. Zero means no limit.
	MaxCallDepth int
	// InstructionThreshold is the number of instructions between observer
	// calls. Zero disables observation.
	InstructionThreshold int
	ConstWrites          ConstWrites
}

func DefaultConfig() Config {
	return Config{
		MaxCallDepth: DefaultMaxCallDepth,
	}
}
