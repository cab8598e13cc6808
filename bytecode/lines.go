package bytecode

import (
	"cmp"
	"slices"
)

// LineTable holds the pc to source line mapping. It only keeps an entry when
// the line changes, so consecutive instructions emitted for one line share the
// entry of the first.
type LineTable struct {
	Entries []LineEntry
}

type LineEntry struct {
	PC   int
	Line int
}

func (t *LineTable) Add(pc int, line int) {
	if n := len(t.Entries); n > 0 {
		last := t.Entries[n-1]
		if last.Line == line {
			return
		}
		if last.PC == pc {
			t.Entries[n-1].Line = line
			return
		}
	}
	t.Entries = append(t.Entries, LineEntry{
		PC:   pc,
		Line: line,
	})
}

// LineAt returns the line of the last entry at or before pc, or 0.
func (t *LineTable) LineAt(pc int) int {
	i, found := slices.BinarySearchFunc(t.Entries, pc, func(entry LineEntry, pc int) int {
		return cmp.Compare(entry.PC, pc)
	})
	if found {
		return t.Entries[i].Line
	}
	if i == 0 {
		return 0
	}
	return t.Entries[i-1].Line
}

// Lines returns the distinct line numbers in ascending order.
func (t *LineTable) Lines() []int {
	ret := make([]int, 0, len(t.Entries))
	for _, entry := range t.Entries {
		ret = append(ret, entry.Line)
	}
	slices.Sort(ret)
	return slices.Compact(ret)
}
