package bytecode

import "testing"

func TestLineTable_LineAt(t *testing.T) {
	var table LineTable
	if table.LineAt(3) != 0 {
		t.Fatal("empty table")
	}
	table.Add(2, 1)
	table.Add(5, 1)
	table.Add(5, 3)
	table.Add(9, 4)
	table.Add(12, 2)

	for pc, want := range map[int]int{
		0:  0,
		1:  0,
		2:  1,
		4:  1,
		5:  3,
		8:  3,
		9:  4,
		11: 4,
		12: 2,
		40: 2,
	} {
		if got := table.LineAt(pc); got != want {
			t.Fatalf("pc %d: got %d, want %d", pc, got, want)
		}
	}
	if len(table.Entries) != 4 {
		t.Fatalf("got %v", table.Entries)
	}
}
