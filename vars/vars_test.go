package vars

import "testing"

func TestStrToBool(t *testing.T) {
	for str, want := range map[string]bool{
		"true": true,
		"Yes":  true,
		"on":   true,
		"F":    false,
		"0":    false,
	} {
		got, err := StrToBool(str)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("%s: got %v", str, got)
		}
	}
	if _, err := StrToBool("maybe"); err == nil {
		t.Fatal("should error")
	}
}

func TestFirstNonZero(t *testing.T) {
	if got := FirstNonZero(0, 3, 5); got != 3 {
		t.Fatalf("got %d", got)
	}
	if got := FirstNonZero("", ""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestDerefOrZero(t *testing.T) {
	if got := DerefOrZero[int](nil); got != 0 {
		t.Fatalf("got %d", got)
	}
	s := "foo"
	if got := DerefOrZero(&s); got != "foo" {
		t.Fatalf("got %q", got)
	}
}
