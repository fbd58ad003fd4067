package protocol

import (
	"errors"
	"testing"
)

func TestStringTableIntern(t *testing.T) {
	st := NewStringTable()

	for i, s := range []string{"View", "Text", "", "Image"} {
		idx, seen := st.Intern(s)
		if seen || idx != i {
			t.Errorf("Intern(%q) = %d, %v; want %d, false", s, idx, seen, i)
		}
	}
	idx, seen := st.Intern("Text")
	if !seen || idx != 1 {
		t.Errorf("Intern(Text) again = %d, %v; want 1, true", idx, seen)
	}
	if st.Len() != 4 {
		t.Errorf("Len() = %d, want 4", st.Len())
	}

	got, err := st.Resolve(3)
	if err != nil || got != "Image" {
		t.Errorf("Resolve(3) = %q, %v", got, err)
	}
	_, err = st.Resolve(4)
	var ue *UnknownStringIndexError
	if !errors.As(err, &ue) || ue.Index != 4 || ue.Len != 4 {
		t.Errorf("Resolve(4) error = %v", err)
	}
}

func TestStringTableRollback(t *testing.T) {
	st := NewStringTable()
	st.Intern("a")
	st.Intern("b")
	mark := st.Len()
	st.Intern("c")
	st.Intern("d")

	st.rollback(mark)
	if st.Len() != 2 {
		t.Fatalf("Len() = %d after rollback, want 2", st.Len())
	}
	if _, seen := st.Intern("c"); seen {
		t.Error("rolled back string still indexed")
	}
	if idx, _ := st.Intern("d"); idx != 3 {
		t.Errorf("Intern(d) = %d, want 3", idx)
	}

	// Rolling back to the current length is a no-op.
	st.rollback(st.Len())
	if st.Len() != 4 {
		t.Errorf("Len() = %d, want 4", st.Len())
	}
}

func TestStringTableRelease(t *testing.T) {
	st := NewStringTable()
	st.Intern("x")
	st.Release()

	if !st.Released() {
		t.Error("Released() = false")
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}
	if _, err := st.Resolve(0); err == nil {
		t.Error("Resolve after Release should fail")
	}
}
