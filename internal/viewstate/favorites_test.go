package viewstate

import (
	"slices"
	"testing"
)

func TestFavorites_ToggleTwiceRestores(t *testing.T) {
	for _, uuid := range []string{"x", "y", "", "a-very-long-uuid-0000"} {
		f := NewFavorites()
		before := f.Has(uuid)

		if got := f.Toggle(uuid); got != !before {
			t.Errorf("first Toggle(%q) = %v, want %v", uuid, got, !before)
		}
		if got := f.Toggle(uuid); got != before {
			t.Errorf("second Toggle(%q) = %v, want %v", uuid, got, before)
		}
		if f.Has(uuid) != before {
			t.Errorf("Has(%q) = %v after two toggles, want %v", uuid, f.Has(uuid), before)
		}
	}
}

func TestFavorites_Members(t *testing.T) {
	f := NewFavorites()
	f.Toggle("c")
	f.Toggle("a")
	f.Toggle("b")
	f.Toggle("c")

	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
	if got := f.Members(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Members() = %v, want [a b]", got)
	}
}
