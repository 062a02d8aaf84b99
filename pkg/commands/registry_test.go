package commands

import "testing"

func TestRegistry_LookupByNameAndAlias(t *testing.T) {
	r := NewRegistry([]Definition{
		{Name: "help", Description: "Show help"},
		{Name: "good", Aliases: []string{"bien"}},
	})

	if d, ok := r.Lookup("bien"); !ok || d.Name != "good" {
		t.Fatalf("Lookup(bien) = %+v, %v", d, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("Lookup(missing) should fail")
	}
	if got := len(r.Definitions()); got != 2 {
		t.Fatalf("Definitions() = %d, want 2", got)
	}
}
