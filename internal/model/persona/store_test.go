package persona

import "testing"

func TestMemoryStoreFindByID(t *testing.T) {
	store := NewMemoryStore(Seed())

	p, ok := store.FindByID(DefaultID)
	if !ok {
		t.Fatalf("default persona %q not seeded", DefaultID)
	}
	if len(p.OpeningLines) == 0 {
		t.Fatal("default persona needs opening lines")
	}

	if _, ok := store.FindByID("missing"); ok {
		t.Fatal("expected missing persona lookup to fail")
	}
}

func TestMemoryStoreListIsACopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].Name = "changed"

	if store.List()[0].Name == "changed" {
		t.Fatal("List must not expose internal storage")
	}
}

func TestMemoryStoreResolve(t *testing.T) {
	store := NewMemoryStore(Seed())

	p, ok := store.Resolve("")
	if !ok || p.ID != DefaultID {
		t.Fatalf("empty id should resolve to %q, got %+v", DefaultID, p)
	}
	if p, ok := store.Resolve(" Theo "); !ok || p.ID != "theo" {
		t.Fatalf("lookup should ignore case and space, got %+v %v", p, ok)
	}
}

func TestMemoryStoreIgnoresDuplicates(t *testing.T) {
	store := NewMemoryStore([]Persona{{ID: "a", Name: "first"}, {ID: "a", Name: "second"}, {Name: "no id"}})

	if list := store.List(); len(list) != 1 || list[0].Name != "first" {
		t.Fatalf("unexpected personas: %+v", list)
	}
}

func TestMemoryStoreCopiesSlices(t *testing.T) {
	store := NewMemoryStore(Seed())
	p, _ := store.FindByID(DefaultID)
	p.OpeningLines[0] = "changed"

	again, _ := store.FindByID(DefaultID)
	if again.OpeningLines[0] == "changed" {
		t.Fatal("FindByID must not expose internal slices")
	}
}
