package persona

import "strings"

// Store exposes persona retrieval for HTTP handlers and the onboarding core.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	// Resolve is FindByID with an empty id meaning DefaultID.
	Resolve(id string) (Persona, bool)
}

// MemoryStore keeps personas in declaration order with an id index.
type MemoryStore struct {
	items []Persona
	index map[string]int
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// Later duplicates of an id are ignored.
func NewMemoryStore(items []Persona) *MemoryStore {
	s := &MemoryStore{
		items: make([]Persona, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.ID))
		if _, dup := s.index[key]; dup || key == "" {
			continue
		}
		s.index[key] = len(s.items)
		s.items = append(s.items, clonePersona(item))
	}
	return s
}

// List returns copies of all personas.
func (s *MemoryStore) List() []Persona {
	out := make([]Persona, len(s.items))
	for i, item := range s.items {
		out[i] = clonePersona(item)
	}
	return out
}

// FindByID looks up a persona by identifier, ignoring case and surrounding space.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	i, ok := s.index[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Persona{}, false
	}
	return clonePersona(s.items[i]), true
}

func (s *MemoryStore) Resolve(id string) (Persona, bool) {
	if strings.TrimSpace(id) == "" {
		id = DefaultID
	}
	return s.FindByID(id)
}

func clonePersona(p Persona) Persona {
	p.OpeningLines = append([]string(nil), p.OpeningLines...)
	p.Traits = append([]string(nil), p.Traits...)
	return p
}
