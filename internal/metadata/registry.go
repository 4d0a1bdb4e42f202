package metadata

import (
	"fmt"
	"sort"

	"github.com/roach88/docdal/internal/daoerr"
)

// Registry holds entity metadata by name.
//
// It is populated once by NewRegistry and read-only afterwards, so lookups
// need no locking.
type Registry struct {
	entities map[string]*Entity
	names    []string
}

// NewRegistry validates entities and indexes them by name.
func NewRegistry(entities ...*Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		r.entities[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the entity registered under name.
func (r *Registry) Lookup(name string) (*Entity, error) {
	if e, ok := r.entities[name]; ok {
		return e, nil
	}
	return nil, daoerr.UnresolvedEntityType(name, "entity is not registered")
}

// Names returns the registered entity names, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.names)
}
