package network

import (
	"fmt"
	"sort"
	"sync"

	"github.com/turtacn/MetaNet/pkg/errors"
)

// Directory resolves component ids.  Lookup fails with NET_001 for an id that
// was never registered.
type Directory interface {
	Lookup(id ID) (Component, error)
}

// Registry is the in-memory Directory.  It is safe for concurrent use;
// registration is expected to finish before closures are computed.
type Registry struct {
	mu         sync.RWMutex
	components map[ID]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[ID]Component)}
}

// Register stores c under c.ID().  Registering an id twice replaces the
// earlier component; callers must not rely on it.
func (r *Registry) Register(c Component) {
	r.mu.Lock()
	r.components[c.ID()] = c
	r.mu.Unlock()
}

// RegisterAll stores every component.
func (r *Registry) RegisterAll(cs ...Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cs {
		r.components[c.ID()] = c
	}
}

// Lookup implements Directory.
func (r *Registry) Lookup(id ID) (Component, error) {
	r.mu.RLock()
	c, ok := r.components[id]
	r.mu.RUnlock()
	if !ok {
		return nil, danglingReference(id)
	}
	return c, nil
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

// Substance, Reaction and Compartment are typed lookups.

func (r *Registry) Substance(id ID) (*Substance, error) { return LookupSubstance(r, id) }

func (r *Registry) Reaction(id ID) (*Reaction, error) { return LookupReaction(r, id) }

func (r *Registry) Compartment(id ID) (*Compartment, error) { return LookupCompartment(r, id) }

// Substances returns every registered substance ordered by id.
func (r *Registry) Substances() []*Substance { return collect[*Substance](r) }

// Reactions returns every registered reaction ordered by id.
func (r *Registry) Reactions() []*Reaction { return collect[*Reaction](r) }

// Compartments returns every registered compartment ordered by id.
func (r *Registry) Compartments() []*Compartment { return collect[*Compartment](r) }

func collect[T Component](r *Registry) []T {
	r.mu.RLock()
	out := make([]T, 0, len(r.components))
	for _, c := range r.components {
		if t, ok := c.(T); ok {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Typed lookups over any Directory
// ─────────────────────────────────────────────────────────────────────────────

func danglingReference(id ID) error {
	return errors.New(errors.ErrCodeDanglingReference, "component is not registered").
		WithDetail(fmt.Sprintf("id=%d", id))
}

func lookupAs[T Component](dir Directory, id ID, want Kind) (T, error) {
	var zero T
	c, err := dir.Lookup(id)
	if err != nil {
		return zero, err
	}
	if c == nil {
		return zero, danglingReference(id)
	}
	t, ok := c.(T)
	if !ok {
		return zero, errors.New(errors.ErrCodeComponentKind, "component has unexpected kind").
			WithDetail(fmt.Sprintf("id=%d want=%s got=%s", id, want, c.Kind()))
	}
	return t, nil
}

// LookupSubstance resolves id to a Substance.
func LookupSubstance(dir Directory, id ID) (*Substance, error) {
	return lookupAs[*Substance](dir, id, KindSubstance)
}

// LookupReaction resolves id to a Reaction.
func LookupReaction(dir Directory, id ID) (*Reaction, error) {
	return lookupAs[*Reaction](dir, id, KindReaction)
}

// LookupCompartment resolves id to a Compartment.
func LookupCompartment(dir Directory, id ID) (*Compartment, error) {
	return lookupAs[*Compartment](dir, id, KindCompartment)
}
