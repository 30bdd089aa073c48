package network

import (
	"fmt"
	"sort"
	"sync"
)

// Kind tells the component variants apart.
type Kind int

const (
	KindSubstance Kind = iota + 1
	KindReaction
	KindCompartment
)

func (k Kind) String() string {
	switch k {
	case KindSubstance:
		return "Substance"
	case KindReaction:
		return "Reaction"
	case KindCompartment:
		return "Compartment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// defaultName is substituted when a component has no names.
func (k Kind) defaultName() string {
	switch k {
	case KindSubstance:
		return "unnamed substance"
	case KindReaction:
		return "unnamed reaction"
	case KindCompartment:
		return "unnamed compartment"
	default:
		return "unnamed component"
	}
}

// Component is the identity shared by substances, reactions and compartments.
type Component interface {
	ID() ID
	Kind() Kind
	Names() []string
	MainName() string
	URNs() []string
	String() string
}

// identity carries the fields every component has.  Names and URNs may be
// appended after construction; the id never changes.
type identity struct {
	id   ID
	kind Kind

	mu       sync.RWMutex
	names    map[string]struct{}
	explicit string
	urns     []string

	mainName memo[string]
}

// init must run once, before the component is shared.
func (c *identity) init(id ID, kind Kind, names []string) {
	c.id, c.kind = id, kind
	c.names = make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			c.names[n] = struct{}{}
		}
	}
}

func (c *identity) ID() ID { return c.id }

func (c *identity) Kind() Kind { return c.kind }

// IDString returns the id in decimal.
func (c *identity) IDString() string { return c.id.String() }

// Names returns the names in lexicographic order, or the kind's default name
// when none has been added.
func (c *identity) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.names) == 0 {
		return []string{c.kind.defaultName()}
	}
	return c.sortedNamesLocked()
}

// AssignedNames returns only the names added to the component, which may be
// none.
func (c *identity) AssignedNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedNamesLocked()
}

// PinnedName returns the name set by SetMainName, or "".
func (c *identity) PinnedName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.explicit
}

func (c *identity) sortedNamesLocked() []string {
	out := make([]string, 0, len(c.names))
	for n := range c.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddName appends names.  Empty strings are ignored.
func (c *identity) AddName(names ...string) {
	c.mu.Lock()
	for _, n := range names {
		if n != "" {
			c.names[n] = struct{}{}
		}
	}
	c.mu.Unlock()
	c.mainName.invalidate()
}

// SetMainName pins the preferred name and adds it to the name set.
func (c *identity) SetMainName(name string) {
	if name == "" {
		return
	}
	c.mu.Lock()
	c.explicit = name
	c.names[name] = struct{}{}
	c.mu.Unlock()
	c.mainName.invalidate()
}

// MainName returns the pinned name, else the shortest name (the
// lexicographically first among equally short ones), else the default name.
func (c *identity) MainName() string {
	name, _ := c.mainName.get(func() (string, error) {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.explicit != "" {
			return c.explicit, nil
		}
		shortest := ""
		for _, n := range c.sortedNamesLocked() {
			if shortest == "" || len(n) < len(shortest) {
				shortest = n
			}
		}
		if shortest == "" {
			return c.kind.defaultName(), nil
		}
		return shortest, nil
	})
	return name
}

// URNs returns the external reference identifiers in insertion order.
func (c *identity) URNs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.urns...)
}

// AddURN appends external reference identifiers, skipping duplicates.
func (c *identity) AddURN(urns ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range urns {
		if u == "" || containsString(c.urns, u) {
			continue
		}
		c.urns = append(c.urns, u)
	}
}

// String renders "Substance 12 (water)".
func (c *identity) String() string {
	return fmt.Sprintf("%s %d (%s)", c.kind, c.id, c.MainName())
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
