package network

import (
	"fmt"
	"strings"

	"github.com/turtacn/MetaNet/pkg/errors"
)

// Compartment hosts a reaction set and may contain other compartments.
// Containment should be acyclic; traversals report a cycle with NET_003.
type Compartment struct {
	identity

	// contained is nil when containment is unknown, which differs from empty.
	contained IDSet
	reactions *ReactionSet
	enzymes   IDSet

	utilized memo[IDSet]
}

// NewCompartment creates a compartment with no reactions and unknown
// containment.
func NewCompartment(id ID, names ...string) *Compartment {
	c := &Compartment{reactions: NewReactionSet(), enzymes: make(IDSet)}
	c.init(id, KindCompartment, names)
	return c
}

// invalidate drops every derived value.  Mutators of the reaction set or the
// enzyme list call it.
func (c *Compartment) invalidate() {
	c.utilized.invalidate()
}

// AddContainedCompartment records that cid lies inside c.
func (c *Compartment) AddContainedCompartment(cid ID) {
	c.AddContainedCompartments(cid)
}

// AddContainedCompartments records that every id lies inside c.  Calling it
// with no ids marks containment as known and empty.
func (c *Compartment) AddContainedCompartments(ids ...ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contained == nil {
		c.contained = make(IDSet, len(ids))
	}
	c.contained.Add(ids...)
}

// ContainmentKnown reports whether containment was ever recorded.
func (c *Compartment) ContainmentKnown() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contained != nil
}

// DirectlyContained returns the directly contained ids, or nil when
// containment is unknown.
func (c *Compartment) DirectlyContained() IDSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.contained == nil {
		return nil
	}
	return c.contained.Clone()
}

// ContainedCompartments returns the directly contained ids, or, when
// recursive, every compartment reachable through containment.  The result is
// nil when containment is unknown.  A recursive walk fails with NET_003 on a
// cycle, NET_001 on a missing id and NET_004 on a non-compartment.
func (c *Compartment) ContainedCompartments(dir Directory, recursive bool) (IDSet, error) {
	direct := c.DirectlyContained()
	if !recursive || direct == nil {
		return direct, nil
	}
	out := make(IDSet)
	path := []ID{c.id}
	if err := collectContained(dir, direct, out, path); err != nil {
		return nil, err
	}
	return out, nil
}

// collectContained walks depth-first; path holds the ids on the current
// branch so a revisit along it is a cycle.
func collectContained(dir Directory, direct IDSet, out IDSet, path []ID) error {
	for _, cid := range direct.Sorted() {
		for _, onPath := range path {
			if onPath == cid {
				return containmentCycle(append(path, cid))
			}
		}
		child, err := LookupCompartment(dir, cid)
		if err != nil {
			return err
		}
		out.Add(cid)
		if nested := child.DirectlyContained(); len(nested) > 0 {
			if err := collectContained(dir, nested, out, append(path, cid)); err != nil {
				return err
			}
		}
	}
	return nil
}

func containmentCycle(path []ID) error {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id.String()
	}
	return errors.New(errors.ErrCodeContainmentCycle, "compartment containment cycle").
		WithDetail("path=" + strings.Join(parts, "->"))
}

// CompartmentLister enumerates every registered compartment.
type CompartmentLister interface {
	Compartments() []*Compartment
}

// ContainingCompartments returns the ids of compartments that directly
// contain c.
func (c *Compartment) ContainingCompartments(all CompartmentLister) IDSet {
	out := make(IDSet)
	for _, other := range all.Compartments() {
		if other.id == c.id {
			continue
		}
		other.mu.RLock()
		if other.contained.Has(c.id) {
			out.Add(other.id)
		}
		other.mu.RUnlock()
	}
	return out
}

// Reactions returns a copy of the hosted reaction set.
func (c *Compartment) Reactions() *ReactionSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reactions.Clone()
}

// AddReactions merges rs into the hosted set.
func (c *Compartment) AddReactions(rs *ReactionSet) {
	if rs == nil {
		return
	}
	c.mu.Lock()
	c.reactions.AddAll(rs)
	c.mu.Unlock()
	c.invalidate()
}

// AddReaction hosts the given reaction ids.
func (c *Compartment) AddReaction(ids ...ID) {
	c.AddReactions(NewReactionSet(ids...))
}

// Enzymes returns the ids of enzymes present in the compartment.
func (c *Compartment) Enzymes() IDSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enzymes.Clone()
}

// AddEnzymes records enzyme ids.
func (c *Compartment) AddEnzymes(ids ...ID) {
	c.mu.Lock()
	c.enzymes.Add(ids...)
	c.mu.Unlock()
	c.invalidate()
}

// UtilizedSubstances returns every substrate and product id over the hosted
// reactions.  The result is computed on first use and cached until the
// reaction set or enzyme list changes.
func (c *Compartment) UtilizedSubstances(dir Directory) (IDSet, error) {
	set, err := c.utilized.get(func() (IDSet, error) {
		set, err := c.Reactions().UtilizedSubstances(dir)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown,
				fmt.Sprintf("compartment %d: cannot resolve hosted reactions", c.id))
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return set.Clone(), nil
}

// ProductsOf computes the closure of seed over the hosted reactions.
func (c *Compartment) ProductsOf(e *ClosureEngine, seed IDSet) (ClosureResult, error) {
	return e.Closure(seed, c.Reactions(), c)
}
