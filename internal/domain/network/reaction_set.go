package network

import "fmt"

// ReactionSet is a set of reaction ids.  The reactions themselves are
// resolved through a Directory.  A ReactionSet is not safe for concurrent
// mutation.
type ReactionSet struct {
	ids IDSet
}

// NewReactionSet returns a set holding ids.
func NewReactionSet(ids ...ID) *ReactionSet {
	return &ReactionSet{ids: NewIDSet(ids...)}
}

func (rs *ReactionSet) ensure() {
	if rs.ids == nil {
		rs.ids = make(IDSet)
	}
}

// Add inserts reaction ids.
func (rs *ReactionSet) Add(ids ...ID) {
	rs.ensure()
	rs.ids.Add(ids...)
}

// AddAll inserts every id of other.
func (rs *ReactionSet) AddAll(other *ReactionSet) {
	if other == nil {
		return
	}
	rs.ensure()
	rs.ids.AddAll(other.ids)
}

// RemoveAll deletes every id of other.
func (rs *ReactionSet) RemoveAll(other *ReactionSet) {
	if other == nil {
		return
	}
	for id := range other.ids {
		delete(rs.ids, id)
	}
}

// Contains reports membership.
func (rs *ReactionSet) Contains(id ID) bool {
	return rs != nil && rs.ids.Has(id)
}

// Len returns the number of reactions.
func (rs *ReactionSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.ids)
}

// IDs returns the reaction ids in ascending order.
func (rs *ReactionSet) IDs() []ID {
	if rs == nil {
		return nil
	}
	return rs.ids.Sorted()
}

// Clone returns an independent copy.
func (rs *ReactionSet) Clone() *ReactionSet {
	if rs == nil {
		return NewReactionSet()
	}
	return &ReactionSet{ids: rs.ids.Clone()}
}

// Union returns rs ∪ other as a new set.
func (rs *ReactionSet) Union(other *ReactionSet) *ReactionSet {
	out := rs.Clone()
	out.AddAll(other)
	return out
}

// Difference returns rs \ other as a new set.
func (rs *ReactionSet) Difference(other *ReactionSet) *ReactionSet {
	out := rs.Clone()
	out.RemoveAll(other)
	return out
}

// Reactions resolves every id in ascending order.  A missing id fails with
// NET_001 and a non-reaction with NET_004.
func (rs *ReactionSet) Reactions(dir Directory) ([]*Reaction, error) {
	ids := rs.IDs()
	out := make([]*Reaction, 0, len(ids))
	for _, id := range ids {
		r, err := LookupReaction(dir, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// UtilizedSubstances returns every substrate and product id of every reaction.
func (rs *ReactionSet) UtilizedSubstances(dir Directory) (IDSet, error) {
	reactions, err := rs.Reactions(dir)
	if err != nil {
		return nil, err
	}
	out := make(IDSet)
	for _, r := range reactions {
		out.AddAll(r.SubstrateIDs())
		out.AddAll(r.ProductIDs())
	}
	return out, nil
}

func (rs *ReactionSet) String() string {
	if rs == nil {
		return "[]"
	}
	return fmt.Sprint(rs.ids)
}
