// Package network models metabolic networks: substances carrying sum
// formulas, reactions linking substrates to products with per-compartment
// directionality, and compartments hosting reaction sets.  Cross references
// are plain IDs resolved through a Directory at use time; no domain object
// holds a pointer to another.
package network

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// ID identifies a component.  IDs are assigned externally and never reused.
type ID int

func (id ID) String() string {
	return strconv.Itoa(int(id))
}

// ParseID parses a decimal component id.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// IDSet
// ─────────────────────────────────────────────────────────────────────────────

// IDSet is an unordered set of component ids.  A nil IDSet is a valid empty
// set for reads; use NewIDSet before adding.
type IDSet map[ID]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts ids and reports how many were new.
func (s IDSet) Add(ids ...ID) int {
	added := 0
	for _, id := range ids {
		if _, ok := s[id]; !ok {
			s[id] = struct{}{}
			added++
		}
	}
	return added
}

// AddAll inserts every member of other and reports how many were new.
func (s IDSet) AddAll(other IDSet) int {
	added := 0
	for id := range other {
		if _, ok := s[id]; !ok {
			s[id] = struct{}{}
			added++
		}
	}
	return added
}

// Remove deletes ids.
func (s IDSet) Remove(ids ...ID) {
	for _, id := range ids {
		delete(s, id)
	}
}

// Has reports membership.
func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// ContainsAll reports whether every member of other is in s.  It is true for
// an empty other.
func (s IDSet) ContainsAll(other IDSet) bool {
	if len(other) > len(s) {
		return false
	}
	for id := range other {
		if _, ok := s[id]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of members.
func (s IDSet) Len() int {
	return len(s)
}

// Clone returns an independent copy.  Cloning nil yields an empty set.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns s ∪ other.
func (s IDSet) Union(other IDSet) IDSet {
	out := s.Clone()
	out.AddAll(other)
	return out
}

// Difference returns s \ other.
func (s IDSet) Difference(other IDSet) IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		if _, ok := other[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets have the same members.
func (s IDSet) Equal(other IDSet) bool {
	return len(s) == len(other) && s.ContainsAll(other)
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ints returns the members in ascending order as plain ints.
func (s IDSet) Ints() []int {
	sorted := s.Sorted()
	out := make([]int, len(sorted))
	for i, id := range sorted {
		out[i] = int(id)
	}
	return out
}

func (s IDSet) String() string {
	parts := make([]string, 0, len(s))
	for _, id := range s.Sorted() {
		parts = append(parts, id.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// MarshalJSON encodes the set as a sorted array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of ids.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []ID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
