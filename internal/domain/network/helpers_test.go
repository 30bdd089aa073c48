package network

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/internal/domain/formula"
)

// Substance ids used by the fixtures.
const (
	subA ID = iota + 1
	subB
	subC
	subD
	subE
)

const (
	cellID    ID = 100
	nucleusID ID = 101
)

func newSubstance(t *testing.T, reg *Registry, id ID, name, f string) *Substance {
	t.Helper()
	s := NewSubstance(id, name)
	if f != "" {
		s.SetFormula(formula.MustParse(f))
	}
	reg.Register(s)
	return s
}

func newReaction(t *testing.T, reg *Registry, id ID, substrates, products map[ID]int) *Reaction {
	t.Helper()
	r := NewReaction(id)
	require.NoError(t, r.AddSubstrates(substrates))
	require.NoError(t, r.AddProducts(products))
	reg.Register(r)
	return r
}

// chainNetwork registers A+B -> C (reaction 10) and C -> D (reaction 11),
// both forward in the cell compartment.
func chainNetwork(t *testing.T) (*Registry, *Compartment, *Reaction, *Reaction) {
	t.Helper()
	reg := NewRegistry()
	for _, id := range []ID{subA, subB, subC, subD} {
		newSubstance(t, reg, id, "S"+id.String(), "")
	}
	r1 := newReaction(t, reg, 10, map[ID]int{subA: 1, subB: 1}, map[ID]int{subC: 1})
	r2 := newReaction(t, reg, 11, map[ID]int{subC: 1}, map[ID]int{subD: 1})
	require.NoError(t, r1.SetDirection(cellID, Forward))
	require.NoError(t, r2.SetDirection(cellID, Forward))

	cell := NewCompartment(cellID, "cell")
	cell.AddReaction(10, 11)
	reg.Register(cell)
	return reg, cell, r1, r2
}
