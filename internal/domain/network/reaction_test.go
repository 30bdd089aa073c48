package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/pkg/errors"
)

func waterNetwork(t *testing.T) (*Registry, *Reaction) {
	t.Helper()
	reg := NewRegistry()
	newSubstance(t, reg, subA, "hydrogen", "H2")
	newSubstance(t, reg, subB, "oxygen", "O2")
	newSubstance(t, reg, subC, "water", "H2O")
	r := newReaction(t, reg, 20, map[ID]int{subA: 2, subB: 1}, map[ID]int{subC: 2})
	return reg, r
}

func TestReaction_InvalidStoichiometry(t *testing.T) {
	r := NewReaction(1)
	err := r.AddSubstrate(subA, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStoichiometry))

	err = r.AddProducts(map[ID]int{subB: 1, subC: -2})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStoichiometry))
	assert.Empty(t, r.Products(), "a rejected merge changes nothing")
}

func TestReaction_Sides(t *testing.T) {
	_, r := waterNetwork(t)
	assert.Equal(t, map[ID]int{subA: 2, subB: 1}, r.Substrates())
	assert.True(t, r.HasReactant(subA))
	assert.False(t, r.HasReactant(subC))
	assert.True(t, r.HasProduct(subC))
	assert.Equal(t, []ID{subA, subB}, r.SubstrateIDs().Sorted())

	sides := r.Substrates()
	sides[subD] = 9
	assert.False(t, r.HasReactant(subD), "Substrates returns a copy")
}

func TestReaction_Directions(t *testing.T) {
	r := NewReaction(1)
	assert.False(t, r.FiresForwardIn(cellID))
	assert.False(t, r.FiresBackwardIn(cellID))

	require.NoError(t, r.SetDirection(cellID, Forward))
	require.NoError(t, r.SetDirection(nucleusID, Bidirectional))
	assert.True(t, r.FiresForwardIn(cellID))
	assert.False(t, r.FiresBackwardIn(cellID))
	assert.True(t, r.FiresForwardIn(nucleusID))
	assert.True(t, r.FiresBackwardIn(nucleusID))

	d, ok := r.Direction(nucleusID)
	assert.True(t, ok)
	assert.Equal(t, Bidirectional, d)

	r.ClearDirection(nucleusID)
	_, ok = r.Direction(nucleusID)
	assert.False(t, ok)
	assert.Equal(t, map[ID]Direction{cellID: Forward}, r.Directions())

	err := r.SetDirection(cellID, Direction(3))
	assert.True(t, errors.IsValidation(err))
}

func TestReaction_HasUnchangedSubstances(t *testing.T) {
	r := NewReaction(1)
	require.NoError(t, r.AddSubstrates(map[ID]int{subA: 1, subE: 1}))
	require.NoError(t, r.AddProducts(map[ID]int{subB: 1, subE: 2}))
	assert.False(t, r.HasUnchangedSubstances())

	require.NoError(t, r.AddProduct(subE, 1))
	assert.True(t, r.HasUnchangedSubstances())
}

func TestReaction_Balance(t *testing.T) {
	reg, r := waterNetwork(t)

	ok, err := r.IsBalanced(reg)
	require.NoError(t, err)
	assert.True(t, ok)

	imbalance, err := r.Imbalance(reg)
	require.NoError(t, err)
	assert.True(t, imbalance.IsEmpty())

	substrates, products, err := r.SideFormulas(reg)
	require.NoError(t, err)
	assert.Equal(t, "H4O2", substrates.String())
	assert.True(t, substrates.Equal(products))

	require.NoError(t, r.AddProduct(subC, 1))
	ok, err = r.IsBalanced(reg)
	require.NoError(t, err)
	assert.False(t, ok)

	imbalance, err = r.Imbalance(reg)
	require.NoError(t, err)
	assert.Equal(t, "H2O", imbalance.String())
}

func TestReaction_BalanceRequiresFormulas(t *testing.T) {
	reg, r := waterNetwork(t)
	s, err := reg.Substance(subB)
	require.NoError(t, err)
	s.ClearFormula()

	_, err = r.IsBalanced(reg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingFormula))
}

func TestReaction_BalanceDanglingSubstance(t *testing.T) {
	reg, r := waterNetwork(t)
	require.NoError(t, r.AddSubstrate(subE, 1))

	_, err := r.IsBalanced(reg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDanglingReference))
	assert.True(t, errors.IsNotFound(err))
}

func TestReaction_BalanceWrongKind(t *testing.T) {
	reg, r := waterNetwork(t)
	reg.Register(NewCompartment(subE))
	require.NoError(t, r.AddSubstrate(subE, 1))

	_, err := r.IsBalanced(reg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeComponentKind))
}
