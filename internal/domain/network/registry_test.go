package network

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/pkg/errors"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	water := NewSubstance(1, "water")
	reg.Register(water)

	c, err := reg.Lookup(1)
	require.NoError(t, err)
	assert.Same(t, water, c)

	_, err = reg.Lookup(2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDanglingReference))
	assert.Contains(t, err.Error(), "id=2")
}

func TestRegistry_TypedLookups(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAll(NewSubstance(1), NewReaction(2), NewCompartment(3))

	s, err := reg.Substance(1)
	require.NoError(t, err)
	assert.Equal(t, ID(1), s.ID())

	_, err = reg.Reaction(1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeComponentKind))
	assert.Contains(t, err.Error(), "want=Reaction got=Substance")

	_, err = reg.Compartment(2)
	assert.True(t, errors.IsCode(err, errors.ErrCodeComponentKind))

	c, err := reg.Compartment(3)
	require.NoError(t, err)
	assert.Equal(t, KindCompartment, c.Kind())

	_, err = LookupReaction(reg, 9)
	assert.True(t, errors.IsNotFound(err))
}

func TestRegistry_Listings(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAll(NewSubstance(5), NewSubstance(2), NewReaction(7), NewCompartment(9), NewCompartment(1))

	assert.Equal(t, 5, reg.Len())
	ids := func(cs []*Compartment) []ID {
		out := make([]ID, len(cs))
		for i, c := range cs {
			out[i] = c.ID()
		}
		return out
	}
	assert.Equal(t, []ID{1, 9}, ids(reg.Compartments()))
	require.Len(t, reg.Substances(), 2)
	assert.Equal(t, ID(2), reg.Substances()[0].ID())
	require.Len(t, reg.Reactions(), 1)
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 50; i++ {
		reg.Register(NewSubstance(ID(i)))
	}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := reg.Substance(ID(i))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func TestVerify(t *testing.T) {
	reg, cell, r1, _ := chainNetwork(t)
	require.NoError(t, Verify(reg))

	require.NoError(t, r1.SetDirection(nucleusID, Forward))
	err := Verify(reg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDanglingReference))

	r1.ClearDirection(nucleusID)
	cell.AddContainedCompartment(cellID)
	err = Verify(reg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeContainmentCycle))
}
