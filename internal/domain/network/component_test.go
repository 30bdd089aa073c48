package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponent_DefaultNames(t *testing.T) {
	cases := []struct {
		c    Component
		want string
	}{
		{NewSubstance(1), "unnamed substance"},
		{NewReaction(2), "unnamed reaction"},
		{NewCompartment(3), "unnamed compartment"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.c.MainName())
			assert.Equal(t, []string{tc.want}, tc.c.Names())
		})
	}
}

func TestComponent_MainNamePrefersShortest(t *testing.T) {
	s := NewSubstance(7, "dihydrogen monoxide", "water", "H2O")
	assert.Equal(t, "H2O", s.MainName())

	s.AddName("aq")
	assert.Equal(t, "aq", s.MainName(), "adding a name invalidates the cached main name")

	s.SetMainName("water")
	assert.Equal(t, "water", s.MainName())
	assert.Equal(t, []string{"H2O", "aq", "dihydrogen monoxide", "water"}, s.Names())
}

func TestComponent_MainNameTieBreaksLexicographically(t *testing.T) {
	s := NewSubstance(1, "bb", "ab", "ba")
	assert.Equal(t, "ab", s.MainName())
}

func TestComponent_URNs(t *testing.T) {
	r := NewReaction(5, "hexokinase")
	r.AddURN("urn:miriam:kegg.reaction:R00299", "", "urn:miriam:kegg.reaction:R00299", "urn:miriam:ec-code:2.7.1.1")
	assert.Equal(t, []string{"urn:miriam:kegg.reaction:R00299", "urn:miriam:ec-code:2.7.1.1"}, r.URNs())
}

func TestComponent_String(t *testing.T) {
	assert.Equal(t, "Substance 12 (water)", NewSubstance(12, "water").String())
	assert.Equal(t, "Compartment 3 (unnamed compartment)", NewCompartment(3).String())
	assert.Equal(t, KindReaction, NewReaction(1).Kind())
	assert.Equal(t, "4", NewReaction(4).IDString())
}

func TestDirection_Parse(t *testing.T) {
	for in, want := range map[string]Direction{
		"forward": Forward, "Backward": Backward, "both": Bidirectional,
		"bidirectional": Bidirectional, "1": Forward, "-1": Backward, "0": Bidirectional,
	} {
		got, err := ParseDirection(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDirection("sideways")
	assert.Error(t, err)

	var d Direction
	assert.NoError(t, d.UnmarshalText([]byte("backward")))
	text, err := d.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "backward", string(text))

	_, err = Direction(5).MarshalText()
	assert.Error(t, err)
}

func TestComponent_AssignedNamesAndPin(t *testing.T) {
	s := NewSubstance(4)
	assert.Empty(t, s.AssignedNames())
	assert.Equal(t, "", s.PinnedName())

	s.AddName("glucose", "Glc")
	assert.Equal(t, []string{"Glc", "glucose"}, s.AssignedNames())
	assert.Equal(t, "", s.PinnedName())

	s.SetMainName("glucose")
	assert.Equal(t, "glucose", s.PinnedName())
}
