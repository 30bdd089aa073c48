package formula

import "github.com/turtacn/MetaNet/pkg/errors"

// Accumulator sums formulas in place.  It is the only mutable formula type and
// is not safe for concurrent use.
type Accumulator struct {
	atoms map[string]float64
}

// NewAccumulator starts an accumulator holding seed.
func NewAccumulator(seed Formula) *Accumulator {
	return &Accumulator{atoms: seed.Atoms()}
}

// Add sums f into the accumulator.
func (a *Accumulator) Add(f Formula) {
	if a.atoms == nil {
		a.atoms = make(map[string]float64, len(f.atoms))
	}
	for sym, n := range f.atoms {
		a.atoms[sym] += n
	}
}

// AddScaled sums k·f into the accumulator.  k must be finite and non-negative.
func (a *Accumulator) AddScaled(f Formula, k float64) error {
	scaled, err := f.Multiply(k)
	if err != nil {
		return err
	}
	a.Add(scaled)
	return nil
}

// Subtract removes f from the accumulator.  It fails with FRM_002 when f names
// an element the accumulator lacks or drives a count negative; after a failure
// the accumulator contents are undefined and it should be discarded.
func (a *Accumulator) Subtract(f Formula) error {
	if a.atoms == nil {
		a.atoms = make(map[string]float64)
	}
	if err := subtractInto(a.atoms, f, renderCanonical(Formula{atoms: a.atoms})); err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "accumulator subtract failed")
	}
	for sym, n := range a.atoms {
		if n == 0 {
			delete(a.atoms, sym)
		}
	}
	return nil
}

// Formula snapshots the current contents.
func (a *Accumulator) Formula() Formula {
	return build(Formula{atoms: a.atoms}.Atoms())
}

// String renders the current contents in canonical form.
func (a *Accumulator) String() string {
	return a.Formula().String()
}
