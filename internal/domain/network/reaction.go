package network

import (
	"fmt"

	"github.com/turtacn/MetaNet/internal/domain/formula"
	"github.com/turtacn/MetaNet/pkg/errors"
)

// Reaction converts substrates into products.  Both sides map substance ids
// to positive integer stoichiometries; the direction table says how the
// reaction fires in each compartment that hosts it.
type Reaction struct {
	identity
	substrates map[ID]int
	products   map[ID]int
	directions map[ID]Direction
}

// NewReaction creates a reaction with empty sides and no directions.
func NewReaction(id ID, names ...string) *Reaction {
	r := &Reaction{
		substrates: make(map[ID]int),
		products:   make(map[ID]int),
		directions: make(map[ID]Direction),
	}
	r.init(id, KindReaction, names)
	return r
}

func invalidStoichiometry(r ID, side string, sid ID, n int) error {
	return errors.New(errors.ErrCodeInvalidStoichiometry, "stoichiometry must be positive").
		WithDetail(fmt.Sprintf("reaction=%d %s=%d stoichiometry=%d", r, side, sid, n))
}

// AddSubstrate sets the stoichiometry of substrate sid.
func (r *Reaction) AddSubstrate(sid ID, stoichiometry int) error {
	if stoichiometry <= 0 {
		return invalidStoichiometry(r.id, "substrate", sid, stoichiometry)
	}
	r.mu.Lock()
	r.substrates[sid] = stoichiometry
	r.mu.Unlock()
	return nil
}

// AddProduct sets the stoichiometry of product pid.
func (r *Reaction) AddProduct(pid ID, stoichiometry int) error {
	if stoichiometry <= 0 {
		return invalidStoichiometry(r.id, "product", pid, stoichiometry)
	}
	r.mu.Lock()
	r.products[pid] = stoichiometry
	r.mu.Unlock()
	return nil
}

// AddSubstrates merges s into the substrate side.  Nothing is changed when any
// stoichiometry is not positive.
func (r *Reaction) AddSubstrates(s map[ID]int) error {
	return r.merge(r.substrates, s, "substrate")
}

// AddProducts merges p into the product side.
func (r *Reaction) AddProducts(p map[ID]int) error {
	return r.merge(r.products, p, "product")
}

func (r *Reaction) merge(side, add map[ID]int, name string) error {
	for id, n := range add {
		if n <= 0 {
			return invalidStoichiometry(r.id, name, id, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range add {
		side[id] = n
	}
	return nil
}

// SetDirection enables the reaction in compartment cid with mode d.
func (r *Reaction) SetDirection(cid ID, d Direction) error {
	if !d.Valid() {
		return errors.NewValidationError("direction", "unknown reaction direction").
			WithDetail(fmt.Sprintf("reaction=%d compartment=%d direction=%d", r.id, cid, int8(d)))
	}
	r.mu.Lock()
	r.directions[cid] = d
	r.mu.Unlock()
	return nil
}

// ClearDirection disables the reaction in compartment cid.
func (r *Reaction) ClearDirection(cid ID) {
	r.mu.Lock()
	delete(r.directions, cid)
	r.mu.Unlock()
}

// Direction returns the mode for cid and whether the reaction is enabled there.
func (r *Reaction) Direction(cid ID) (Direction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.directions[cid]
	return d, ok
}

// Directions returns a copy of the direction table.
func (r *Reaction) Directions() map[ID]Direction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ID]Direction, len(r.directions))
	for cid, d := range r.directions {
		out[cid] = d
	}
	return out
}

// FiresForwardIn reports whether the reaction is forward or bidirectional in cid.
func (r *Reaction) FiresForwardIn(cid ID) bool {
	d, ok := r.Direction(cid)
	return ok && d >= Bidirectional
}

// FiresBackwardIn reports whether the reaction is backward or bidirectional in cid.
func (r *Reaction) FiresBackwardIn(cid ID) bool {
	d, ok := r.Direction(cid)
	return ok && d <= Bidirectional
}

// Substrates returns a copy of the substrate side.
func (r *Reaction) Substrates() map[ID]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copySide(r.substrates)
}

// Products returns a copy of the product side.
func (r *Reaction) Products() map[ID]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copySide(r.products)
}

func copySide(side map[ID]int) map[ID]int {
	out := make(map[ID]int, len(side))
	for id, n := range side {
		out[id] = n
	}
	return out
}

// SubstrateIDs returns the substrate ids.
func (r *Reaction) SubstrateIDs() IDSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.substrates)
}

// ProductIDs returns the product ids.
func (r *Reaction) ProductIDs() IDSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.products)
}

func keys(side map[ID]int) IDSet {
	out := make(IDSet, len(side))
	for id := range side {
		out[id] = struct{}{}
	}
	return out
}

// HasReactant reports whether sid is a substrate.
func (r *Reaction) HasReactant(sid ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.substrates[sid]
	return ok
}

// HasProduct reports whether sid is a product.
func (r *Reaction) HasProduct(sid ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.products[sid]
	return ok
}

// HasUnchangedSubstances reports whether some substance appears on both sides
// with the same stoichiometry.
func (r *Reaction) HasUnchangedSubstances() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sid, consumed := range r.substrates {
		if produced, ok := r.products[sid]; ok && produced == consumed {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Balance
// ─────────────────────────────────────────────────────────────────────────────

// SideFormulas returns the stoichiometry-weighted formula sums of both sides.
// Every participant must resolve to a substance with a formula: a missing id
// fails with NET_001, a non-substance with NET_004 and a substance without a
// formula with NET_002.
func (r *Reaction) SideFormulas(dir Directory) (substrates, products formula.Formula, err error) {
	if substrates, err = r.sideSum(dir, r.Substrates()); err != nil {
		return formula.Formula{}, formula.Formula{}, err
	}
	if products, err = r.sideSum(dir, r.Products()); err != nil {
		return formula.Formula{}, formula.Formula{}, err
	}
	return substrates, products, nil
}

func (r *Reaction) sideSum(dir Directory, side map[ID]int) (formula.Formula, error) {
	var acc formula.Accumulator
	for _, sid := range keys(side).Sorted() {
		s, err := LookupSubstance(dir, sid)
		if err != nil {
			return formula.Formula{}, errors.Wrap(err, errors.CodeUnknown,
				fmt.Sprintf("reaction %d references substance %d", r.id, sid))
		}
		f, ok := s.Formula()
		if !ok {
			return formula.Formula{}, errors.New(errors.ErrCodeMissingFormula, "substance has no formula").
				WithDetail(fmt.Sprintf("reaction=%d substance=%d", r.id, sid))
		}
		if err := acc.AddScaled(f, float64(side[sid])); err != nil {
			return formula.Formula{}, err
		}
	}
	return acc.Formula(), nil
}

// IsBalanced reports whether both sides carry the same element counts.
func (r *Reaction) IsBalanced(dir Directory) (bool, error) {
	substrates, products, err := r.SideFormulas(dir)
	if err != nil {
		return false, err
	}
	return substrates.Equal(products), nil
}

// Imbalance returns the per-element absolute difference between both sides;
// it is empty exactly when the reaction is balanced.
func (r *Reaction) Imbalance(dir Directory) (formula.Formula, error) {
	substrates, products, err := r.SideFormulas(dir)
	if err != nil {
		return formula.Formula{}, err
	}
	return substrates.StoichiometricDifference(products), nil
}
