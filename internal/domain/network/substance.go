package network

import "github.com/turtacn/MetaNet/internal/domain/formula"

// Substance is a chemical species.  It owns at most one formula.
type Substance struct {
	identity
	formula    formula.Formula
	hasFormula bool
}

// NewSubstance creates a substance without a formula.
func NewSubstance(id ID, names ...string) *Substance {
	s := &Substance{}
	s.init(id, KindSubstance, names)
	return s
}

// SetFormula assigns f, replacing any previous formula.
func (s *Substance) SetFormula(f formula.Formula) {
	s.mu.Lock()
	s.formula, s.hasFormula = f, true
	s.mu.Unlock()
}

// ClearFormula removes the formula.
func (s *Substance) ClearFormula() {
	s.mu.Lock()
	s.formula, s.hasFormula = formula.Formula{}, false
	s.mu.Unlock()
}

// Formula returns the formula and whether one is assigned.
func (s *Substance) Formula() (formula.Formula, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formula, s.hasFormula
}
