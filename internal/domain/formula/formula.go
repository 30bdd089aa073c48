// Package formula implements chemical sum formulas for MetaNet: a
// recursive-descent parser for free-form formula text, the immutable Formula
// value type with its arithmetic, an in-place Accumulator, canonical and LaTeX
// renderers, and a random generator that emits grammar-conforming text.
//
// A Formula is a multiset of element symbols with non-negative real counts.
// Counts of zero are never stored, so two formulas are equal exactly when
// their element maps are equal.
package formula

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/MetaNet/pkg/errors"
)

// symbolPattern matches the element symbols a parse can produce.
var symbolPattern = regexp.MustCompile(`^[A-Z][a-z]?$`)

// ─────────────────────────────────────────────────────────────────────────────
// Formula value type
// ─────────────────────────────────────────────────────────────────────────────

// Formula is an immutable element→count multiset.  The zero value is the empty
// formula.  All operations return new values and never modify the receiver.
type Formula struct {
	atoms     map[string]float64
	canonical string
}

// Empty returns the formula with no elements.
func Empty() Formula {
	return Formula{}
}

// FromCounts builds a Formula from an explicit element map.  Symbols must be
// an uppercase letter optionally followed by one lowercase letter; counts must
// be finite and non-negative.  Zero counts are dropped.
func FromCounts(counts map[string]float64) (Formula, error) {
	atoms := make(map[string]float64, len(counts))
	for sym, n := range counts {
		if !symbolPattern.MatchString(sym) {
			return Formula{}, errors.NewValidationError("symbol", "invalid element symbol").
				WithDetail("symbol=" + strconv.Quote(sym))
		}
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return Formula{}, errors.New(errors.ErrCodeFormulaArithmetic, "element count must be finite and non-negative").
				WithDetail(sym + "=" + formatCount(n))
		}
		if n > 0 {
			atoms[sym] = n
		}
	}
	return build(atoms), nil
}

// build takes ownership of atoms, drops zero entries and renders the
// canonical string.
func build(atoms map[string]float64) Formula {
	for sym, n := range atoms {
		if n == 0 {
			delete(atoms, sym)
		}
	}
	if len(atoms) == 0 {
		return Formula{}
	}
	f := Formula{atoms: atoms}
	f.canonical = renderCanonical(f)
	return f
}

// String returns the canonical form: symbols in lexicographic order, each
// followed by its count, with a count of exactly 1 omitted.
func (f Formula) String() string {
	return f.canonical
}

// IsEmpty reports whether f contains no elements.
func (f Formula) IsEmpty() bool {
	return len(f.atoms) == 0
}

// Len returns the number of distinct elements.
func (f Formula) Len() int {
	return len(f.atoms)
}

// Count returns the count of symbol, or 0 when absent.
func (f Formula) Count(symbol string) float64 {
	return f.atoms[symbol]
}

// Has reports whether symbol occurs in f.
func (f Formula) Has(symbol string) bool {
	_, ok := f.atoms[symbol]
	return ok
}

// Elements returns the element symbols in canonical order.
func (f Formula) Elements() []string {
	out := make([]string, 0, len(f.atoms))
	for sym := range f.atoms {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Atoms returns a copy of the element map.
func (f Formula) Atoms() map[string]float64 {
	out := make(map[string]float64, len(f.atoms))
	for sym, n := range f.atoms {
		out[sym] = n
	}
	return out
}

// Equal compares element maps with exact numeric equality.
func (f Formula) Equal(other Formula) bool {
	if len(f.atoms) != len(other.atoms) {
		return false
	}
	for sym, n := range f.atoms {
		m, ok := other.atoms[sym]
		if !ok || m != n {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Arithmetic
// ─────────────────────────────────────────────────────────────────────────────

// Add returns f + other.
func (f Formula) Add(other Formula) Formula {
	return Unite(f, other)
}

// Unite returns the element-wise sum of its arguments.  It is commutative and
// associative; Unite() is the empty formula.
func Unite(formulas ...Formula) Formula {
	atoms := make(map[string]float64)
	for _, g := range formulas {
		for sym, n := range g.atoms {
			atoms[sym] += n
		}
	}
	return build(atoms)
}

// Subtract returns f - other.  It fails with FRM_002 when other names an
// element f lacks, or when any count would become negative.
func (f Formula) Subtract(other Formula) (Formula, error) {
	atoms := f.Atoms()
	if err := subtractInto(atoms, other, f.canonical); err != nil {
		return Formula{}, err
	}
	return build(atoms), nil
}

// subtractInto removes other from atoms in place.  On failure atoms is left
// partially updated.
func subtractInto(atoms map[string]float64, other Formula, receiver string) error {
	for _, sym := range other.Elements() {
		have, ok := atoms[sym]
		if !ok {
			return errors.New(errors.ErrCodeFormulaArithmetic, "cannot subtract absent element").
				WithDetail("element=" + sym + " receiver=" + receiver)
		}
		rest := have - other.atoms[sym]
		if rest < 0 {
			return errors.New(errors.ErrCodeFormulaArithmetic, "subtraction underflow").
				WithDetail("element=" + sym + " have=" + formatCount(have) + " remove=" + formatCount(other.atoms[sym]))
		}
		atoms[sym] = rest
	}
	return nil
}

// Multiply scales every count by k.  A negative, NaN or infinite factor fails
// with FRM_002; a zero factor yields the empty formula.
func (f Formula) Multiply(k float64) (Formula, error) {
	if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
		return Formula{}, errors.New(errors.ErrCodeFormulaArithmetic, "scale factor must be finite and non-negative").
			WithDetail("factor=" + formatCount(k))
	}
	return f.scale(k), nil
}

func (f Formula) scale(k float64) Formula {
	atoms := make(map[string]float64, len(f.atoms))
	for sym, n := range f.atoms {
		atoms[sym] = n * k
	}
	return build(atoms)
}

// StoichiometricDifference returns |f - other| per element over the union of
// both element sets, omitting elements whose counts agree.
func (f Formula) StoichiometricDifference(other Formula) Formula {
	atoms := make(map[string]float64)
	for sym, n := range f.atoms {
		atoms[sym] = math.Abs(n - other.atoms[sym])
	}
	for sym, n := range other.atoms {
		if _, seen := f.atoms[sym]; !seen {
			atoms[sym] = n
		}
	}
	return build(atoms)
}

// ElementDifference returns f + other with every element of other removed,
// leaving only the elements unique to f.
func (f Formula) ElementDifference(other Formula) Formula {
	sum := Unite(f, other).Atoms()
	for sym := range other.atoms {
		delete(sum, sym)
	}
	return build(sum)
}

// ─────────────────────────────────────────────────────────────────────────────
// Text interchange
// ─────────────────────────────────────────────────────────────────────────────

// MarshalText emits the canonical form.
func (f Formula) MarshalText() ([]byte, error) {
	return []byte(f.canonical), nil
}

// UnmarshalText parses text with the default options.
func (f *Formula) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// formatCount renders a count with the shortest representation that parses
// back to the same float64.
func formatCount(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func renderCanonical(f Formula) string {
	var sb strings.Builder
	for _, sym := range f.Elements() {
		sb.WriteString(sym)
		if n := f.atoms[sym]; n != 1 {
			sb.WriteString(formatCount(n))
		}
	}
	return sb.String()
}
