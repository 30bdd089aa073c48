package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/MetaNet/pkg/errors"
)

// DefaultVariableReplacement is the value a placeholder such as "n" stands for.
const DefaultVariableReplacement = 5.0

var (
	// "(C6H10O5)mon" and "(...)mod" annotate a group without changing counts.
	groupAnnotation = regexp.MustCompile(`\)mo[nd]([^a-z]|$)`)
	// Charge markers such as "^2-" or "^+".
	chargeMarker = regexp.MustCompile(`\^\d*[+-]`)
)

// Options tunes the parser.
type Options struct {
	// VariableReplacement is substituted for every placeholder before its
	// optional +N/-N adjustment is applied.
	VariableReplacement float64
}

// DefaultOptions returns Options with VariableReplacement = 5.
func DefaultOptions() Options {
	return Options{VariableReplacement: DefaultVariableReplacement}
}

// SyntaxError reports where parsing stopped.  Input is the text after
// annotation stripping; Offset indexes into it.
type SyntaxError struct {
	Input    string
	Offset   int
	Expected string
}

func (e *SyntaxError) Error() string {
	if e.Offset >= len(e.Input) {
		return fmt.Sprintf("formula: expected %s at end of %q", e.Expected, e.Input)
	}
	return fmt.Sprintf("formula: expected %s at offset %d of %q, remainder %q",
		e.Expected, e.Offset, e.Input, e.Remainder())
}

// Remainder returns the unconsumed input.
func (e *SyntaxError) Remainder() string {
	if e.Offset >= len(e.Input) {
		return ""
	}
	return e.Input[e.Offset:]
}

// Parser turns formula text into Formula values.  It holds no mutable state
// and may be shared between goroutines.
type Parser struct {
	opts Options
}

// NewParser returns a Parser using opts.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

var defaultParser = NewParser(DefaultOptions())

// Parse parses text with the default options.
func Parse(text string) (Formula, error) {
	return defaultParser.Parse(text)
}

// MustParse is Parse that panics on error.  For fixtures and tests.
func MustParse(text string) Formula {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

// Options returns the options the parser was built with.
func (p *Parser) Options() Options {
	return p.opts
}

// Parse accepts
//
//	formula   := molecule (separator molecule)*
//	molecule  := count? group+
//	group     := atoms | '(' group ((separator molecule) | group)* ')' count?
//	atoms     := (symbol (',' symbol)* number?)+
//	count     := number | placeholder
//	number    := digits ('.' digits)?
//	placeholder := lower+ digits? (('+' | '-') number)?
//	separator := ' '+ | ' '* '.' ' '*
//
// An empty or all-blank text yields the empty formula.  A failure is an
// *errors.AppError with code FRM_001 wrapping a *SyntaxError.
func (p *Parser) Parse(text string) (Formula, error) {
	src := strings.TrimSpace(stripAnnotations(text))
	if src == "" {
		return Formula{}, nil
	}
	c := &cursor{src: src, replacement: p.opts.VariableReplacement}
	atoms, err := c.formula()
	if err != nil {
		return Formula{}, errors.Wrap(err, errors.ErrCodeMalformedFormula, "malformed sum formula").
			WithDetail(err.Error())
	}
	return build(atoms), nil
}

func stripAnnotations(text string) string {
	// A match consumes the byte after the annotation, so an adjacent ")mon"
	// only surfaces on the next pass.
	for {
		next := groupAnnotation.ReplaceAllString(text, ")$1")
		if next == text {
			break
		}
		text = next
	}
	return chargeMarker.ReplaceAllString(text, "")
}

// ─────────────────────────────────────────────────────────────────────────────
// cursor
// ─────────────────────────────────────────────────────────────────────────────

type counts = map[string]float64

type cursor struct {
	src         string
	pos         int
	replacement float64
}

func (c *cursor) eof() bool { return c.pos >= len(c.src) }

// peek returns the current byte, or 0 at end of input.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) peekAt(offset int) byte {
	if c.pos+offset >= len(c.src) {
		return 0
	}
	return c.src[c.pos+offset]
}

func (c *cursor) fail(expected string) error {
	return &SyntaxError{Input: c.src, Offset: c.pos, Expected: expected}
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func unite(into, from counts) {
	for sym, n := range from {
		into[sym] += n
	}
}

func multiply(atoms counts, k float64) {
	for sym := range atoms {
		atoms[sym] *= k
	}
}

func (c *cursor) formula() (counts, error) {
	atoms, err := c.molecule()
	if err != nil {
		return nil, err
	}
	for !c.eof() {
		if err := c.separator(); err != nil {
			return nil, err
		}
		next, err := c.molecule()
		if err != nil {
			return nil, err
		}
		unite(atoms, next)
	}
	return atoms, nil
}

// separator consumes blanks, a '.' with optional blanks around it, or both.
func (c *cursor) separator() error {
	start := c.pos
	c.skipBlanks()
	if c.peek() == '.' {
		c.pos++
		c.skipBlanks()
		return nil
	}
	if c.pos == start {
		return c.fail("separator ' ' or '.'")
	}
	return nil
}

func (c *cursor) skipBlanks() {
	for c.peek() == ' ' {
		c.pos++
	}
}

func (c *cursor) molecule() (counts, error) {
	factor, hasFactor, err := c.count()
	if err != nil {
		return nil, err
	}
	atoms, err := c.group()
	if err != nil {
		return nil, err
	}
	if atoms == nil {
		return nil, c.fail("element symbol or '('")
	}
	for {
		next, err := c.group()
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		unite(atoms, next)
	}
	if hasFactor {
		multiply(atoms, factor)
	}
	return atoms, nil
}

// group returns nil without error when no group starts at the cursor.
func (c *cursor) group() (counts, error) {
	switch b := c.peek(); {
	case b == '(':
		return c.parenGroup()
	case isUpper(b):
		return c.atomGroup()
	default:
		return nil, nil
	}
}

func (c *cursor) parenGroup() (counts, error) {
	c.pos++ // '('
	sum, err := c.group()
	if err != nil {
		return nil, err
	}
	if sum == nil {
		return nil, c.fail("element symbol or '('")
	}
	for c.peek() != ')' {
		if c.eof() {
			return nil, c.fail("')'")
		}
		var next counts
		if b := c.peek(); b == ' ' || b == '.' {
			if err := c.separator(); err != nil {
				return nil, err
			}
			next, err = c.molecule()
		} else {
			next, err = c.group()
			if err == nil && next == nil {
				err = c.fail("element symbol, '(' or ')'")
			}
		}
		if err != nil {
			return nil, err
		}
		unite(sum, next)
	}
	c.pos++ // ')'
	factor, ok, err := c.count()
	if err != nil {
		return nil, err
	}
	if ok {
		multiply(sum, factor)
	}
	return sum, nil
}

// atomGroup reads consecutive element terms such as "Si4O10".
func (c *cursor) atomGroup() (counts, error) {
	atoms := make(counts)
	for isUpper(c.peek()) {
		symbols, err := c.symbols()
		if err != nil {
			return nil, err
		}
		n := 1.0
		if isDigit(c.peek()) {
			n = c.number()
		}
		for _, sym := range symbols {
			atoms[sym] += n
		}
	}
	return atoms, nil
}

// symbols reads "Al" or a comma-chained list "Al,Fe" sharing one count.
func (c *cursor) symbols() ([]string, error) {
	out := []string{c.symbol()}
	for c.peek() == ',' {
		c.pos++
		if !isUpper(c.peek()) {
			return nil, c.fail("element symbol after ','")
		}
		out = append(out, c.symbol())
	}
	return out, nil
}

func (c *cursor) symbol() string {
	start := c.pos
	c.pos++
	if isLower(c.peek()) {
		c.pos++
	}
	return c.src[start:c.pos]
}

// count reads an optional number or placeholder.
func (c *cursor) count() (float64, bool, error) {
	switch b := c.peek(); {
	case isDigit(b):
		return c.number(), true, nil
	case isLower(b):
		v, err := c.placeholder()
		return v, err == nil, err
	default:
		return 0, false, nil
	}
}

// number reads digits with an optional fraction.  A '.' is a decimal point
// only when a digit follows it; otherwise it is left for the separator.
func (c *cursor) number() float64 {
	start := c.pos
	c.digits()
	if c.peek() == '.' && isDigit(c.peekAt(1)) {
		c.pos++
		c.digits()
	}
	v, _ := strconv.ParseFloat(c.src[start:c.pos], 64)
	return v
}

func (c *cursor) digits() {
	for isDigit(c.peek()) {
		c.pos++
	}
}

// placeholder reads "n", "x", "n1" or "n+2" and evaluates it to the
// configured replacement plus the optional adjustment.
func (c *cursor) placeholder() (float64, error) {
	for isLower(c.peek()) {
		c.pos++
	}
	c.digits()
	v := c.replacement
	if sign := c.peek(); sign == '+' || sign == '-' {
		c.pos++
		if !isDigit(c.peek()) {
			return 0, c.fail("number after '" + string(sign) + "'")
		}
		start := c.pos
		adj := c.number()
		if sign == '-' {
			adj = -adj
		}
		v += adj
		if v < 0 {
			c.pos = start
			return 0, c.fail("adjustment keeping the placeholder non-negative")
		}
	}
	return v, nil
}
