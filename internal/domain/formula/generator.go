package formula

import (
	"math/rand"
	"strconv"
	"strings"
)

// maxGeneratedLength bounds the text Generate returns.
const maxGeneratedLength = 20

// Generate returns random formula text that Parse accepts.  It exercises
// separators, parenthesised groups, decimal counts and placeholders; element
// symbols are arbitrary letter pairs, not real elements.
func Generate(rng *rand.Rand) string {
	g := generator{rng: rng}
	for {
		var sb strings.Builder
		g.molecule(&sb)
		for g.coin() {
			g.separator(&sb)
			g.molecule(&sb)
		}
		if sb.Len() <= maxGeneratedLength {
			return sb.String()
		}
	}
}

type generator struct {
	rng *rand.Rand
}

// coin is biased slightly towards true so structures keep growing.
func (g generator) coin() bool {
	return g.rng.Float64() > 0.45
}

func (g generator) separator(sb *strings.Builder) {
	for g.coin() {
		sb.WriteByte(' ')
	}
	sb.WriteByte('.')
	for g.coin() {
		sb.WriteByte(' ')
	}
}

func (g generator) molecule(sb *strings.Builder) {
	if g.coin() {
		g.placeholder(sb)
	}
	g.group(sb)
	for g.coin() {
		g.group(sb)
	}
}

func (g generator) group(sb *strings.Builder) {
	if g.coin() {
		g.term(sb)
		for g.coin() {
			g.term(sb)
		}
		return
	}
	sb.WriteByte('(')
	g.group(sb)
	for g.coin() {
		if g.coin() {
			g.separator(sb)
		}
		g.term(sb)
	}
	sb.WriteByte(')')
	if g.coin() {
		if g.coin() {
			g.number(sb)
		} else {
			g.placeholder(sb)
		}
	}
}

func (g generator) term(sb *strings.Builder) {
	sb.WriteByte(byte('A' + g.rng.Intn(26)))
	if g.coin() {
		sb.WriteByte(byte('a' + g.rng.Intn(26)))
	}
	if g.coin() {
		g.number(sb)
	}
}

func (g generator) placeholder(sb *strings.Builder) {
	sb.WriteByte(byte('a' + g.rng.Intn(26)))
}

// number never ends a fraction in '0' and never starts with a redundant zero.
func (g generator) number(sb *strings.Builder) {
	n := strconv.Itoa(g.rng.Intn(10))
	for n != "0" && g.coin() {
		n += strconv.Itoa(g.rng.Intn(10))
	}
	if n == "0" || g.coin() {
		n += "." + strconv.Itoa(g.rng.Intn(10))
		for strings.HasSuffix(n, "0") || g.coin() {
			n += strconv.Itoa(g.rng.Intn(10))
		}
	}
	sb.WriteString(n)
}
