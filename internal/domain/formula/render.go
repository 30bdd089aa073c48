package formula

import "strings"

// LaTeX renders f for math mode, e.g. "C_{6}H_{12}O_{6}".  A count of 1 is
// omitted.
func (f Formula) LaTeX() string {
	var sb strings.Builder
	for _, sym := range f.Elements() {
		sb.WriteString(sym)
		if n := f.atoms[sym]; n != 1 {
			sb.WriteString("_{")
			sb.WriteString(formatCount(n))
			sb.WriteString("}")
		}
	}
	return sb.String()
}

// LaTeXDiff renders f as a comma-separated element list for difference
// tables, e.g. "2$\times$C, H".
func (f Formula) LaTeXDiff() string {
	parts := make([]string, 0, len(f.atoms))
	for _, sym := range f.Elements() {
		if n := f.atoms[sym]; n != 1 {
			parts = append(parts, formatCount(n)+`$\times$`+sym)
			continue
		}
		parts = append(parts, sym)
	}
	return strings.Join(parts, ", ")
}
