// Package network defines the request and response shapes exchanged by the
// MetaNet CLI, HTTP API and closure cache.  Ids are plain ints so the types
// carry no domain dependency.
package network

// ─────────────────────────────────────────────────────────────────────────────
// Formulas
// ─────────────────────────────────────────────────────────────────────────────

// ParseFormulaRequest asks for one formula to be parsed.
type ParseFormulaRequest struct {
	Formula string `json:"formula" binding:"required"`
	// VariableReplacement overrides the value placeholders stand for.
	VariableReplacement *float64 `json:"variable_replacement,omitempty"`
}

// FormulaDTO is a parsed formula in every rendering.
type FormulaDTO struct {
	Input     string             `json:"input"`
	Canonical string             `json:"canonical"`
	LaTeX     string             `json:"latex"`
	Elements  []string           `json:"elements"`
	Atoms     map[string]float64 `json:"atoms"`
}

// CompareFormulasRequest asks for two formulas to be compared.
type CompareFormulasRequest struct {
	Left  string `json:"left" binding:"required"`
	Right string `json:"right" binding:"required"`
}

// CompareFormulasResponse reports equality and the differences of two formulas.
type CompareFormulasResponse struct {
	Left                     FormulaDTO `json:"left"`
	Right                    FormulaDTO `json:"right"`
	Equal                    bool       `json:"equal"`
	Sum                      string     `json:"sum"`
	StoichiometricDifference string     `json:"stoichiometric_difference"`
	ElementDifference        string     `json:"element_difference"`
	DifferenceLaTeX          string     `json:"difference_latex"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Closure
// ─────────────────────────────────────────────────────────────────────────────

// ClosureRequest asks for the closure of Seed within a compartment.  When
// Reactions is empty the compartment's own reaction set is used.
type ClosureRequest struct {
	Seed      []int `json:"seed"`
	Reactions []int `json:"reactions,omitempty"`
}

// ClosureResponse is a computed or cached closure.
type ClosureResponse struct {
	Compartment int   `json:"compartment"`
	Seed        []int `json:"seed"`
	Substances  []int `json:"substances"`
	Added       []int `json:"added"`
	Passes      int   `json:"passes"`
	Cached      bool  `json:"cached"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Reactions and compartments
// ─────────────────────────────────────────────────────────────────────────────

// BalanceResponse reports whether a reaction's sides carry equal elements.
type BalanceResponse struct {
	Reaction            int    `json:"reaction"`
	Name                string `json:"name"`
	Balanced            bool   `json:"balanced"`
	Substrates          string `json:"substrates"`
	Products            string `json:"products"`
	Imbalance           string `json:"imbalance,omitempty"`
	UnchangedSubstances bool   `json:"unchanged_substances"`
}

// CompartmentResponse describes one compartment.  Contained is null when
// containment is unknown.
type CompartmentResponse struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	Names              []string `json:"names"`
	URNs               []string `json:"urns,omitempty"`
	Reactions          []int    `json:"reactions"`
	Enzymes            []int    `json:"enzymes"`
	Contained          []int    `json:"contained"`
	ContainedRecursive []int    `json:"contained_recursive"`
	Containing         []int    `json:"containing"`
	UtilizedSubstances []int    `json:"utilized_substances"`
}

// NetworkSummary counts the registered components.
type NetworkSummary struct {
	Substances   int `json:"substances"`
	Reactions    int `json:"reactions"`
	Compartments int `json:"compartments"`
}
