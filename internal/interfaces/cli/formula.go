package cli

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	appnet "github.com/turtacn/MetaNet/internal/application/network"
	"github.com/turtacn/MetaNet/internal/domain/formula"
	"github.com/turtacn/MetaNet/pkg/errors"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

func newFormulaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Parse, compare and render sum formulas",
	}
	cmd.AddCommand(
		newFormulaParseCmd(),
		newFormulaCompareCmd(),
		newFormulaLatexCmd(),
		newFormulaSampleCmd(),
	)
	return cmd
}

// formulaService returns a Service with an empty network; formula operations
// never touch it.
func formulaService(cmd *cobra.Command) (appnet.Service, context.Context, context.CancelFunc, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	parser := formula.NewParser(formula.Options{VariableReplacement: cliCtx.Config.Formula.VariableReplacement})
	svc := appnet.NewService(appnet.Options{}, cliCtx.Logger, appnet.WithParser(parser))
	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	return svc, ctx, cancel, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// parse
// ─────────────────────────────────────────────────────────────────────────────

type parsedFormulas []*networktypes.FormulaDTO

func (p parsedFormulas) String() string {
	var sb strings.Builder
	for i, f := range p {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s => %s", f.Input, f.Canonical)
	}
	return sb.String()
}

func (p parsedFormulas) TableHeaders() []string {
	return []string{"INPUT", "CANONICAL", "LATEX", "ATOMS"}
}

func (p parsedFormulas) TableRows() [][]string {
	rows := make([][]string, 0, len(p))
	for _, f := range p {
		rows = append(rows, []string{f.Input, f.Canonical, f.LaTeX, formatAtoms(f)})
	}
	return rows
}

// formatAtoms lists atom counts in canonical element order.
func formatAtoms(f *networktypes.FormulaDTO) string {
	parts := make([]string, 0, len(f.Elements))
	for _, el := range f.Elements {
		parts = append(parts, el+"="+strconv.FormatFloat(f.Atoms[el], 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

func newFormulaParseCmd() *cobra.Command {
	var replacement float64
	cmd := &cobra.Command{
		Use:   "parse <formula>...",
		Short: "Parse formulas and print their canonical form",
		Example: `  metanet formula parse C6H12O6 "CuSO4 . 5H2O"
  metanet formula parse "(CH2)n" --replacement 2 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ctx, cancel, err := formulaService(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			var override *float64
			if cmd.Flags().Changed("replacement") {
				override = &replacement
			}
			out := make(parsedFormulas, 0, len(args))
			for _, text := range args {
				dto, err := svc.ParseFormula(ctx, &networktypes.ParseFormulaRequest{
					Formula:             text,
					VariableReplacement: override,
				})
				if err != nil {
					return err
				}
				out = append(out, dto)
			}
			return PrintResult(cmd, out)
		},
	}
	cmd.Flags().Float64Var(&replacement, "replacement", formula.DefaultVariableReplacement, "value substituted for placeholders such as n")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// compare
// ─────────────────────────────────────────────────────────────────────────────

type comparison struct {
	*networktypes.CompareFormulasResponse
}

func (c comparison) String() string {
	rel := "differ"
	if c.Equal {
		rel = "are equal"
	}
	return fmt.Sprintf("%s and %s %s\nsum:                %s\ndifference:         %s\nelement difference: %s",
		c.Left.Canonical, c.Right.Canonical, rel, c.Sum, c.StoichiometricDifference, c.ElementDifference)
}

func (c comparison) TableHeaders() []string {
	return []string{"PROPERTY", "VALUE"}
}

func (c comparison) TableRows() [][]string {
	return [][]string{
		{"left", c.Left.Canonical},
		{"right", c.Right.Canonical},
		{"equal", strconv.FormatBool(c.Equal)},
		{"sum", c.Sum},
		{"difference", c.StoichiometricDifference},
		{"element difference", c.ElementDifference},
		{"difference latex", c.DifferenceLaTeX},
	}
}

func newFormulaCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "compare <left> <right>",
		Short:   "Compare two formulas and show their sum and differences",
		Example: `  metanet formula compare C6H12O6 H2O`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ctx, cancel, err := formulaService(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			res, err := svc.CompareFormulas(ctx, &networktypes.CompareFormulasRequest{Left: args[0], Right: args[1]})
			if err != nil {
				return err
			}
			return PrintResult(cmd, comparison{res})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// latex
// ─────────────────────────────────────────────────────────────────────────────

func newFormulaLatexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latex <formula>",
		Short: "Render a formula as LaTeX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ctx, cancel, err := formulaService(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			dto, err := svc.ParseFormula(ctx, &networktypes.ParseFormulaRequest{Formula: args[0]})
			if err != nil {
				return err
			}
			return PrintResult(cmd, dto.LaTeX)
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// sample
// ─────────────────────────────────────────────────────────────────────────────

type samples []string

func (s samples) String() string { return strings.Join(s, "\n") }

func (s samples) TableHeaders() []string { return []string{"#", "FORMULA"} }

func (s samples) TableRows() [][]string {
	rows := make([][]string, len(s))
	for i, f := range s {
		rows[i] = []string{strconv.Itoa(i + 1), f}
	}
	return rows
}

func newFormulaSampleCmd() *cobra.Command {
	var (
		count int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print random formula text accepted by the parser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.NewValidationError("count", "must be at least 1")
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			out := make(samples, count)
			for i := range out {
				out[i] = formula.Generate(rng)
			}
			return PrintResult(cmd, out)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of formulas")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: current time)")
	return cmd
}
