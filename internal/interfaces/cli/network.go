package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MetaNet/internal/app"
	appnet "github.com/turtacn/MetaNet/internal/application/network"
	"github.com/turtacn/MetaNet/pkg/errors"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

// withNetwork loads the configured network, runs fn and releases every
// connection.  Metrics are off for one-shot commands.
func withNetwork(cmd *cobra.Command, fn func(ctx context.Context, svc appnet.Service) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	cfg := *cliCtx.Config
	cfg.Metrics.Enabled = false
	a, err := app.BuildCore(ctx, &cfg, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a.Service)
}

// ─────────────────────────────────────────────────────────────────────────────
// closure
// ─────────────────────────────────────────────────────────────────────────────

type closureView struct {
	*networktypes.ClosureResponse
}

func (v closureView) String() string {
	return fmt.Sprintf("closure in compartment %d after %d passes: %s\nadded: %s",
		v.Compartment, v.Passes, joinInts(v.Substances), joinInts(v.Added))
}

func (v closureView) TableHeaders() []string { return []string{"SUBSTANCE", "ORIGIN"} }

func (v closureView) TableRows() [][]string {
	seed := make(map[int]bool, len(v.Seed))
	for _, id := range v.Seed {
		seed[id] = true
	}
	rows := make([][]string, 0, len(v.Substances))
	for _, id := range v.Substances {
		origin := "derived"
		if seed[id] {
			origin = "seed"
		}
		rows = append(rows, []string{strconv.Itoa(id), origin})
	}
	return rows
}

func newClosureCmd() *cobra.Command {
	var (
		compartment int
		seed        []int
		reactions   []int
	)
	cmd := &cobra.Command{
		Use:   "closure",
		Short: "Compute the substances reachable from a seed in a compartment",
		Example: `  metanet closure --compartment 101 --seed 4,5
  metanet closure --compartment 101 --seed 4,5 --reactions 21 -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(cmd, func(ctx context.Context, svc appnet.Service) error {
				res, err := svc.ComputeClosure(ctx, compartment, &networktypes.ClosureRequest{
					Seed:      seed,
					Reactions: reactions,
				})
				if err != nil {
					return err
				}
				return PrintResult(cmd, closureView{res})
			})
		},
	}
	cmd.Flags().IntVar(&compartment, "compartment", 0, "compartment id")
	cmd.Flags().IntSliceVar(&seed, "seed", nil, "seed substance ids")
	cmd.Flags().IntSliceVar(&reactions, "reactions", nil, "reaction ids (default: the compartment's reactions)")
	_ = cmd.MarkFlagRequired("compartment")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// balance
// ─────────────────────────────────────────────────────────────────────────────

type balanceView []*networktypes.BalanceResponse

func (v balanceView) String() string {
	lines := make([]string, 0, len(v))
	for _, b := range v {
		state := "balanced"
		if !b.Balanced {
			state = "unbalanced, excess " + b.Imbalance
		}
		lines = append(lines, fmt.Sprintf("%d %s: %s -> %s (%s)", b.Reaction, b.Name, b.Substrates, b.Products, state))
	}
	return strings.Join(lines, "\n")
}

func (v balanceView) TableHeaders() []string {
	return []string{"REACTION", "NAME", "SUBSTRATES", "PRODUCTS", "BALANCED", "IMBALANCE"}
}

func (v balanceView) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, b := range v {
		rows = append(rows, []string{
			strconv.Itoa(b.Reaction), b.Name, b.Substrates, b.Products,
			strconv.FormatBool(b.Balanced), b.Imbalance,
		})
	}
	return rows
}

func newBalanceCmd() *cobra.Command {
	var reaction, compartment int
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Check that reactions carry the same elements on both sides",
		Example: `  metanet balance --reaction 20
  metanet balance --compartment 101 -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			byReaction := cmd.Flags().Changed("reaction")
			byCompartment := cmd.Flags().Changed("compartment")
			if byReaction == byCompartment {
				return errors.NewValidationError("reaction", "exactly one of --reaction or --compartment is required")
			}
			return withNetwork(cmd, func(ctx context.Context, svc appnet.Service) error {
				if byReaction {
					res, err := svc.CheckBalance(ctx, reaction)
					if err != nil {
						return err
					}
					return PrintResult(cmd, balanceView{res})
				}
				res, err := svc.CheckAllBalances(ctx, compartment)
				if err != nil {
					return err
				}
				return PrintResult(cmd, balanceView(res))
			})
		},
	}
	cmd.Flags().IntVar(&reaction, "reaction", 0, "reaction id")
	cmd.Flags().IntVar(&compartment, "compartment", 0, "check every reaction of this compartment")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// compartment
// ─────────────────────────────────────────────────────────────────────────────

type compartmentView struct {
	*networktypes.CompartmentResponse
}

func orUnknown(ids []int) string {
	if ids == nil {
		return "unknown"
	}
	if len(ids) == 0 {
		return "none"
	}
	return joinInts(ids)
}

func (v compartmentView) TableHeaders() []string { return []string{"PROPERTY", "VALUE"} }

func (v compartmentView) TableRows() [][]string {
	return [][]string{
		{"id", strconv.Itoa(v.ID)},
		{"name", v.Name},
		{"names", strings.Join(v.Names, "; ")},
		{"urns", strings.Join(v.URNs, "; ")},
		{"reactions", joinInts(v.Reactions)},
		{"enzymes", joinInts(v.Enzymes)},
		{"contains", orUnknown(v.Contained)},
		{"contains (recursive)", orUnknown(v.ContainedRecursive)},
		{"contained by", joinInts(v.Containing)},
		{"utilized substances", joinInts(v.UtilizedSubstances)},
	}
}

func (v compartmentView) String() string {
	return strings.TrimRight(formatPairs(v.TableRows()), "\n")
}

// formatPairs renders key/value rows as "key: value" lines.
func formatPairs(rows [][]string) string {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(padRight(r[0]+":", width+1))
		sb.WriteString(" ")
		sb.WriteString(r[1])
		sb.WriteString("\n")
	}
	return sb.String()
}

func newCompartmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "compartment <id>",
		Short:   "Describe a compartment",
		Example: `  metanet compartment 101`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.NewValidationError("id", fmt.Sprintf("%q is not an integer", args[0]))
			}
			return withNetwork(cmd, func(ctx context.Context, svc appnet.Service) error {
				res, err := svc.DescribeCompartment(ctx, id)
				if err != nil {
					return err
				}
				return PrintResult(cmd, compartmentView{res})
			})
		},
	}
}
