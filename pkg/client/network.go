package client

import (
	"context"
	"fmt"
	"net/http"

	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

// FormulasClient wraps /api/v1/formulas.
type FormulasClient struct {
	client *Client
}

// Parse parses one formula.  replacement overrides the server's placeholder
// value when non-nil.
func (f *FormulasClient) Parse(ctx context.Context, formula string, replacement *float64) (*networktypes.FormulaDTO, error) {
	return call[networktypes.FormulaDTO](ctx, f.client, http.MethodPost, "/api/v1/formulas/parse",
		&networktypes.ParseFormulaRequest{Formula: formula, VariableReplacement: replacement})
}

// Compare compares left with right.
func (f *FormulasClient) Compare(ctx context.Context, left, right string) (*networktypes.CompareFormulasResponse, error) {
	return call[networktypes.CompareFormulasResponse](ctx, f.client, http.MethodPost, "/api/v1/formulas/compare",
		&networktypes.CompareFormulasRequest{Left: left, Right: right})
}

// NetworkClient wraps the network, compartment and reaction endpoints.
type NetworkClient struct {
	client *Client
}

// Summary counts the components of the loaded network.
func (n *NetworkClient) Summary(ctx context.Context) (*networktypes.NetworkSummary, error) {
	return call[networktypes.NetworkSummary](ctx, n.client, http.MethodGet, "/api/v1/network", nil)
}

// Closure computes the closure of req.Seed in compartment.
func (n *NetworkClient) Closure(ctx context.Context, compartment int, req *networktypes.ClosureRequest) (*networktypes.ClosureResponse, error) {
	if req == nil {
		req = &networktypes.ClosureRequest{}
	}
	return call[networktypes.ClosureResponse](ctx, n.client, http.MethodPost,
		fmt.Sprintf("/api/v1/compartments/%d/closure", compartment), req)
}

// Compartment describes one compartment.
func (n *NetworkClient) Compartment(ctx context.Context, id int) (*networktypes.CompartmentResponse, error) {
	return call[networktypes.CompartmentResponse](ctx, n.client, http.MethodGet,
		fmt.Sprintf("/api/v1/compartments/%d", id), nil)
}

// Balance checks one reaction.
func (n *NetworkClient) Balance(ctx context.Context, reaction int) (*networktypes.BalanceResponse, error) {
	return call[networktypes.BalanceResponse](ctx, n.client, http.MethodGet,
		fmt.Sprintf("/api/v1/reactions/%d/balance", reaction), nil)
}

// CompartmentBalance checks every reaction of a compartment.
func (n *NetworkClient) CompartmentBalance(ctx context.Context, compartment int) ([]*networktypes.BalanceResponse, error) {
	res, err := call[[]*networktypes.BalanceResponse](ctx, n.client, http.MethodGet,
		fmt.Sprintf("/api/v1/compartments/%d/balance", compartment), nil)
	if err != nil {
		return nil, err
	}
	return *res, nil
}
