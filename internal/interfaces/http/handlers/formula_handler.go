package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appnet "github.com/turtacn/MetaNet/internal/application/network"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

// FormulaHandler serves formula parsing and comparison.
type FormulaHandler struct {
	svc appnet.Service
}

// NewFormulaHandler creates a FormulaHandler.
func NewFormulaHandler(svc appnet.Service) *FormulaHandler {
	return &FormulaHandler{svc: svc}
}

// RegisterRoutes mounts the handler under rg.
func (h *FormulaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/formulas")
	g.POST("/parse", h.Parse)
	g.POST("/compare", h.Compare)
}

// Parse handles POST /api/v1/formulas/parse.
func (h *FormulaHandler) Parse(c *gin.Context) {
	var req networktypes.ParseFormulaRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	dto, err := h.svc.ParseFormula(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, dto)
}

// Compare handles POST /api/v1/formulas/compare.
func (h *FormulaHandler) Compare(c *gin.Context) {
	var req networktypes.CompareFormulasRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := h.svc.CompareFormulas(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}
