package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appnet "github.com/turtacn/MetaNet/internal/application/network"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

// NetworkHandler serves closures, balance checks and compartment lookups over
// the loaded network.
type NetworkHandler struct {
	svc appnet.Service
}

// NewNetworkHandler creates a NetworkHandler.
func NewNetworkHandler(svc appnet.Service) *NetworkHandler {
	return &NetworkHandler{svc: svc}
}

// RegisterRoutes mounts the handler under rg.
func (h *NetworkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/network", h.Summary)

	compartments := rg.Group("/compartments/:id")
	compartments.GET("", h.DescribeCompartment)
	compartments.POST("/closure", h.Closure)
	compartments.GET("/balance", h.CompartmentBalance)

	rg.GET("/reactions/:id/balance", h.Balance)
}

// Summary handles GET /api/v1/network.
func (h *NetworkHandler) Summary(c *gin.Context) {
	respond(c, http.StatusOK, h.svc.Summary())
}

// Closure handles POST /api/v1/compartments/:id/closure.  An empty body
// computes the closure of the empty seed.
func (h *NetworkHandler) Closure(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req networktypes.ClosureRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
	}
	res, err := h.svc.ComputeClosure(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

// DescribeCompartment handles GET /api/v1/compartments/:id.
func (h *NetworkHandler) DescribeCompartment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.svc.DescribeCompartment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

// CompartmentBalance handles GET /api/v1/compartments/:id/balance.
func (h *NetworkHandler) CompartmentBalance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.svc.CheckAllBalances(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

// Balance handles GET /api/v1/reactions/:id/balance.
func (h *NetworkHandler) Balance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.svc.CheckBalance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}
