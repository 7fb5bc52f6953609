package handler

import (
	stockapp "github.com/bakehouse/backend/internal/application/stock"
	"github.com/bakehouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MovementHandler handles stock movement API endpoints
type MovementHandler struct {
	BaseHandler
	movements *stockapp.MovementService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(movements *stockapp.MovementService) *MovementHandler {
	return &MovementHandler{movements: movements}
}

// RegisterRoutes registers the movement routes
func (h *MovementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/movements")
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.DELETE("/:id", h.Delete)
	}
}

// Create records a purchase or sale. The stock delta is applied by the
// created event's handler, so the response may not yet carry the applied
// mark.
func (h *MovementHandler) Create(c *gin.Context) {
	var req stockapp.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	resp, err := h.movements.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a single movement by ID
func (h *MovementHandler) Get(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid movement ID")
		return
	}

	resp, err := h.movements.Get(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a paginated movement listing
func (h *MovementHandler) List(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.movements.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Delete removes a movement. The deleted event's handler reverses the
// persisted stock delta.
func (h *MovementHandler) Delete(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid movement ID")
		return
	}

	if err := h.movements.Delete(c.Request.Context(), uri.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
