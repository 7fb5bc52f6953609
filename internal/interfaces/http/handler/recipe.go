package handler

import (
	catalogapp "github.com/bakehouse/backend/internal/application/catalog"
	"github.com/bakehouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RecipeHandler handles recipe-related API endpoints
type RecipeHandler struct {
	BaseHandler
	recipes *catalogapp.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(recipes *catalogapp.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

// RegisterRoutes registers the recipe routes
func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/recipes")
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/bom", h.BOM)
		group.PUT("/:id/cost", h.UpdateCost)
		group.PUT("/:id/price", h.UpdatePrice)
		group.POST("/:id/cost-recomputations", h.RecomputeCost)
		group.DELETE("/:id", h.Delete)
	}
}

// Create creates a new recipe with its sections and nested references
func (h *RecipeHandler) Create(c *gin.Context) {
	var req catalogapp.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	resp, err := h.recipes.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a single recipe by ID
func (h *RecipeHandler) Get(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid recipe ID")
		return
	}

	resp, err := h.recipes.Get(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a paginated recipe listing
func (h *RecipeHandler) List(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.recipes.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// BOM returns the recipe's flattened per-batch bill of materials
func (h *RecipeHandler) BOM(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid recipe ID")
		return
	}

	resp, err := h.recipes.BOM(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateCost applies a direct cost edit and starts the cascade
func (h *RecipeHandler) UpdateCost(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid recipe ID")
		return
	}

	var req catalogapp.UpdateRecipeCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	resp, err := h.recipes.UpdateCost(c.Request.Context(), uri.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdatePrice sets the sale price
func (h *RecipeHandler) UpdatePrice(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid recipe ID")
		return
	}

	var req catalogapp.UpdateRecipePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	resp, err := h.recipes.UpdatePrice(c.Request.Context(), uri.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecomputeCost rebuilds the recipe's cost from current product costs
func (h *RecipeHandler) RecomputeCost(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid recipe ID")
		return
	}

	resp, err := h.recipes.RecomputeCost(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a recipe
func (h *RecipeHandler) Delete(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid recipe ID")
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), uri.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
