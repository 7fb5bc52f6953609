package catalog

import (
	"time"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Unit        string           `json:"unit" binding:"required,min=1,max=20"`
	Cost        *decimal.Decimal `json:"cost"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
}

// UpdateProductCostRequest represents a request to set a product's unit cost
type UpdateProductCostRequest struct {
	Cost decimal.Decimal `json:"cost" binding:"required"`
}

// AdjustStockRequest represents a manual signed stock correction
type AdjustStockRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"required"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinQuantity  decimal.Decimal `json:"min_quantity"`
	Cost         decimal.Decimal `json:"cost"`
	StockValue   decimal.Decimal `json:"stock_value"`
	BelowMinimum bool            `json:"below_minimum"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Unit:         p.Unit,
		Quantity:     p.Quantity,
		MinQuantity:  p.MinQuantity,
		Cost:         p.Cost,
		StockValue:   p.StockValue(),
		BelowMinimum: p.IsBelowMinimum(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
}

// SectionItemRequest is one product requirement in a recipe section
type SectionItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// SectionRequest is a named group of product requirements
type SectionRequest struct {
	Name  string               `json:"name" binding:"required,min=1,max=200"`
	Items []SectionItemRequest `json:"items" binding:"dive"`
}

// NestedRecipeRequest nests another recipe scaled by quantity
type NestedRecipeRequest struct {
	RecipeID string          `json:"recipe_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateRecipeRequest represents a request to create a new recipe
type CreateRecipeRequest struct {
	Name      string                `json:"name" binding:"required,min=1,max=200"`
	Units     *decimal.Decimal      `json:"units"`
	SalePrice *decimal.Decimal      `json:"sale_price"`
	Sections  []SectionRequest      `json:"sections" binding:"dive"`
	Nested    []NestedRecipeRequest `json:"nested" binding:"dive"`
}

// UpdateRecipeCostRequest represents a direct edit of a recipe's cost
type UpdateRecipeCostRequest struct {
	Cost decimal.Decimal `json:"cost" binding:"required"`
}

// UpdateRecipePriceRequest represents a sale price change
type UpdateRecipePriceRequest struct {
	SalePrice decimal.Decimal `json:"sale_price" binding:"required"`
}

// SectionItemResponse is one product requirement in API responses
type SectionItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// SectionResponse is a recipe section in API responses
type SectionResponse struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Items []SectionItemResponse `json:"items"`
}

// NestedRecipeResponse is a nested recipe reference in API responses
type NestedRecipeResponse struct {
	RecipeID string          `json:"recipe_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// RecipeResponse represents a recipe in API responses
type RecipeResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Cost          decimal.Decimal        `json:"cost"`
	SalePrice     decimal.Decimal        `json:"sale_price"`
	ProfitPercent decimal.Decimal        `json:"profit_percent"`
	Units         decimal.Decimal        `json:"units"`
	Sections      []SectionResponse      `json:"sections"`
	Nested        []NestedRecipeResponse `json:"nested"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Version       int                    `json:"version"`
}

// ToRecipeResponse converts a domain Recipe to RecipeResponse
func ToRecipeResponse(r *catalog.Recipe) RecipeResponse {
	sections := make([]SectionResponse, 0, len(r.Sections))
	for _, section := range r.Sections {
		items := make([]SectionItemResponse, 0, len(section.Items))
		for _, item := range section.Items {
			items = append(items, SectionItemResponse{
				ID:        item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		sections = append(sections, SectionResponse{
			ID:    section.ID,
			Name:  section.Name,
			Items: items,
		})
	}

	nested := make([]NestedRecipeResponse, 0, len(r.Nested))
	for _, ref := range r.Nested {
		nested = append(nested, NestedRecipeResponse{
			RecipeID: ref.NestedRecipeID,
			Quantity: ref.Quantity,
		})
	}

	return RecipeResponse{
		ID:            r.ID,
		Name:          r.Name,
		Cost:          r.Cost,
		SalePrice:     r.SalePrice,
		ProfitPercent: r.ProfitPercent,
		Units:         r.Units,
		Sections:      sections,
		Nested:        nested,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}

// BOMEntryResponse is one flattened product requirement of a recipe
type BOMEntryResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// BOMResponse is the flattened bill of materials of one recipe batch
type BOMResponse struct {
	RecipeID string             `json:"recipe_id"`
	Entries  []BOMEntryResponse `json:"entries"`
}
