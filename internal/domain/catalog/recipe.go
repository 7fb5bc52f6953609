package catalog

import (
	"time"

	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CostChangeOrigin describes what caused a recipe cost write. The costing
// cascade uses it to tell a first-step update (caused by a product cost
// change or a direct edit) from a write produced by its own recursion,
// which must not be re-propagated.
type CostChangeOrigin string

const (
	// OriginDirect marks a cost change from a direct recipe edit
	OriginDirect CostChangeOrigin = "direct"
	// OriginProductUpdate marks a cost change caused by a product cost change
	OriginProductUpdate CostChangeOrigin = "product-update"
	// OriginCascade marks a cost change produced by cascade propagation
	OriginCascade CostChangeOrigin = "recipe-cascade"
)

// SectionItem is one product requirement inside a recipe section
type SectionItem struct {
	shared.BaseEntity
	SectionID string          `gorm:"type:varchar(36);not null;index"`
	ProductID string          `gorm:"type:varchar(36);not null;index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SectionItem) TableName() string {
	return "recipe_section_items"
}

// RecipeSection is a named group of product requirements (dough, filling,
// glaze, ...)
type RecipeSection struct {
	shared.BaseEntity
	RecipeID string        `gorm:"type:varchar(36);not null;index"`
	Name     string        `gorm:"type:varchar(200);not null"`
	Items    []SectionItem `gorm:"foreignKey:SectionID;references:ID"`
}

// TableName returns the table name for GORM
func (RecipeSection) TableName() string {
	return "recipe_sections"
}

// RecipeReference nests another recipe as a sub-component, scaled by Quantity
type RecipeReference struct {
	shared.BaseEntity
	RecipeID       string          `gorm:"type:varchar(36);not null;index"`
	NestedRecipeID string          `gorm:"type:varchar(36);not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (RecipeReference) TableName() string {
	return "recipe_references"
}

// Recipe is the aggregate root for recipe operations. Cost is a cached
// derived figure recomputed by the costing cascades; it is never treated as
// authoritative. Nested references form a directed graph that the data
// layer does NOT guarantee acyclic.
type Recipe struct {
	shared.BaseAggregateRoot
	Name          string            `gorm:"type:varchar(200);not null"`
	Cost          decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	SalePrice     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	ProfitPercent decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Units         decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:1"` // Units produced per batch
	Sections      []RecipeSection   `gorm:"foreignKey:RecipeID;references:ID"`
	Nested        []RecipeReference `gorm:"foreignKey:RecipeID;references:ID"`
}

// TableName returns the table name for GORM
func (Recipe) TableName() string {
	return "recipes"
}

// NewRecipe creates a new recipe
func NewRecipe(name string) (*Recipe, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	recipe := &Recipe{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Cost:              decimal.Zero,
		SalePrice:         decimal.Zero,
		ProfitPercent:     decimal.Zero,
		Units:             decimal.NewFromInt(1),
		Sections:          make([]RecipeSection, 0),
		Nested:            make([]RecipeReference, 0),
	}

	return recipe, nil
}

// AddSection appends a named section and returns it for item population
func (r *Recipe) AddSection(name string) (*RecipeSection, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_SECTION", "Section name cannot be empty")
	}

	section := RecipeSection{
		BaseEntity: shared.NewBaseEntity(),
		RecipeID:   r.ID,
		Name:       name,
		Items:      make([]SectionItem, 0),
	}
	r.Sections = append(r.Sections, section)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return &r.Sections[len(r.Sections)-1], nil
}

// AddSectionItem adds a product requirement to an existing section
func (r *Recipe) AddSectionItem(sectionID, productID string, quantity decimal.Decimal) error {
	if productID == "" {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	for i := range r.Sections {
		if r.Sections[i].ID == sectionID {
			r.Sections[i].Items = append(r.Sections[i].Items, SectionItem{
				BaseEntity: shared.NewBaseEntity(),
				SectionID:  sectionID,
				ProductID:  productID,
				Quantity:   quantity,
			})
			r.UpdatedAt = time.Now()
			r.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("SECTION_NOT_FOUND", "Section not found on this recipe")
}

// AddNestedRecipe nests another recipe scaled by quantity. Self-references
// and cycles are not rejected here; the BOM calculator and the cascades
// defend against them at traversal time.
func (r *Recipe) AddNestedRecipe(nestedRecipeID string, quantity decimal.Decimal) error {
	if nestedRecipeID == "" {
		return shared.NewDomainError("INVALID_RECIPE", "Nested recipe ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	r.Nested = append(r.Nested, RecipeReference{
		BaseEntity:     shared.NewBaseEntity(),
		RecipeID:       r.ID,
		NestedRecipeID: nestedRecipeID,
		Quantity:       quantity,
	})
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// SetSalePrice sets the sale price and recomputes the profit percentage
func (r *Recipe) SetSalePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
	}

	r.SalePrice = price
	r.ProfitPercent = computeProfitPercent(r.Cost, r.SalePrice)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// SetUnits sets how many sellable units one batch of the recipe yields
func (r *Recipe) SetUnits(units decimal.Decimal) error {
	if units.IsNegative() {
		return shared.NewDomainError("INVALID_UNITS", "Units cannot be negative")
	}

	r.Units = units
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// UnitCount returns the batch unit count, defaulting to 1 when the stored
// value is zero or negative so cost division is always safe
func (r *Recipe) UnitCount() decimal.Decimal {
	if r.Units.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return r.Units
}

// ApplyCostChange sets a new cached cost, recomputes the profit percentage
// and emits a RecipeCostChanged event tagged with the change origin.
// Exact equality short-circuits: the cascade trigger only runs on actual
// field changes.
func (r *Recipe) ApplyCostChange(cost decimal.Decimal, origin CostChangeOrigin) {
	if r.Cost.Equal(cost) {
		return
	}

	oldCost := r.Cost
	r.Cost = cost.Round(4)
	r.ProfitPercent = computeProfitPercent(r.Cost, r.SalePrice)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRecipeCostChangedEvent(r, oldCost, r.Cost, origin))
}

// UsesProduct returns true if any section references the product directly
func (r *Recipe) UsesProduct(productID string) bool {
	for _, section := range r.Sections {
		for _, item := range section.Items {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}

// ProductQuantity returns the summed direct section quantity of a product
func (r *Recipe) ProductQuantity(productID string) decimal.Decimal {
	total := decimal.Zero
	for _, section := range r.Sections {
		for _, item := range section.Items {
			if item.ProductID == productID {
				total = total.Add(item.Quantity)
			}
		}
	}
	return total
}

// NestedQuantityOf returns the summed nesting quantity of a sub-recipe
func (r *Recipe) NestedQuantityOf(recipeID string) decimal.Decimal {
	total := decimal.Zero
	for _, ref := range r.Nested {
		if ref.NestedRecipeID == recipeID {
			total = total.Add(ref.Quantity)
		}
	}
	return total
}

// NestsRecipe returns true if the recipe nests the given sub-recipe
func (r *Recipe) NestsRecipe(recipeID string) bool {
	for _, ref := range r.Nested {
		if ref.NestedRecipeID == recipeID {
			return true
		}
	}
	return false
}

// computeProfitPercent derives profit relative to cost; 0 when cost is not
// positive
func computeProfitPercent(cost, salePrice decimal.Decimal) decimal.Decimal {
	if cost.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return salePrice.Sub(cost).Div(cost).Mul(decimal.NewFromInt(100)).Round(4)
}
