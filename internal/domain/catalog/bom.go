package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BOM is the flattened bill of materials for one batch of a recipe:
// per-product quantity requirements with nested recipes' contributions
// multiplied through and merged. It is derived on demand, never persisted.
type BOM struct {
	ProductIDs map[string]struct{}
	RecipeIDs  map[string]struct{}
	Entries    map[string]decimal.Decimal
}

// NewBOM creates an empty BOM
func NewBOM() *BOM {
	return &BOM{
		ProductIDs: make(map[string]struct{}),
		RecipeIDs:  make(map[string]struct{}),
		Entries:    make(map[string]decimal.Decimal),
	}
}

// Quantity returns the flattened requirement for a product (zero when absent)
func (b *BOM) Quantity(productID string) decimal.Decimal {
	return b.Entries[productID]
}

// IsEmpty returns true when the BOM has no product requirements
func (b *BOM) IsEmpty() bool {
	return len(b.Entries) == 0
}

// add accumulates a product requirement
func (b *BOM) add(productID string, quantity decimal.Decimal) {
	b.ProductIDs[productID] = struct{}{}
	b.Entries[productID] = b.Entries[productID].Add(quantity)
}

// round consolidates accumulated entries to 4 decimal places so that
// floating drift cannot build up across deep nests
func (b *BOM) round() {
	for id, qty := range b.Entries {
		b.Entries[id] = qty.Round(4)
	}
}

// BOMCalculator flattens recipe definitions into BOMs. It loads nested
// recipes lazily through a RecipeSource, one read per distinct recipe node
// visited, and never mutates anything.
type BOMCalculator struct {
	recipes RecipeSource
	logger  *zap.Logger
}

// NewBOMCalculator creates a new BOMCalculator
func NewBOMCalculator(recipes RecipeSource, logger *zap.Logger) *BOMCalculator {
	return &BOMCalculator{
		recipes: recipes,
		logger:  logger,
	}
}

// Compute walks the recipe's sections directly and its nested recipes
// recursively, multiplying quantities along the nesting chain and summing
// duplicate product entries. A recipe already on the current recursion path
// is skipped with a warning: a cycle contributes nothing beyond what was
// counted before the revisit, and traversal always terminates.
func (c *BOMCalculator) Compute(ctx context.Context, recipe *Recipe) (*BOM, error) {
	if recipe == nil {
		return nil, fmt.Errorf("compute bom: recipe is nil")
	}

	bom := NewBOM()
	visited := map[string]struct{}{recipe.ID: {}}
	if err := c.compute(ctx, recipe, decimal.NewFromInt(1), visited, bom); err != nil {
		return nil, err
	}
	bom.round()

	return bom, nil
}

// compute accumulates one recipe node's contribution scaled by multiplier
func (c *BOMCalculator) compute(ctx context.Context, recipe *Recipe, multiplier decimal.Decimal, visited map[string]struct{}, bom *BOM) error {
	bom.RecipeIDs[recipe.ID] = struct{}{}

	for _, section := range recipe.Sections {
		for _, item := range section.Items {
			bom.add(item.ProductID, item.Quantity.Mul(multiplier))
		}
	}

	for _, ref := range recipe.Nested {
		if _, seen := visited[ref.NestedRecipeID]; seen {
			c.logger.Warn("circular recipe reference skipped during BOM flattening",
				zap.String("recipe_id", recipe.ID),
				zap.String("nested_recipe_id", ref.NestedRecipeID),
			)
			continue
		}
		visited[ref.NestedRecipeID] = struct{}{}

		nested, err := c.recipes.FindByID(ctx, ref.NestedRecipeID)
		if err != nil {
			return fmt.Errorf("compute bom: load nested recipe %s: %w", ref.NestedRecipeID, err)
		}

		if err := c.compute(ctx, nested, multiplier.Mul(ref.Quantity), visited, bom); err != nil {
			return err
		}
	}

	return nil
}

// Uses reports whether the recipe transitively requires the product,
// walking the same cycle-safe traversal as Compute
func (c *BOMCalculator) Uses(ctx context.Context, recipe *Recipe, productID string) (bool, error) {
	bom, err := c.Compute(ctx, recipe)
	if err != nil {
		return false, err
	}
	_, ok := bom.ProductIDs[productID]
	return ok, nil
}
