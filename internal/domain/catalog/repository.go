package catalog

import (
	"context"

	"github.com/bakehouse/backend/internal/domain/shared"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// RecipeRepository defines persistence operations for recipes.
// FindUsingProduct and FindNesting are the two graph queries the costing
// cascades are built on: direct product consumers and direct parents.
type RecipeRepository interface {
	FindByID(ctx context.Context, id string) (*Recipe, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Recipe, error)
	// FindUsingProduct returns recipes whose sections reference the product directly
	FindUsingProduct(ctx context.Context, productID string) ([]Recipe, error)
	// FindNesting returns recipes that nest the given recipe as a sub-component
	FindNesting(ctx context.Context, recipeID string) ([]Recipe, error)
	Save(ctx context.Context, recipe *Recipe) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// RecipeSource is the narrow read interface the BOM calculator and the
// stock delta engine need: one storage read per distinct recipe node
type RecipeSource interface {
	FindByID(ctx context.Context, id string) (*Recipe, error)
}
