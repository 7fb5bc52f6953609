package persistence

import (
	"context"
	"errors"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRecipeRepository implements RecipeRepository using GORM. Recipes are
// always loaded with their sections, items and nested references: the
// costing code treats a loaded recipe as the full aggregate.
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GormRecipeRepository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// FindByID finds a recipe by its ID with all associations loaded
func (r *GormRecipeRepository) FindByID(ctx context.Context, id string) (*catalog.Recipe, error) {
	var recipe catalog.Recipe
	if err := r.withAssociations(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// FindAll finds all recipes matching the filter
func (r *GormRecipeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Recipe, error) {
	var recipes []catalog.Recipe
	query := applyFilter(r.withAssociations(ctx).Model(&catalog.Recipe{}), filter, RecipeSortFields)

	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// FindUsingProduct returns recipes whose sections reference the product
// directly, oldest first. The stable creation order keeps cascade runs over
// the same data deterministic.
func (r *GormRecipeRepository) FindUsingProduct(ctx context.Context, productID string) ([]catalog.Recipe, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&catalog.Recipe{}).
		Distinct("recipes.id").
		Joins("JOIN recipe_sections ON recipe_sections.recipe_id = recipes.id").
		Joins("JOIN recipe_section_items ON recipe_section_items.section_id = recipe_sections.id").
		Where("recipe_section_items.product_id = ?", productID).
		Pluck("recipes.id", &ids).Error; err != nil {
		return nil, err
	}

	return r.findOrderedByCreation(ctx, ids)
}

// FindNesting returns recipes that nest the given recipe as a sub-component,
// oldest first
func (r *GormRecipeRepository) FindNesting(ctx context.Context, recipeID string) ([]catalog.Recipe, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&catalog.Recipe{}).
		Distinct("recipes.id").
		Joins("JOIN recipe_references ON recipe_references.recipe_id = recipes.id").
		Where("recipe_references.nested_recipe_id = ?", recipeID).
		Pluck("recipes.id", &ids).Error; err != nil {
		return nil, err
	}

	return r.findOrderedByCreation(ctx, ids)
}

// Save creates or updates a recipe together with its sections, items and
// nested references
func (r *GormRecipeRepository) Save(ctx context.Context, recipe *catalog.Recipe) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(recipe).Error
}

// Delete deletes a recipe and its owned rows
func (r *GormRecipeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&catalog.Recipe{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		var sectionIDs []string
		if err := tx.Model(&catalog.RecipeSection{}).
			Where("recipe_id = ?", id).
			Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			if err := tx.Delete(&catalog.SectionItem{}, "section_id IN ?", sectionIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&catalog.RecipeSection{}, "recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&catalog.RecipeReference{}, "recipe_id = ?", id).Error
	})
}

// Count counts recipes matching the filter
func (r *GormRecipeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applySearch(r.db.WithContext(ctx).Model(&catalog.Recipe{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// withAssociations returns a query that preloads the full aggregate
func (r *GormRecipeRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Sections.Items").
		Preload("Sections").
		Preload("Nested")
}

// findOrderedByCreation loads full aggregates for the given IDs, oldest first
func (r *GormRecipeRepository) findOrderedByCreation(ctx context.Context, ids []string) ([]catalog.Recipe, error) {
	if len(ids) == 0 {
		return []catalog.Recipe{}, nil
	}

	var recipes []catalog.Recipe
	if err := r.withAssociations(ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Ensure GormRecipeRepository implements RecipeRepository
var _ catalog.RecipeRepository = (*GormRecipeRepository)(nil)
