package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductCostService reacts to a product's unit cost change by updating
// every recipe that references the product directly and letting each
// update flow into the recipe cost cascade. One invocation shares a
// single cascade state, so a recipe reached both directly and through a
// sibling's cascade is updated exactly once.
type ProductCostService struct {
	recipes     catalog.RecipeRepository
	bom         *catalog.BOMCalculator
	recipeCosts *RecipeCostService
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewProductCostService creates a new ProductCostService
func NewProductCostService(
	recipes catalog.RecipeRepository,
	bom *catalog.BOMCalculator,
	recipeCosts *RecipeCostService,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ProductCostService {
	return &ProductCostService{
		recipes:     recipes,
		bom:         bom,
		recipeCosts: recipeCosts,
		publisher:   publisher,
		logger:      logger,
	}
}

// OnProductCostChanged is the trigger entrypoint for a product cost
// change. Affected recipes are swept in two passes: a recipe whose
// nested sub-recipe also uses the product, and whose sub-recipe has not
// been rewritten since the change, is deferred to the second pass so the
// sub-recipe settles first. The sweep is a heuristic ordering, not a
// topological sort; the shared visited set keeps it from ever updating a
// recipe twice.
func (s *ProductCostService) OnProductCostChanged(ctx context.Context, productID string, oldCost, newCost decimal.Decimal, changedAt time.Time) error {
	if oldCost.Equal(newCost) {
		return nil
	}
	diff := newCost.Sub(oldCost)

	affected, err := s.recipes.FindUsingProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("product cost cascade: find recipes using %s: %w", productID, err)
	}
	if len(affected) == 0 {
		return nil
	}

	s.logger.Info("product cost changed, sweeping dependent recipes",
		zap.String("product_id", productID),
		zap.String("old_cost", oldCost.String()),
		zap.String("new_cost", newCost.String()),
		zap.Int("recipes", len(affected)),
	)

	state := newCascadeState(productID)
	deferred := make([]*catalog.Recipe, 0)

	for i := range affected {
		recipe := &affected[i]
		if state.isVisited(recipe.ID) {
			continue
		}

		wait, err := s.shouldDefer(ctx, recipe, productID, changedAt)
		if err != nil {
			return err
		}
		if wait {
			s.logger.Debug("recipe deferred until its sub-recipes settle",
				zap.String("recipe_id", recipe.ID),
				zap.String("product_id", productID),
			)
			deferred = append(deferred, recipe)
			continue
		}

		if err := s.updateRecipeCost(ctx, state, recipe, productID, diff); err != nil {
			return err
		}
	}

	// Second pass: deferred recipes are processed after their siblings.
	// Any of them already rewritten by a sibling's cascade is left
	// alone; the rest are updated now even if their sub-recipes are
	// still stale, since a later write re-triggers naturally.
	for _, recipe := range deferred {
		if state.isVisited(recipe.ID) {
			continue
		}
		if err := s.updateRecipeCost(ctx, state, recipe, productID, diff); err != nil {
			return err
		}
	}

	return nil
}

// shouldDefer reports whether the recipe's update must wait for one of
// its nested sub-recipes: a sub-recipe that transitively uses the changed
// product and has not been written since the change would otherwise feed
// a stale cost into the parent. The timestamp comparison is best-effort
// ordering, not a consistency guarantee.
func (s *ProductCostService) shouldDefer(ctx context.Context, recipe *catalog.Recipe, productID string, changedAt time.Time) (bool, error) {
	for _, ref := range recipe.Nested {
		sub, err := s.recipes.FindByID(ctx, ref.NestedRecipeID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("nested recipe missing, reference ignored",
					zap.String("recipe_id", recipe.ID),
					zap.String("nested_recipe_id", ref.NestedRecipeID),
				)
				continue
			}
			return false, fmt.Errorf("product cost cascade: load nested recipe %s: %w", ref.NestedRecipeID, err)
		}

		uses, err := s.bom.Uses(ctx, sub, productID)
		if err != nil {
			return false, err
		}
		if uses && sub.UpdatedAt.Before(changedAt) {
			return true, nil
		}
	}
	return false, nil
}

// updateRecipeCost applies the weighted cost difference of the product's
// direct lines to one recipe and re-enters the recipe cost cascade with
// the shared state, tagging the write as a product-update so the cascade
// treats it as a legitimate first step.
func (s *ProductCostService) updateRecipeCost(ctx context.Context, state *cascadeState, recipe *catalog.Recipe, productID string, costDiff decimal.Decimal) error {
	qty := recipe.ProductQuantity(productID)
	if qty.IsZero() {
		return nil
	}

	oldCost := recipe.Cost
	newCost := oldCost.Add(qty.Mul(costDiff).Div(recipe.UnitCount())).Round(4)

	state.markOrigin(recipe.ID, catalog.OriginProductUpdate)
	recipe.ApplyCostChange(newCost, catalog.OriginProductUpdate)
	if recipe.Cost.Equal(oldCost) {
		state.takeOrigin(recipe.ID)
		state.markVisited(recipe.ID)
		return nil
	}

	if err := s.recipes.Save(ctx, recipe); err != nil {
		return fmt.Errorf("product cost cascade: save recipe %s: %w", recipe.ID, err)
	}
	state.markVisited(recipe.ID)
	s.publishEvents(ctx, recipe)

	s.logger.Debug("recipe cost updated from product change",
		zap.String("recipe_id", recipe.ID),
		zap.String("product_id", productID),
		zap.String("old_cost", oldCost.String()),
		zap.String("new_cost", recipe.Cost.String()),
	)

	return s.recipeCosts.cascade(ctx, state, recipe.ID, oldCost, recipe.Cost)
}

// publishEvents flushes the aggregate's pending domain events to the bus
func (s *ProductCostService) publishEvents(ctx context.Context, recipe *catalog.Recipe) {
	if s.publisher == nil {
		return
	}
	events := recipe.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish recipe events",
			zap.String("recipe_id", recipe.ID),
			zap.Error(err),
		)
	}
	recipe.ClearDomainEvents()
}
