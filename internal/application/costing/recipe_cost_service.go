package costing

import (
	"context"
	"fmt"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMaxDepth is the last-resort recursion bound for one cascade root
const DefaultMaxDepth = 10

// DefaultNoiseFloor is the cost difference below which propagation stops
const DefaultNoiseFloor = "0.01"

// RecipeCostService propagates a recipe cost change upward through every
// parent recipe that nests it, depth-first and cycle-safe. Instead of
// relying on the store's change-trigger re-delivery, a write performed
// inside the cascade recurses directly into the parent's own parents,
// which keeps the control flow explicit and synchronous.
type RecipeCostService struct {
	recipes    catalog.RecipeRepository
	publisher  shared.EventPublisher
	logger     *zap.Logger
	maxDepth   int
	noiseFloor decimal.Decimal
}

// NewRecipeCostService creates a new RecipeCostService with default guards
func NewRecipeCostService(recipes catalog.RecipeRepository, publisher shared.EventPublisher, logger *zap.Logger) *RecipeCostService {
	noiseFloor, _ := decimal.NewFromString(DefaultNoiseFloor)
	return &RecipeCostService{
		recipes:    recipes,
		publisher:  publisher,
		logger:     logger,
		maxDepth:   DefaultMaxDepth,
		noiseFloor: noiseFloor,
	}
}

// WithMaxDepth overrides the recursion depth bound
func (s *RecipeCostService) WithMaxDepth(maxDepth int) *RecipeCostService {
	if maxDepth > 0 {
		s.maxDepth = maxDepth
	}
	return s
}

// WithNoiseFloor overrides the minimum propagated cost difference
func (s *RecipeCostService) WithNoiseFloor(floor decimal.Decimal) *RecipeCostService {
	if floor.GreaterThan(decimal.Zero) {
		s.noiseFloor = floor
	}
	return s
}

// OnRecipeCostChanged is the trigger entrypoint for a recipe cost change
// that did not come from a running cascade (a direct edit). It starts a
// fresh cascade run scoped to this invocation.
func (s *RecipeCostService) OnRecipeCostChanged(ctx context.Context, recipeID string, oldCost, newCost decimal.Decimal) error {
	state := newCascadeState(recipeID)
	state.markVisited(recipeID)
	return s.cascade(ctx, state, recipeID, oldCost, newCost)
}

// cascade propagates one recipe's cost difference to its direct parents.
// The product-cost cascade re-enters here with its own shared state, so
// that sibling updates within one product change never touch the same
// recipe twice.
func (s *RecipeCostService) cascade(ctx context.Context, state *cascadeState, recipeID string, oldCost, newCost decimal.Decimal) error {
	// The trigger layer only fires on an actual field change; an equal
	// pair means there is nothing to propagate.
	if oldCost.Equal(newCost) {
		return nil
	}

	if !state.bumpDepth(recipeID, s.maxDepth) {
		s.logger.Error("recipe cost cascade aborted: recursion depth limit reached",
			zap.String("recipe_id", recipeID),
			zap.Int("max_depth", s.maxDepth),
		)
		return nil
	}

	// A write produced by our own recursion has already had its parents
	// updated by the caller's recursion; re-propagating would duplicate
	// that work or loop a cycle forever.
	if state.takeOrigin(recipeID) == catalog.OriginCascade {
		return nil
	}

	diff := newCost.Sub(oldCost)
	if diff.Abs().LessThan(s.noiseFloor) {
		return nil
	}

	parents, err := s.recipes.FindNesting(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("recipe cost cascade: find parents of %s: %w", recipeID, err)
	}
	if len(parents) == 0 {
		return nil
	}

	for i := range parents {
		if parents[i].ID == recipeID {
			s.logger.Warn("recipe lists itself as its own parent, branch skipped",
				zap.String("recipe_id", recipeID),
			)
			continue
		}
		if err := s.updateParentCost(ctx, state, &parents[i], recipeID, diff, 0); err != nil {
			return err
		}
	}

	return nil
}

// updateParentCost applies a child's cost difference to one parent and
// recurses into the grandparents with the parent's own difference. Every
// guard aborts the branch gracefully; an abandoned branch surfaces as a
// stale cached cost, never as a loop or a crash.
func (s *RecipeCostService) updateParentCost(ctx context.Context, state *cascadeState, parent *catalog.Recipe, childID string, childDiff decimal.Decimal, depth int) error {
	if depth >= s.maxDepth {
		s.logger.Error("recipe cost cascade branch abandoned: recursion depth limit reached",
			zap.String("recipe_id", parent.ID),
			zap.Int("max_depth", s.maxDepth),
		)
		return nil
	}
	if parent.ID == state.root {
		s.logger.Warn("circular recipe dependency: cascade looped back to its root",
			zap.String("recipe_id", parent.ID),
		)
		return nil
	}
	if state.isVisited(parent.ID) {
		return nil
	}
	if !state.enterProcessing(parent.ID) {
		s.logger.Warn("circular recipe dependency: parent already being updated on this call stack",
			zap.String("recipe_id", parent.ID),
			zap.String("child_id", childID),
		)
		return nil
	}
	defer state.leaveProcessing(parent.ID)

	nestQty := parent.NestedQuantityOf(childID)
	if nestQty.IsZero() {
		state.markVisited(parent.ID)
		return nil
	}

	oldCost := parent.Cost
	newCost := oldCost.Add(childDiff.Mul(nestQty).Div(parent.UnitCount())).Round(4)

	state.markOrigin(parent.ID, catalog.OriginCascade)
	parent.ApplyCostChange(newCost, catalog.OriginCascade)
	if parent.Cost.Equal(oldCost) {
		state.takeOrigin(parent.ID)
		state.markVisited(parent.ID)
		return nil
	}

	if err := s.recipes.Save(ctx, parent); err != nil {
		return fmt.Errorf("recipe cost cascade: save parent %s: %w", parent.ID, err)
	}
	state.markVisited(parent.ID)
	s.publish(ctx, parent)

	s.logger.Debug("recipe cost updated by cascade",
		zap.String("recipe_id", parent.ID),
		zap.String("child_id", childID),
		zap.String("old_cost", oldCost.String()),
		zap.String("new_cost", parent.Cost.String()),
	)

	parentDiff := parent.Cost.Sub(oldCost)
	if parentDiff.Abs().LessThan(s.noiseFloor) {
		return nil
	}

	grandparents, err := s.recipes.FindNesting(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("recipe cost cascade: find parents of %s: %w", parent.ID, err)
	}

	for i := range grandparents {
		if state.isVisited(grandparents[i].ID) {
			continue
		}
		if err := s.updateParentCost(ctx, state, &grandparents[i], parent.ID, parentDiff, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// publish flushes the aggregate's pending domain events to the bus
func (s *RecipeCostService) publish(ctx context.Context, recipe *catalog.Recipe) {
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
