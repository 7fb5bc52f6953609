package catalog

import (
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeRecipe = "Recipe"

// Event type constant
const EventTypeRecipeCostChanged = "RecipeCostChanged"

// RecipeCostChangedEvent is published when a recipe's cached cost changes.
// Origin distinguishes a first-step update from a write produced by the
// cascade's own recursion, so the trigger handler can avoid re-propagating
// work the cascade already did.
type RecipeCostChangedEvent struct {
	shared.BaseDomainEvent
	RecipeID string           `json:"recipe_id"`
	Name     string           `json:"name"`
	OldCost  decimal.Decimal  `json:"old_cost"`
	NewCost  decimal.Decimal  `json:"new_cost"`
	Origin   CostChangeOrigin `json:"origin"`
}

// NewRecipeCostChangedEvent creates a new RecipeCostChangedEvent
func NewRecipeCostChangedEvent(recipe *Recipe, oldCost, newCost decimal.Decimal, origin CostChangeOrigin) *RecipeCostChangedEvent {
	return &RecipeCostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecipeCostChanged, AggregateTypeRecipe, recipe.ID),
		RecipeID:        recipe.ID,
		Name:            recipe.Name,
		OldCost:         oldCost,
		NewCost:         newCost,
		Origin:          origin,
	}
}
