package costing

import (
	"context"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductCostChangedHandler drives the product cost cascade off the
// event bus
type ProductCostChangedHandler struct {
	service *ProductCostService
	logger  *zap.Logger
}

// NewProductCostChangedHandler creates a new ProductCostChangedHandler
func NewProductCostChangedHandler(service *ProductCostService, logger *zap.Logger) *ProductCostChangedHandler {
	return &ProductCostChangedHandler{service: service, logger: logger}
}

// Handle processes a ProductCostChangedEvent
func (h *ProductCostChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*catalog.ProductCostChangedEvent)
	if !ok {
		h.logger.Warn("unexpected event payload",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
	return h.service.OnProductCostChanged(ctx, e.ProductID, e.OldCost, e.NewCost, e.ChangedAt)
}

// EventTypes returns the event types this handler is interested in
func (h *ProductCostChangedHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductCostChanged}
}

// RecipeCostChangedHandler drives the recipe cost cascade off the event
// bus. Only direct edits start a new cascade: writes tagged as
// product-update or recipe-cascade were produced inside a running
// cascade, which already propagated them with its own state.
type RecipeCostChangedHandler struct {
	service *RecipeCostService
	logger  *zap.Logger
}

// NewRecipeCostChangedHandler creates a new RecipeCostChangedHandler
func NewRecipeCostChangedHandler(service *RecipeCostService, logger *zap.Logger) *RecipeCostChangedHandler {
	return &RecipeCostChangedHandler{service: service, logger: logger}
}

// Handle processes a RecipeCostChangedEvent
func (h *RecipeCostChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*catalog.RecipeCostChangedEvent)
	if !ok {
		h.logger.Warn("unexpected event payload",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
	if e.Origin != catalog.OriginDirect {
		h.logger.Debug("recipe cost event already cascaded, skipping",
			zap.String("recipe_id", e.RecipeID),
			zap.String("origin", string(e.Origin)),
		)
		return nil
	}
	return h.service.OnRecipeCostChanged(ctx, e.RecipeID, e.OldCost, e.NewCost)
}

// EventTypes returns the event types this handler is interested in
func (h *RecipeCostChangedHandler) EventTypes() []string {
	return []string{catalog.EventTypeRecipeCostChanged}
}
