package stock

import (
	"context"
	"fmt"

	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/bakehouse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MovementCreatedHandler applies a new movement's stock delta off the bus
type MovementCreatedHandler struct {
	service *LedgerService
	logger  *zap.Logger
}

// NewMovementCreatedHandler creates a new MovementCreatedHandler
func NewMovementCreatedHandler(service *LedgerService, logger *zap.Logger) *MovementCreatedHandler {
	return &MovementCreatedHandler{service: service, logger: logger}
}

// Handle processes a MovementCreatedEvent
func (h *MovementCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*movement.MovementCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			movement.EventTypeMovementCreated, event.EventType())
	}
	return h.service.Apply(ctx, e.MovementID)
}

// EventTypes returns the event types this handler is interested in
func (h *MovementCreatedHandler) EventTypes() []string {
	return []string{movement.EventTypeMovementCreated}
}

// MovementDeletedHandler reverses a deleted movement's persisted delta.
// The event carries the last-known document because the row is already
// gone by the time the handler runs.
type MovementDeletedHandler struct {
	service *LedgerService
	logger  *zap.Logger
}

// NewMovementDeletedHandler creates a new MovementDeletedHandler
func NewMovementDeletedHandler(service *LedgerService, logger *zap.Logger) *MovementDeletedHandler {
	return &MovementDeletedHandler{service: service, logger: logger}
}

// Handle processes a MovementDeletedEvent
func (h *MovementDeletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*movement.MovementDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			movement.EventTypeMovementDeleted, event.EventType())
	}
	if e.Movement == nil {
		h.logger.Warn("movement deleted event without a payload, nothing to reverse",
			zap.String("aggregate_id", event.AggregateID()),
		)
		return nil
	}
	return h.service.Reverse(ctx, e.Movement)
}

// EventTypes returns the event types this handler is interested in
func (h *MovementDeletedHandler) EventTypes() []string {
	return []string{movement.EventTypeMovementDeleted}
}

// Interface guards
var (
	_ shared.EventHandler = (*MovementCreatedHandler)(nil)
	_ shared.EventHandler = (*MovementDeletedHandler)(nil)
)
