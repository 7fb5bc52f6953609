package movement

import (
	"github.com/bakehouse/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeMovement = "Movement"

// Event type constants
const (
	EventTypeMovementCreated = "MovementCreated"
	EventTypeMovementDeleted = "MovementDeleted"
)

// MovementCreatedEvent fires once per newly recorded movement. The handler
// computes and applies the stock delta, guarded by the persisted AppliedAt.
type MovementCreatedEvent struct {
	shared.BaseDomainEvent
	MovementID string       `json:"movement_id"`
	Type       MovementType `json:"type"`
}

// NewMovementCreatedEvent creates a new MovementCreatedEvent
func NewMovementCreatedEvent(m *Movement) *MovementCreatedEvent {
	return &MovementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementCreated, AggregateTypeMovement, m.ID),
		MovementID:      m.ID,
		Type:            m.Type,
	}
}

// MovementDeletedEvent fires after a movement document is removed,
// carrying the last-known field set including the persisted delta so the
// handler can reverse it without further reads
type MovementDeletedEvent struct {
	shared.BaseDomainEvent
	Movement *Movement `json:"movement"`
}

// NewMovementDeletedEvent creates a new MovementDeletedEvent
func NewMovementDeletedEvent(m *Movement) *MovementDeletedEvent {
	return &MovementDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementDeleted, AggregateTypeMovement, m.ID),
		Movement:        m,
	}
}
