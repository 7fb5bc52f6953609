package stock

import (
	"context"
	"time"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MovementLineRequest is one line of a movement being recorded
type MovementLineRequest struct {
	Collection   string           `json:"collection" binding:"required,oneof=products recipes"`
	CollectionID string           `json:"collection_id" binding:"required"`
	Quantity     decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
}

// CreateMovementRequest represents a request to record a purchase or sale
type CreateMovementRequest struct {
	Type           string                `json:"type" binding:"required,oneof=PURCHASE SALE"`
	CounterpartyID string                `json:"counterparty_id"`
	Lines          []MovementLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// MovementLineResponse is one movement line in API responses
type MovementLineResponse struct {
	ID           string          `json:"id"`
	Collection   string          `json:"collection"`
	CollectionID string          `json:"collection_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// DeltaEntryResponse is one persisted delta row in API responses
type DeltaEntryResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// MovementResponse represents a movement in API responses
type MovementResponse struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	CounterpartyID string                 `json:"counterparty_id"`
	Lines          []MovementLineResponse `json:"lines"`
	Delta          []DeltaEntryResponse   `json:"delta"`
	AppliedAt      *time.Time             `json:"applied_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

// ToMovementResponse converts a domain Movement to MovementResponse
func ToMovementResponse(m *movement.Movement) MovementResponse {
	lines := make([]MovementLineResponse, 0, len(m.Lines))
	for _, line := range m.Lines {
		lines = append(lines, MovementLineResponse{
			ID:           line.ID,
			Collection:   string(line.Collection),
			CollectionID: line.CollectionID,
			Quantity:     line.Quantity,
			UnitCost:     line.UnitCost,
		})
	}

	delta := make([]DeltaEntryResponse, 0, len(m.Delta))
	for _, entry := range m.Delta {
		delta = append(delta, DeltaEntryResponse{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
		})
	}

	return MovementResponse{
		ID:             m.ID,
		Type:           m.Type.String(),
		CounterpartyID: m.CounterpartyID,
		Lines:          lines,
		Delta:          delta,
		AppliedAt:      m.AppliedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Version:        m.Version,
	}
}

// MovementService records and removes movements. The created event it
// publishes after saving is what drives the ledger; deletion publishes the
// last-known document so the handler can reverse the persisted delta.
type MovementService struct {
	movements movement.MovementRepository
	products  catalog.ProductRepository
	recipes   catalog.RecipeSource
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewMovementService creates a new MovementService
func NewMovementService(
	movements movement.MovementRepository,
	products catalog.ProductRepository,
	recipes catalog.RecipeSource,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *MovementService {
	return &MovementService{
		movements: movements,
		products:  products,
		recipes:   recipes,
		publisher: publisher,
		logger:    logger,
	}
}

// Create records a new movement and publishes its created event
func (s *MovementService) Create(ctx context.Context, req CreateMovementRequest) (*MovementResponse, error) {
	m, err := movement.NewMovement(movement.MovementType(req.Type), req.CounterpartyID)
	if err != nil {
		return nil, err
	}

	for _, lineReq := range req.Lines {
		collection := movement.LineCollection(lineReq.Collection)
		if err := s.verifyReference(ctx, collection, lineReq.CollectionID); err != nil {
			return nil, err
		}

		unitCost := decimal.Zero
		if lineReq.UnitCost != nil {
			unitCost = *lineReq.UnitCost
		}
		if err := m.AddLine(collection, lineReq.CollectionID, lineReq.Quantity, unitCost); err != nil {
			return nil, err
		}
	}

	if err := s.movements.Save(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("movement recorded",
		zap.String("movement_id", m.ID),
		zap.String("type", m.Type.String()),
		zap.Int("lines", len(m.Lines)),
	)

	s.publishEvents(ctx, m)

	resp := ToMovementResponse(m)
	return &resp, nil
}

// Get returns a single movement
func (s *MovementService) Get(ctx context.Context, id string) (*MovementResponse, error) {
	m, err := s.movements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMovementResponse(m)
	return &resp, nil
}

// List returns a paginated movement listing
func (s *MovementService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[MovementResponse], error) {
	movements, err := s.movements.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.movements.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, ToMovementResponse(&movements[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Delete removes a movement and publishes the deleted event carrying the
// last-known document, delta included
func (s *MovementService) Delete(ctx context.Context, id string) error {
	m, err := s.movements.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.movements.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("movement deleted",
		zap.String("movement_id", m.ID),
		zap.String("type", m.Type.String()),
		zap.Bool("was_applied", m.IsApplied()),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, movement.NewMovementDeletedEvent(m)); err != nil {
			s.logger.Error("failed to publish movement deleted event",
				zap.String("movement_id", m.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// verifyReference checks the referenced product or recipe exists
func (s *MovementService) verifyReference(ctx context.Context, collection movement.LineCollection, id string) error {
	switch collection {
	case movement.CollectionProducts:
		if _, err := s.products.FindByID(ctx, id); err != nil {
			return shared.NewDomainError("INVALID_PRODUCT", "Referenced product does not exist: "+id)
		}
	case movement.CollectionRecipes:
		if _, err := s.recipes.FindByID(ctx, id); err != nil {
			return shared.NewDomainError("INVALID_RECIPE", "Referenced recipe does not exist: "+id)
		}
	}
	return nil
}

func (s *MovementService) publishEvents(ctx context.Context, m *movement.Movement) {
	if s.publisher == nil {
		return
	}
	events := m.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish movement events",
			zap.String("movement_id", m.ID),
			zap.Error(err),
		)
	}
	m.ClearDomainEvents()
}
