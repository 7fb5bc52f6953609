package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is the transactional boundary the service commits through: the
// movement's marked delta and the product stock adjustments must land
// atomically or not at all.
type Ledger interface {
	// ApplyMovement persists the movement (delta rows and AppliedAt
	// included), increments product quantities by the delta and applies
	// purchase cost overrides, all in one transaction
	ApplyMovement(ctx context.Context, m *movement.Movement, costOverrides map[string]decimal.Decimal) error
	// AdjustQuantities increments product quantities by the signed delta
	// in one transaction
	AdjustQuantities(ctx context.Context, delta map[string]decimal.Decimal) error
}

// LedgerService applies and reverses movement stock deltas. Application is
// idempotent through the movement's persisted AppliedAt: a redelivered
// create-trigger finds the mark and does nothing. Reversal trusts only the
// persisted delta rows, never a recomputation, because recipe definitions
// may have changed since the movement was applied.
type LedgerService struct {
	movements movement.MovementRepository
	products  catalog.ProductRepository
	engine    *movement.DeltaEngine
	ledger    Ledger
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	movements movement.MovementRepository,
	products catalog.ProductRepository,
	engine *movement.DeltaEngine,
	ledger Ledger,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		movements: movements,
		products:  products,
		engine:    engine,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// Apply computes the movement's stock delta and commits it together with
// the applied mark. Purchase lines carrying a unit cost also rewrite the
// product's persisted cost; the resulting cost-change events feed the
// costing cascade after the transaction commits.
func (s *LedgerService) Apply(ctx context.Context, movementID string) error {
	m, err := s.movements.FindByID(ctx, movementID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("movement vanished before its delta was applied",
				zap.String("movement_id", movementID),
			)
			return nil
		}
		return fmt.Errorf("apply movement %s: %w", movementID, err)
	}

	if m.IsApplied() {
		s.logger.Debug("movement delta already applied, skipping",
			zap.String("movement_id", movementID),
			zap.Timep("applied_at", m.AppliedAt),
		)
		return nil
	}

	delta, err := s.engine.ComputeDelta(ctx, m)
	if err != nil {
		return fmt.Errorf("apply movement %s: %w", movementID, err)
	}

	overrides := m.CostOverrides()
	oldCosts, err := s.snapshotCosts(ctx, overrides)
	if err != nil {
		return fmt.Errorf("apply movement %s: %w", movementID, err)
	}

	// An empty delta still gets the applied mark so a redelivery of the
	// same trigger stays a no-op.
	if err := m.MarkApplied(delta, time.Now()); err != nil {
		if errors.Is(err, shared.ErrAlreadyApplied) {
			return nil
		}
		return fmt.Errorf("apply movement %s: %w", movementID, err)
	}

	if err := s.ledger.ApplyMovement(ctx, m, overrides); err != nil {
		return fmt.Errorf("apply movement %s: %w", movementID, err)
	}

	s.logger.Info("movement delta applied",
		zap.String("movement_id", movementID),
		zap.String("type", m.Type.String()),
		zap.Int("products", len(delta)),
	)

	s.emitCostChanges(ctx, overrides, oldCosts)
	s.emitThresholdAlerts(ctx, delta)

	return nil
}

// Reverse undoes a deleted movement's stock effect by applying the negated
// persisted delta. A movement that never got the applied mark moved no
// stock, so its deletion needs none either.
func (s *LedgerService) Reverse(ctx context.Context, m *movement.Movement) error {
	if m == nil {
		return fmt.Errorf("reverse movement: movement is nil")
	}
	if !m.IsApplied() {
		s.logger.Info("deleted movement was never applied, nothing to reverse",
			zap.String("movement_id", m.ID),
		)
		return nil
	}

	delta := m.DeltaMap()
	if len(delta) == 0 {
		return nil
	}

	if err := s.ledger.AdjustQuantities(ctx, movement.Negate(delta)); err != nil {
		return fmt.Errorf("reverse movement %s: %w", m.ID, err)
	}

	s.logger.Info("movement delta reversed",
		zap.String("movement_id", m.ID),
		zap.String("type", m.Type.String()),
		zap.Int("products", len(delta)),
	)

	s.emitThresholdAlerts(ctx, movement.Negate(delta))

	return nil
}

// snapshotCosts captures the current cost of every product a purchase
// override is about to rewrite, so the cost-change events can carry a real
// old value.
func (s *LedgerService) snapshotCosts(ctx context.Context, overrides map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	if len(overrides) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("snapshot costs: %w", err)
	}

	oldCosts := make(map[string]decimal.Decimal, len(products))
	for i := range products {
		oldCosts[products[i].ID] = products[i].Cost
	}
	return oldCosts, nil
}

// emitCostChanges publishes a cost-change event for every override that
// actually moved a product's cost. Publishing happens after the ledger
// transaction committed so the cascade always reads the new figures.
func (s *LedgerService) emitCostChanges(ctx context.Context, overrides, oldCosts map[string]decimal.Decimal) {
	if s.publisher == nil || len(overrides) == 0 {
		return
	}

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to reload products for cost-change events", zap.Error(err))
		return
	}

	for i := range products {
		p := &products[i]
		oldCost, ok := oldCosts[p.ID]
		if !ok || oldCost.Equal(p.Cost) {
			continue
		}
		event := catalog.NewProductCostChangedEvent(p, oldCost, p.Cost)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish product cost change",
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
		}
	}
}

// emitThresholdAlerts re-reads the products a delta drained and publishes
// a threshold event for each one now under its minimum.
func (s *LedgerService) emitThresholdAlerts(ctx context.Context, delta map[string]decimal.Decimal) {
	if s.publisher == nil || len(delta) == 0 {
		return
	}

	ids := make([]string, 0, len(delta))
	for id, qty := range delta {
		if qty.IsNegative() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to reload products for threshold alerts", zap.Error(err))
		return
	}

	for i := range products {
		p := &products[i]
		if !p.IsBelowMinimum() {
			continue
		}
		if err := s.publisher.Publish(ctx, catalog.NewStockBelowThresholdEvent(p)); err != nil {
			s.logger.Error("failed to publish stock threshold alert",
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
		}
	}
}
