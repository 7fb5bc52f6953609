package movement

import (
	"context"
	"fmt"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DeltaEngine turns a movement's line items into a signed per-product
// stock delta. Product lines contribute directly; recipe lines are
// expanded through the BOM calculator and scaled by the line quantity.
type DeltaEngine struct {
	recipes catalog.RecipeSource
	bom     *catalog.BOMCalculator
	logger  *zap.Logger
}

// NewDeltaEngine creates a new DeltaEngine
func NewDeltaEngine(recipes catalog.RecipeSource, bom *catalog.BOMCalculator, logger *zap.Logger) *DeltaEngine {
	return &DeltaEngine{
		recipes: recipes,
		bom:     bom,
		logger:  logger,
	}
}

// ComputeDelta produces the productID → signed quantity map for one
// movement: purchases count positive, sales negative. Lines with a
// non-positive quantity are skipped with a warning, never fatally. An
// empty map means the movement moves no stock and callers must treat it
// as a no-op.
func (e *DeltaEngine) ComputeDelta(ctx context.Context, m *Movement) (map[string]decimal.Decimal, error) {
	if m == nil {
		return nil, fmt.Errorf("compute delta: movement is nil")
	}

	sign := m.Type.Sign()
	delta := make(map[string]decimal.Decimal)

	for _, line := range m.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			e.logger.Warn("movement line with non-positive quantity skipped",
				zap.String("movement_id", m.ID),
				zap.String("collection", string(line.Collection)),
				zap.String("collection_id", line.CollectionID),
				zap.String("quantity", line.Quantity.String()),
			)
			continue
		}

		switch line.Collection {
		case CollectionProducts:
			delta[line.CollectionID] = delta[line.CollectionID].Add(line.Quantity.Mul(sign))

		case CollectionRecipes:
			recipe, err := e.recipes.FindByID(ctx, line.CollectionID)
			if err != nil {
				return nil, fmt.Errorf("compute delta: load recipe %s: %w", line.CollectionID, err)
			}

			bom, err := e.bom.Compute(ctx, recipe)
			if err != nil {
				return nil, fmt.Errorf("compute delta: expand recipe %s: %w", line.CollectionID, err)
			}

			for productID, qty := range bom.Entries {
				delta[productID] = delta[productID].Add(qty.Mul(line.Quantity).Mul(sign))
			}

		default:
			e.logger.Warn("movement line with unknown collection skipped",
				zap.String("movement_id", m.ID),
				zap.String("collection", string(line.Collection)),
			)
		}
	}

	for productID := range delta {
		delta[productID] = delta[productID].Round(4)
		if delta[productID].IsZero() {
			delete(delta, productID)
		}
	}

	return delta, nil
}

// Negate returns a copy of the delta with every quantity negated; applying
// a delta and then its negation restores stock figures exactly
func Negate(delta map[string]decimal.Decimal) map[string]decimal.Decimal {
	negated := make(map[string]decimal.Decimal, len(delta))
	for productID, qty := range delta {
		negated[productID] = qty.Neg()
	}
	return negated
}
