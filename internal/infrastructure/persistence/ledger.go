package persistence

import (
	"context"
	"time"

	"github.com/bakehouse/backend/internal/application/stock"
	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockLedger commits movement applications atomically: the movement with
// its delta rows and applied mark, the product quantity increments and any
// purchase cost overrides land in one transaction. Quantity writes are
// relative (quantity + delta) so concurrent movements never clobber each
// other's stock.
type StockLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStockLedger creates a new StockLedger
func NewStockLedger(db *gorm.DB, logger *zap.Logger) *StockLedger {
	return &StockLedger{db: db, logger: logger}
}

// ApplyMovement persists the marked movement and applies its stock effect
func (l *StockLedger) ApplyMovement(ctx context.Context, m *movement.Movement, costOverrides map[string]decimal.Decimal) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(m).Error; err != nil {
			return err
		}

		if err := l.incrementQuantities(tx, m.DeltaMap()); err != nil {
			return err
		}

		for productID, cost := range costOverrides {
			result := tx.Model(&catalog.Product{}).
				Where("id = ?", productID).
				Updates(map[string]any{
					"cost":       cost.Round(4),
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				l.logger.Warn("cost override references unknown product",
					zap.String("product_id", productID),
					zap.String("movement_id", m.ID),
				)
			}
		}

		return nil
	})
}

// AdjustQuantities increments product quantities by the signed delta in one
// transaction
func (l *StockLedger) AdjustQuantities(ctx context.Context, delta map[string]decimal.Decimal) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.incrementQuantities(tx, delta)
	})
}

func (l *StockLedger) incrementQuantities(tx *gorm.DB, delta map[string]decimal.Decimal) error {
	for productID, qty := range delta {
		if qty.IsZero() {
			continue
		}
		result := tx.Model(&catalog.Product{}).
			Where("id = ?", productID).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", qty),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			l.logger.Warn("stock delta references unknown product",
				zap.String("product_id", productID),
			)
		}
	}
	return nil
}

// Ensure StockLedger implements stock.Ledger
var _ stock.Ledger = (*StockLedger)(nil)
