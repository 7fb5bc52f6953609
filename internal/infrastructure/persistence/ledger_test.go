package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStockLedger_ApplyMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("commits movement, quantities and cost overrides together", func(t *testing.T) {
		db := setupTestDB(t)
		products := NewGormProductRepository(db)
		movements := NewGormMovementRepository(db)
		ledger := NewStockLedger(db, zaptest.NewLogger(t))

		flour := newStoredProduct(t, "Flour", 10, 2)
		require.NoError(t, products.Save(ctx, flour))

		m, err := movement.NewMovement(movement.MovementTypePurchase, "supplier-1")
		require.NoError(t, err)
		require.NoError(t, m.AddLine(movement.CollectionProducts, flour.ID, decimal.NewFromInt(5), decimal.NewFromFloat(2.5)))
		require.NoError(t, m.MarkApplied(map[string]decimal.Decimal{
			flour.ID: decimal.NewFromInt(5),
		}, time.Now()))

		require.NoError(t, ledger.ApplyMovement(ctx, m, map[string]decimal.Decimal{
			flour.ID: decimal.NewFromFloat(2.5),
		}))

		loadedProduct, err := products.FindByID(ctx, flour.ID)
		require.NoError(t, err)
		assert.True(t, loadedProduct.Quantity.Equal(decimal.NewFromInt(15)),
			"quantity should be 15, got %s", loadedProduct.Quantity)
		assert.True(t, loadedProduct.Cost.Equal(decimal.NewFromFloat(2.5)))

		loadedMovement, err := movements.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, loadedMovement.IsApplied())
		assert.Len(t, loadedMovement.Delta, 1)
	})

	t.Run("applies without overrides", func(t *testing.T) {
		db := setupTestDB(t)
		products := NewGormProductRepository(db)
		ledger := NewStockLedger(db, zaptest.NewLogger(t))

		butter := newStoredProduct(t, "Butter", 6, 7)
		require.NoError(t, products.Save(ctx, butter))

		m, err := movement.NewMovement(movement.MovementTypeSale, "")
		require.NoError(t, err)
		require.NoError(t, m.MarkApplied(map[string]decimal.Decimal{
			butter.ID: decimal.NewFromFloat(-1.5),
		}, time.Now()))

		require.NoError(t, ledger.ApplyMovement(ctx, m, nil))

		loaded, err := products.FindByID(ctx, butter.ID)
		require.NoError(t, err)
		assert.True(t, loaded.Quantity.Equal(decimal.NewFromFloat(4.5)))
		assert.True(t, loaded.Cost.Equal(decimal.NewFromInt(7)), "cost must stay untouched")
	})

	t.Run("tolerates deltas referencing unknown products", func(t *testing.T) {
		db := setupTestDB(t)
		ledger := NewStockLedger(db, zaptest.NewLogger(t))

		m, err := movement.NewMovement(movement.MovementTypePurchase, "")
		require.NoError(t, err)
		require.NoError(t, m.MarkApplied(map[string]decimal.Decimal{
			"ghost-product": decimal.NewFromInt(3),
		}, time.Now()))

		assert.NoError(t, ledger.ApplyMovement(ctx, m, map[string]decimal.Decimal{
			"ghost-product": decimal.NewFromInt(9),
		}))
	})
}

func TestStockLedger_AdjustQuantities(t *testing.T) {
	ctx := context.Background()

	t.Run("applies signed increments", func(t *testing.T) {
		db := setupTestDB(t)
		products := NewGormProductRepository(db)
		ledger := NewStockLedger(db, zaptest.NewLogger(t))

		flour := newStoredProduct(t, "Flour", 10, 2)
		sugar := newStoredProduct(t, "Sugar", 3, 1)
		require.NoError(t, products.Save(ctx, flour))
		require.NoError(t, products.Save(ctx, sugar))

		require.NoError(t, ledger.AdjustQuantities(ctx, map[string]decimal.Decimal{
			flour.ID: decimal.NewFromInt(-4),
			sugar.ID: decimal.NewFromFloat(0.5),
		}))

		loadedFlour, err := products.FindByID(ctx, flour.ID)
		require.NoError(t, err)
		assert.True(t, loadedFlour.Quantity.Equal(decimal.NewFromInt(6)))

		loadedSugar, err := products.FindByID(ctx, sugar.ID)
		require.NoError(t, err)
		assert.True(t, loadedSugar.Quantity.Equal(decimal.NewFromFloat(3.5)))
	})

	t.Run("skips zero increments", func(t *testing.T) {
		db := setupTestDB(t)
		products := NewGormProductRepository(db)
		ledger := NewStockLedger(db, zaptest.NewLogger(t))

		flour := newStoredProduct(t, "Flour", 10, 2)
		require.NoError(t, products.Save(ctx, flour))
		before, err := products.FindByID(ctx, flour.ID)
		require.NoError(t, err)

		require.NoError(t, ledger.AdjustQuantities(ctx, map[string]decimal.Decimal{
			flour.ID: decimal.Zero,
		}))

		after, err := products.FindByID(ctx, flour.ID)
		require.NoError(t, err)
		assert.True(t, after.Quantity.Equal(before.Quantity))
		assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	})

	t.Run("stock can go negative", func(t *testing.T) {
		db := setupTestDB(t)
		products := NewGormProductRepository(db)
		ledger := NewStockLedger(db, zaptest.NewLogger(t))

		eggs := newStoredProduct(t, "Eggs", 2, 0.4)
		require.NoError(t, products.Save(ctx, eggs))

		require.NoError(t, ledger.AdjustQuantities(ctx, map[string]decimal.Decimal{
			eggs.ID: decimal.NewFromInt(-5),
		}))

		loaded, err := products.FindByID(ctx, eggs.ID)
		require.NoError(t, err)
		assert.True(t, loaded.Quantity.Equal(decimal.NewFromInt(-3)))
	})
}
