package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMovementRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMovementRepository(db)
	ctx := context.Background()

	t.Run("round trips a movement with lines", func(t *testing.T) {
		m, err := movement.NewMovement(movement.MovementTypePurchase, "supplier-1")
		require.NoError(t, err)
		require.NoError(t, m.AddLine(movement.CollectionProducts, "flour-1", decimal.NewFromInt(10), decimal.NewFromFloat(1.9)))
		require.NoError(t, m.AddLine(movement.CollectionRecipes, "croissant-1", decimal.NewFromInt(4), decimal.Zero))
		require.NoError(t, repo.Save(ctx, m))

		loaded, err := repo.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, movement.MovementTypePurchase, loaded.Type)
		assert.Equal(t, "supplier-1", loaded.CounterpartyID)
		assert.False(t, loaded.IsApplied())
		require.Len(t, loaded.Lines, 2)
		assert.Equal(t, "flour-1", loaded.Lines[0].CollectionID)
		assert.True(t, loaded.Lines[0].UnitCost.Equal(decimal.NewFromFloat(1.9)))
	})

	t.Run("persists the applied mark and delta rows", func(t *testing.T) {
		m, err := movement.NewMovement(movement.MovementTypeSale, "customer-1")
		require.NoError(t, err)
		require.NoError(t, m.AddLine(movement.CollectionProducts, "flour-1", decimal.NewFromInt(2), decimal.Zero))
		require.NoError(t, repo.Save(ctx, m))

		delta := map[string]decimal.Decimal{
			"flour-1": decimal.NewFromInt(-2),
		}
		require.NoError(t, m.MarkApplied(delta, time.Now()))
		require.NoError(t, repo.Save(ctx, m))

		loaded, err := repo.FindByID(ctx, m.ID)
		require.NoError(t, err)
		require.True(t, loaded.IsApplied())
		reloaded := loaded.DeltaMap()
		require.Len(t, reloaded, 1)
		assert.True(t, reloaded["flour-1"].Equal(decimal.NewFromInt(-2)))
	})

	t.Run("missing movement yields ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "no-such-id")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormMovementRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMovementRepository(db)
	ctx := context.Background()

	older, err := movement.NewMovement(movement.MovementTypePurchase, "")
	require.NoError(t, err)
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, older))

	newer, err := movement.NewMovement(movement.MovementTypeSale, "")
	require.NoError(t, err)
	require.NoError(t, newer.AddLine(movement.CollectionProducts, "flour-1", decimal.NewFromInt(1), decimal.Zero))
	require.NoError(t, repo.Save(ctx, newer))

	movements, err := repo.FindAll(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, movements, 2)
	// Default filter orders created_at desc
	assert.Equal(t, newer.ID, movements[0].ID)
	assert.Len(t, movements[0].Lines, 1)

	count, err := repo.Count(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormMovementRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMovementRepository(db)
	ctx := context.Background()

	t.Run("deletes an existing movement", func(t *testing.T) {
		m, err := movement.NewMovement(movement.MovementTypePurchase, "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, m))

		require.NoError(t, repo.Delete(ctx, m.ID))

		_, err = repo.FindByID(ctx, m.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing movement yields ErrNotFound", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, "no-such-id"), shared.ErrNotFound)
	})
}
