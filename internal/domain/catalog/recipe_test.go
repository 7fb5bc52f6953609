package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipe_Sections(t *testing.T) {
	t.Run("adds sections and items", func(t *testing.T) {
		r, err := NewRecipe("Croissant")
		require.NoError(t, err)

		section, err := r.AddSection("dough")
		require.NoError(t, err)
		require.NoError(t, r.AddSectionItem(section.ID, "flour", decimal.NewFromFloat(0.5)))
		require.NoError(t, r.AddSectionItem(section.ID, "butter", decimal.NewFromFloat(0.3)))

		assert.True(t, r.UsesProduct("flour"))
		assert.False(t, r.UsesProduct("sugar"))
	})

	t.Run("rejects items for unknown sections", func(t *testing.T) {
		r, err := NewRecipe("Croissant")
		require.NoError(t, err)
		assert.Error(t, r.AddSectionItem("nope", "flour", decimal.NewFromInt(1)))
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		r, err := NewRecipe("Croissant")
		require.NoError(t, err)
		section, err := r.AddSection("dough")
		require.NoError(t, err)
		assert.Error(t, r.AddSectionItem(section.ID, "flour", decimal.Zero))
	})

	t.Run("sums duplicate product lines across sections", func(t *testing.T) {
		r, err := NewRecipe("Marble Cake")
		require.NoError(t, err)
		light, err := r.AddSection("light")
		require.NoError(t, err)
		dark, err := r.AddSection("dark")
		require.NoError(t, err)
		require.NoError(t, r.AddSectionItem(light.ID, "flour", decimal.NewFromFloat(0.4)))
		require.NoError(t, r.AddSectionItem(dark.ID, "flour", decimal.NewFromFloat(0.3)))

		assert.True(t, r.ProductQuantity("flour").Equal(decimal.NewFromFloat(0.7)))
	})
}

func TestRecipe_Nesting(t *testing.T) {
	r, err := NewRecipe("Layer Cake")
	require.NoError(t, err)
	require.NoError(t, r.AddNestedRecipe("sponge", decimal.NewFromInt(2)))
	require.NoError(t, r.AddNestedRecipe("sponge", decimal.NewFromInt(1)))

	assert.True(t, r.NestsRecipe("sponge"))
	assert.False(t, r.NestsRecipe("glaze"))
	assert.True(t, r.NestedQuantityOf("sponge").Equal(decimal.NewFromInt(3)))
	assert.True(t, r.NestedQuantityOf("glaze").IsZero())
}

func TestRecipe_ApplyCostChange(t *testing.T) {
	t.Run("updates cost and profit and emits a tagged event", func(t *testing.T) {
		r, err := NewRecipe("Tart")
		require.NoError(t, err)
		require.NoError(t, r.SetSalePrice(decimal.NewFromInt(30)))

		r.ApplyCostChange(decimal.NewFromInt(20), OriginDirect)

		assert.True(t, r.Cost.Equal(decimal.NewFromInt(20)))
		assert.True(t, r.ProfitPercent.Equal(decimal.NewFromInt(50)))

		events := r.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*RecipeCostChangedEvent)
		require.True(t, ok)
		assert.Equal(t, OriginDirect, event.Origin)
		assert.True(t, event.OldCost.IsZero())
		assert.True(t, event.NewCost.Equal(decimal.NewFromInt(20)))
	})

	t.Run("equal cost short-circuits", func(t *testing.T) {
		r, err := NewRecipe("Tart")
		require.NoError(t, err)
		r.ApplyCostChange(decimal.NewFromInt(20), OriginDirect)
		r.ClearDomainEvents()
		version := r.Version

		r.ApplyCostChange(decimal.NewFromInt(20), OriginCascade)

		assert.Empty(t, r.GetDomainEvents())
		assert.Equal(t, version, r.Version)
	})

	t.Run("profit is zero for non-positive cost", func(t *testing.T) {
		r, err := NewRecipe("Tart")
		require.NoError(t, err)
		require.NoError(t, r.SetSalePrice(decimal.NewFromInt(30)))
		assert.True(t, r.ProfitPercent.IsZero())
	})
}

func TestRecipe_UnitCount(t *testing.T) {
	r, err := NewRecipe("Rolls")
	require.NoError(t, err)

	assert.True(t, r.UnitCount().Equal(decimal.NewFromInt(1)))

	require.NoError(t, r.SetUnits(decimal.NewFromInt(12)))
	assert.True(t, r.UnitCount().Equal(decimal.NewFromInt(12)))

	// A zeroed batch size must never divide costs by zero
	require.NoError(t, r.SetUnits(decimal.Zero))
	assert.True(t, r.UnitCount().Equal(decimal.NewFromInt(1)))
}
