package persistence

import (
	"testing"
	"time"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an isolated in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	return db
}

// newStoredProduct builds a product ready to persist
func newStoredProduct(t *testing.T, name string, quantity, cost float64) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(name, "kg")
	require.NoError(t, err)
	p.Quantity = decimal.NewFromFloat(quantity)
	p.Cost = decimal.NewFromFloat(cost)
	return p
}

// newStoredRecipe builds a recipe with one section holding the given
// product requirements
func newStoredRecipe(t *testing.T, name string, createdAt time.Time, items map[string]float64) *catalog.Recipe {
	t.Helper()

	r, err := catalog.NewRecipe(name)
	require.NoError(t, err)

	if len(items) > 0 {
		section, err := r.AddSection("base")
		require.NoError(t, err)
		for productID, qty := range items {
			require.NoError(t, r.AddSectionItem(section.ID, productID, decimal.NewFromFloat(qty)))
		}
	}

	r.CreatedAt = createdAt
	return r
}
