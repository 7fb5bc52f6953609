package costing

import (
	"context"
	"testing"
	"time"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newProductCostFixture(t *testing.T) (*stubRecipeRepository, *capturingPublisher, *ProductCostService) {
	t.Helper()
	repo := newStubRecipeRepository()
	publisher := &capturingPublisher{}
	logger := zaptest.NewLogger(t)
	bom := catalog.NewBOMCalculator(repo, logger)
	recipeCosts := NewRecipeCostService(repo, publisher, logger)
	service := NewProductCostService(repo, bom, recipeCosts, publisher, logger)
	return repo, publisher, service
}

func TestProductCostService_OnProductCostChanged(t *testing.T) {
	ctx := context.Background()
	productID := "flour-01"

	t.Run("mutually nested consumers settle with one update each", func(t *testing.T) {
		repo, publisher, service := newProductCostFixture(t)

		// A and B both use the product directly and nest each other. The
		// sweep reaches A first, A's propagation rewrites B, and B's own
		// direct pass is superseded by the visit mark.
		a := newTestRecipe(t, "Brioche", 100)
		addProductLine(t, a, productID, 2)
		b := newTestRecipe(t, "Brioche Pudding", 50)
		addProductLine(t, b, productID, 1)
		nestRecipe(t, a, b.ID, 1)
		nestRecipe(t, b, a.ID, 1)
		repo.put(a)
		repo.put(b)

		err := service.OnProductCostChanged(ctx, productID, dec(10), dec(20), time.Now())
		require.NoError(t, err)

		// a: 100 + 2*10 = 120, b: 50 + 1*20 = 70 (via propagation from a)
		assert.True(t, repo.cost(t, a.ID).Equal(dec(120)), "a cost = %s", repo.cost(t, a.ID))
		assert.True(t, repo.cost(t, b.ID).Equal(dec(70)), "b cost = %s", repo.cost(t, b.ID))
		assert.Equal(t, 1, repo.saveCount(a.ID))
		assert.Equal(t, 1, repo.saveCount(b.ID))

		events := publisher.costEvents()
		require.Len(t, events, 2)
		assert.Equal(t, a.ID, events[0].RecipeID)
		assert.Equal(t, catalog.OriginProductUpdate, events[0].Origin)
		assert.Equal(t, b.ID, events[1].RecipeID)
		assert.Equal(t, catalog.OriginCascade, events[1].Origin)
	})

	t.Run("weights the cost difference by line quantity and batch units", func(t *testing.T) {
		repo, _, service := newProductCostFixture(t)

		recipe := newTestRecipe(t, "Baguette", 12)
		require.NoError(t, recipe.SetUnits(dec(4)))
		addProductLine(t, recipe, productID, 2)
		repo.put(recipe)

		err := service.OnProductCostChanged(ctx, productID, dec(3), dec(5), time.Now())
		require.NoError(t, err)

		// 12 + 2*2/4 = 13
		assert.True(t, repo.cost(t, recipe.ID).Equal(dec(13)), "cost = %s", repo.cost(t, recipe.ID))
	})

	t.Run("defers a parent behind a stale sub-recipe and settles it in the second pass", func(t *testing.T) {
		repo, _, service := newProductCostFixture(t)

		// leaf uses the product; sub nests leaf with a quantity so small
		// that the propagated difference dies at the noise floor; parent
		// uses the product directly AND nests sub. The stale sub forces
		// the parent into the second pass, and because sub's ripple never
		// reaches it, the second pass applies the direct update.
		leaf := newTestRecipe(t, "Roux", 5)
		addProductLine(t, leaf, productID, 1)
		sub := newTestRecipe(t, "Bechamel", 8)
		nestRecipe(t, sub, leaf.ID, 0.009)
		sub.UpdatedAt = time.Now().Add(-time.Hour)
		parent := newTestRecipe(t, "Croque", 20)
		addProductLine(t, parent, productID, 2)
		nestRecipe(t, parent, sub.ID, 1)
		repo.put(parent)
		repo.put(leaf)
		repo.put(sub)

		err := service.OnProductCostChanged(ctx, productID, dec(1), dec(2), time.Now())
		require.NoError(t, err)

		// leaf: 5 + 1*1 = 6, sub: 8 + 1*0.009 = 8.009 (ripple stops
		// there), parent: 20 + 2*1 = 22 from the second pass
		assert.True(t, repo.cost(t, leaf.ID).Equal(dec(6)))
		assert.True(t, repo.cost(t, sub.ID).Equal(dec(8.009)), "sub cost = %s", repo.cost(t, sub.ID))
		assert.True(t, repo.cost(t, parent.ID).Equal(dec(22)), "parent cost = %s", repo.cost(t, parent.ID))
		assert.Equal(t, 1, repo.saveCount(parent.ID))
	})

	t.Run("diamond above two consumers reconciles the ancestor once", func(t *testing.T) {
		repo, _, service := newProductCostFixture(t)

		left := newTestRecipe(t, "White Icing", 10)
		addProductLine(t, left, productID, 1)
		right := newTestRecipe(t, "Pink Icing", 10)
		addProductLine(t, right, productID, 1)
		top := newTestRecipe(t, "Two-Tone Cake", 30)
		nestRecipe(t, top, left.ID, 1)
		nestRecipe(t, top, right.ID, 1)
		repo.put(left)
		repo.put(right)
		repo.put(top)

		err := service.OnProductCostChanged(ctx, productID, dec(1), dec(2), time.Now())
		require.NoError(t, err)

		assert.True(t, repo.cost(t, left.ID).Equal(dec(11)))
		assert.True(t, repo.cost(t, right.ID).Equal(dec(11)))
		assert.Equal(t, 1, repo.saveCount(top.ID))
		assert.True(t, repo.cost(t, top.ID).Equal(dec(31)), "top cost = %s", repo.cost(t, top.ID))
	})

	t.Run("equal costs are a no-op", func(t *testing.T) {
		repo, _, service := newProductCostFixture(t)

		recipe := newTestRecipe(t, "Focaccia", 10)
		addProductLine(t, recipe, productID, 1)
		repo.put(recipe)

		require.NoError(t, service.OnProductCostChanged(ctx, productID, dec(5), dec(5), time.Now()))
		assert.Equal(t, 0, repo.saveCount(recipe.ID))
	})

	t.Run("no consumers means no writes", func(t *testing.T) {
		repo, publisher, service := newProductCostFixture(t)

		bystander := newTestRecipe(t, "Plain Bagel", 4)
		addProductLine(t, bystander, "yeast-07", 1)
		repo.put(bystander)

		require.NoError(t, service.OnProductCostChanged(ctx, productID, dec(1), dec(2), time.Now()))
		assert.Equal(t, 0, repo.saveCount(bystander.ID))
		assert.Empty(t, publisher.costEvents())
	})

	t.Run("missing nested recipe reference is tolerated", func(t *testing.T) {
		repo, _, service := newProductCostFixture(t)

		recipe := newTestRecipe(t, "Strudel", 15)
		addProductLine(t, recipe, productID, 1)
		nestRecipe(t, recipe, "deleted-recipe", 1)
		repo.put(recipe)

		err := service.OnProductCostChanged(ctx, productID, dec(2), dec(4), time.Now())
		require.NoError(t, err)

		assert.True(t, repo.cost(t, recipe.ID).Equal(dec(17)), "cost = %s", repo.cost(t, recipe.ID))
	})
}
