package costing

import (
	"context"
	"fmt"
	"testing"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRecipeCostService_OnRecipeCostChanged(t *testing.T) {
	ctx := context.Background()

	t.Run("propagates through a parent chain with nesting quantities", func(t *testing.T) {
		repo := newStubRecipeRepository()
		publisher := &capturingPublisher{}
		service := NewRecipeCostService(repo, publisher, zaptest.NewLogger(t))

		child := newTestRecipe(t, "Vanilla Cream", 16)
		parent := newTestRecipe(t, "Cream Puff", 40)
		nestRecipe(t, parent, child.ID, 2)
		grandparent := newTestRecipe(t, "Puff Tower", 100)
		nestRecipe(t, grandparent, parent.ID, 1)
		repo.put(child)
		repo.put(parent)
		repo.put(grandparent)

		// Child already carries its new cost; the trigger reports 10 -> 16.
		err := service.OnRecipeCostChanged(ctx, child.ID, dec(10), dec(16))
		require.NoError(t, err)

		// parent: 40 + 6*2 = 52, grandparent: 100 + 12*1 = 112
		assert.True(t, repo.cost(t, parent.ID).Equal(dec(52)), "parent cost = %s", repo.cost(t, parent.ID))
		assert.True(t, repo.cost(t, grandparent.ID).Equal(dec(112)), "grandparent cost = %s", repo.cost(t, grandparent.ID))
		assert.Equal(t, 1, repo.saveCount(parent.ID))
		assert.Equal(t, 1, repo.saveCount(grandparent.ID))
		assert.Equal(t, 0, repo.saveCount(child.ID))

		events := publisher.costEvents()
		require.Len(t, events, 2)
		for _, e := range events {
			assert.Equal(t, catalog.OriginCascade, e.Origin)
		}
	})

	t.Run("divides the propagated difference by batch units", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		child := newTestRecipe(t, "Dough", 9)
		parent := newTestRecipe(t, "Croissant", 20)
		require.NoError(t, parent.SetUnits(dec(4)))
		nestRecipe(t, parent, child.ID, 2)
		repo.put(child)
		repo.put(parent)

		err := service.OnRecipeCostChanged(ctx, child.ID, dec(3), dec(9))
		require.NoError(t, err)

		// 20 + 6*2/4 = 23
		assert.True(t, repo.cost(t, parent.ID).Equal(dec(23)), "parent cost = %s", repo.cost(t, parent.ID))
	})

	t.Run("does nothing when old and new cost are equal", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		child := newTestRecipe(t, "Glaze", 5)
		parent := newTestRecipe(t, "Donut", 12)
		nestRecipe(t, parent, child.ID, 1)
		repo.put(child)
		repo.put(parent)

		require.NoError(t, service.OnRecipeCostChanged(ctx, child.ID, dec(5), dec(5)))
		assert.Equal(t, 0, repo.saveCount(parent.ID))
	})

	t.Run("stops below the noise floor", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		child := newTestRecipe(t, "Sprinkles", 1.005)
		parent := newTestRecipe(t, "Cupcake", 8)
		nestRecipe(t, parent, child.ID, 1)
		repo.put(child)
		repo.put(parent)

		require.NoError(t, service.OnRecipeCostChanged(ctx, child.ID, dec(1), dec(1.005)))
		assert.Equal(t, 0, repo.saveCount(parent.ID))
		assert.True(t, repo.cost(t, parent.ID).Equal(dec(8)))
	})

	t.Run("noise floor applies per hop", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		// A 1.00 diff on the child shrinks to 0.005 at the parent because
		// of its batch units; the grandparent must stay untouched.
		child := newTestRecipe(t, "Filling", 11)
		parent := newTestRecipe(t, "Pie", 30)
		require.NoError(t, parent.SetUnits(dec(200)))
		nestRecipe(t, parent, child.ID, 1)
		grandparent := newTestRecipe(t, "Pie Box", 50)
		nestRecipe(t, grandparent, parent.ID, 1)
		repo.put(child)
		repo.put(parent)
		repo.put(grandparent)

		require.NoError(t, service.OnRecipeCostChanged(ctx, child.ID, dec(10), dec(11)))
		assert.Equal(t, 1, repo.saveCount(parent.ID))
		assert.True(t, repo.cost(t, parent.ID).Equal(dec(30.005)))
		assert.Equal(t, 0, repo.saveCount(grandparent.ID))
	})

	t.Run("two-recipe cycle terminates without looping", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		a := newTestRecipe(t, "Starter", 10)
		b := newTestRecipe(t, "Sourdough", 5)
		nestRecipe(t, a, b.ID, 1)
		nestRecipe(t, b, a.ID, 1)
		repo.put(a)
		repo.put(b)

		// Direct edit of A already persisted; propagation must update B
		// once and refuse to loop back into A.
		err := service.OnRecipeCostChanged(ctx, a.ID, dec(10), dec(20))
		require.NoError(t, err)

		assert.True(t, repo.cost(t, b.ID).Equal(dec(15)), "b cost = %s", repo.cost(t, b.ID))
		assert.Equal(t, 1, repo.saveCount(b.ID))
		assert.Equal(t, 0, repo.saveCount(a.ID))
	})

	t.Run("self-referencing recipe is skipped", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		a := newTestRecipe(t, "Ouroboros", 10)
		nestRecipe(t, a, a.ID, 1)
		repo.put(a)

		require.NoError(t, service.OnRecipeCostChanged(ctx, a.ID, dec(10), dec(20)))
		assert.Equal(t, 0, repo.saveCount(a.ID))
		assert.True(t, repo.cost(t, a.ID).Equal(dec(10)))
	})

	t.Run("depth limit abandons the branch instead of recursing forever", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t)).WithMaxDepth(3)

		chain := make([]*catalog.Recipe, 6)
		for i := range chain {
			chain[i] = newTestRecipe(t, fmt.Sprintf("Layer %d", i), 10)
			if i > 0 {
				nestRecipe(t, chain[i], chain[i-1].ID, 1)
			}
		}
		for _, r := range chain {
			repo.put(r)
		}

		err := service.OnRecipeCostChanged(ctx, chain[0].ID, dec(10), dec(20))
		require.NoError(t, err)

		assert.Equal(t, 1, repo.saveCount(chain[1].ID))
		assert.Equal(t, 1, repo.saveCount(chain[2].ID))
		assert.Equal(t, 1, repo.saveCount(chain[3].ID))
		assert.Equal(t, 0, repo.saveCount(chain[4].ID))
		assert.Equal(t, 0, repo.saveCount(chain[5].ID))
	})

	t.Run("shared ancestor of a diamond is updated once", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		base := newTestRecipe(t, "Base Syrup", 4)
		left := newTestRecipe(t, "Left Glaze", 10)
		nestRecipe(t, left, base.ID, 1)
		right := newTestRecipe(t, "Right Glaze", 10)
		nestRecipe(t, right, base.ID, 1)
		top := newTestRecipe(t, "Finished Cake", 40)
		nestRecipe(t, top, left.ID, 1)
		nestRecipe(t, top, right.ID, 1)
		repo.put(base)
		repo.put(left)
		repo.put(right)
		repo.put(top)

		err := service.OnRecipeCostChanged(ctx, base.ID, dec(2), dec(4))
		require.NoError(t, err)

		assert.True(t, repo.cost(t, left.ID).Equal(dec(12)))
		assert.True(t, repo.cost(t, right.ID).Equal(dec(12)))
		// Top is reconciled by whichever branch reaches it first; the
		// second branch finds it visited and leaves it alone.
		assert.Equal(t, 1, repo.saveCount(top.ID))
		assert.True(t, repo.cost(t, top.ID).Equal(dec(42)), "top cost = %s", repo.cost(t, top.ID))
	})
}

func TestRecipeCostService_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("unchanged parent cost still marks the recipe settled", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		child := newTestRecipe(t, "Zest", 2)
		parent := newTestRecipe(t, "Tart", 10)
		require.NoError(t, parent.SetUnits(dec(100000)))
		nestRecipe(t, parent, child.ID, 1)
		repo.put(child)
		repo.put(parent)

		// 1/100000 rounds to zero at 4 decimal places, so the parent's
		// cost does not move and nothing is written.
		require.NoError(t, service.OnRecipeCostChanged(ctx, child.ID, dec(1), dec(2)))
		assert.Equal(t, 0, repo.saveCount(parent.ID))
		assert.True(t, repo.cost(t, parent.ID).Equal(dec(10)))
	})

	t.Run("zero nesting quantity leaves the parent untouched", func(t *testing.T) {
		repo := newStubRecipeRepository()
		service := NewRecipeCostService(repo, nil, zaptest.NewLogger(t))

		// A reference row with a zero quantity can survive a partial
		// edit; the cascade must treat it as no contribution at all.
		child := newTestRecipe(t, "Crumbs", 3)
		parent := newTestRecipe(t, "Crumble", 9)
		parent.Nested = []catalog.RecipeReference{{RecipeID: parent.ID, NestedRecipeID: child.ID, Quantity: decimal.Zero}}
		repo.put(child)
		repo.put(parent)

		require.NoError(t, service.OnRecipeCostChanged(ctx, child.ID, dec(1), dec(3)))
		assert.Equal(t, 0, repo.saveCount(parent.ID))
	})
}
