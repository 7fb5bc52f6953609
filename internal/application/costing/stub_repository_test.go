package costing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// stubRecipeRepository is an in-memory RecipeRepository for cascade tests.
// Reads return value copies and Save persists a snapshot, mirroring how
// the gorm repository behaves. Insertion order stands in for the
// created_at ordering of the real queries.
type stubRecipeRepository struct {
	mu      sync.Mutex
	order   []string
	recipes map[string]*catalog.Recipe
	saves   map[string]int
}

func newStubRecipeRepository() *stubRecipeRepository {
	return &stubRecipeRepository{
		order:   make([]string, 0),
		recipes: make(map[string]*catalog.Recipe),
		saves:   make(map[string]int),
	}
}

func (r *stubRecipeRepository) put(recipe *catalog.Recipe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[recipe.ID]; !ok {
		r.order = append(r.order, recipe.ID)
	}
	cp := *recipe
	r.recipes[recipe.ID] = &cp
}

func (r *stubRecipeRepository) FindByID(_ context.Context, id string) (*catalog.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.recipes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *recipe
	return &cp, nil
}

func (r *stubRecipeRepository) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Recipe, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.recipes[id])
	}
	return out, nil
}

func (r *stubRecipeRepository) FindUsingProduct(_ context.Context, productID string) ([]catalog.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Recipe, 0)
	for _, id := range r.order {
		if r.recipes[id].UsesProduct(productID) {
			out = append(out, *r.recipes[id])
		}
	}
	return out, nil
}

func (r *stubRecipeRepository) FindNesting(_ context.Context, recipeID string) ([]catalog.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Recipe, 0)
	for _, id := range r.order {
		if r.recipes[id].NestsRecipe(recipeID) {
			out = append(out, *r.recipes[id])
		}
	}
	return out, nil
}

func (r *stubRecipeRepository) Save(_ context.Context, recipe *catalog.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[recipe.ID]; !ok {
		r.order = append(r.order, recipe.ID)
	}
	cp := *recipe
	r.recipes[recipe.ID] = &cp
	r.saves[recipe.ID]++
	return nil
}

func (r *stubRecipeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recipes, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubRecipeRepository) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.recipes)), nil
}

func (r *stubRecipeRepository) saveCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[id]
}

func (r *stubRecipeRepository) cost(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.recipes[id]
	require.True(t, ok, "recipe %s not in repository", id)
	return recipe.Cost
}

// capturingPublisher records every published event for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) costEvents() []*catalog.RecipeCostChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*catalog.RecipeCostChangedEvent, 0)
	for _, e := range p.events {
		if ce, ok := e.(*catalog.RecipeCostChangedEvent); ok {
			out = append(out, ce)
		}
	}
	return out
}

// newTestRecipe builds a recipe with a preset cached cost and a timestamp
// safely in the future so the freshness barrier does not defer it unless a
// test backdates it explicitly.
func newTestRecipe(t *testing.T, name string, cost float64) *catalog.Recipe {
	t.Helper()
	recipe, err := catalog.NewRecipe(name)
	require.NoError(t, err)
	recipe.Cost = decimal.NewFromFloat(cost)
	recipe.UpdatedAt = time.Now().Add(time.Hour)
	return recipe
}

func addProductLine(t *testing.T, recipe *catalog.Recipe, productID string, qty float64) {
	t.Helper()
	section, err := recipe.AddSection("base")
	require.NoError(t, err)
	require.NoError(t, recipe.AddSectionItem(section.ID, productID, decimal.NewFromFloat(qty)))
	recipe.UpdatedAt = time.Now().Add(time.Hour)
}

func nestRecipe(t *testing.T, recipe *catalog.Recipe, subID string, qty float64) {
	t.Helper()
	require.NoError(t, recipe.AddNestedRecipe(subID, decimal.NewFromFloat(qty)))
	recipe.UpdatedAt = time.Now().Add(time.Hour)
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
