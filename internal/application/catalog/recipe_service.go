package catalog

import (
	"context"
	"sort"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecipeService handles recipe-related business operations
type RecipeService struct {
	recipes   catalog.RecipeRepository
	products  catalog.ProductRepository
	bom       *catalog.BOMCalculator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewRecipeService creates a new RecipeService
func NewRecipeService(
	recipes catalog.RecipeRepository,
	products catalog.ProductRepository,
	bom *catalog.BOMCalculator,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:   recipes,
		products:  products,
		bom:       bom,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a new recipe with its sections and nested references.
// Referenced products and recipes must exist; the nested graph is NOT
// checked for cycles here, the traversals defend against them instead.
func (s *RecipeService) Create(ctx context.Context, req CreateRecipeRequest) (*RecipeResponse, error) {
	recipe, err := catalog.NewRecipe(req.Name)
	if err != nil {
		return nil, err
	}

	if req.Units != nil {
		if err := recipe.SetUnits(*req.Units); err != nil {
			return nil, err
		}
	}
	if req.SalePrice != nil {
		if err := recipe.SetSalePrice(*req.SalePrice); err != nil {
			return nil, err
		}
	}

	for _, sectionReq := range req.Sections {
		section, err := recipe.AddSection(sectionReq.Name)
		if err != nil {
			return nil, err
		}
		for _, itemReq := range sectionReq.Items {
			if _, err := s.products.FindByID(ctx, itemReq.ProductID); err != nil {
				return nil, shared.NewDomainError("INVALID_PRODUCT", "Referenced product does not exist: "+itemReq.ProductID)
			}
			if err := recipe.AddSectionItem(section.ID, itemReq.ProductID, itemReq.Quantity); err != nil {
				return nil, err
			}
		}
	}

	for _, nestedReq := range req.Nested {
		if _, err := s.recipes.FindByID(ctx, nestedReq.RecipeID); err != nil {
			return nil, shared.NewDomainError("INVALID_RECIPE", "Referenced recipe does not exist: "+nestedReq.RecipeID)
		}
		if err := recipe.AddNestedRecipe(nestedReq.RecipeID, nestedReq.Quantity); err != nil {
			return nil, err
		}
	}

	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}

	s.logger.Info("recipe created",
		zap.String("recipe_id", recipe.ID),
		zap.String("name", recipe.Name),
		zap.Int("sections", len(recipe.Sections)),
		zap.Int("nested", len(recipe.Nested)),
	)

	resp := ToRecipeResponse(recipe)
	return &resp, nil
}

// Get returns a single recipe
func (s *RecipeService) Get(ctx context.Context, id string) (*RecipeResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRecipeResponse(recipe)
	return &resp, nil
}

// List returns a paginated recipe listing
func (s *RecipeService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[RecipeResponse], error) {
	recipes, err := s.recipes.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.recipes.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		items = append(items, ToRecipeResponse(&recipes[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// UpdateCost applies a direct cost edit. The event it publishes carries
// the direct origin, which is what starts a fresh cascade run.
func (s *RecipeService) UpdateCost(ctx context.Context, id string, req UpdateRecipeCostRequest) (*RecipeResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recipe.ApplyCostChange(req.Cost, catalog.OriginDirect)

	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, recipe)

	resp := ToRecipeResponse(recipe)
	return &resp, nil
}

// UpdatePrice sets the sale price and recomputes the profit figure
func (s *RecipeService) UpdatePrice(ctx context.Context, id string, req UpdateRecipePriceRequest) (*RecipeResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := recipe.SetSalePrice(req.SalePrice); err != nil {
		return nil, err
	}

	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}

	resp := ToRecipeResponse(recipe)
	return &resp, nil
}

// BOM returns the recipe's flattened per-batch bill of materials
func (s *RecipeService) BOM(ctx context.Context, id string) (*BOMResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bom, err := s.bom.Compute(ctx, recipe)
	if err != nil {
		return nil, err
	}

	entries := make([]BOMEntryResponse, 0, len(bom.Entries))
	for productID, qty := range bom.Entries {
		entries = append(entries, BOMEntryResponse{ProductID: productID, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProductID < entries[j].ProductID })

	return &BOMResponse{RecipeID: recipe.ID, Entries: entries}, nil
}

// RecomputeCost rebuilds the recipe's cached cost from the current product
// costs of its flattened bill of materials, divided by the batch unit
// count. Useful to reconcile drift after bulk imports.
func (s *RecipeService) RecomputeCost(ctx context.Context, id string) (*RecipeResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bom, err := s.bom.Compute(ctx, recipe)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	if !bom.IsEmpty() {
		ids := make([]string, 0, len(bom.Entries))
		for productID := range bom.Entries {
			ids = append(ids, productID)
		}
		products, err := s.products.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range products {
			total = total.Add(bom.Quantity(products[i].ID).Mul(products[i].Cost))
		}
	}

	recipe.ApplyCostChange(total.Div(recipe.UnitCount()), catalog.OriginDirect)

	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, recipe)

	resp := ToRecipeResponse(recipe)
	return &resp, nil
}

// Delete removes a recipe
func (s *RecipeService) Delete(ctx context.Context, id string) error {
	if _, err := s.recipes.FindByID(ctx, id); err != nil {
		return err
	}
	return s.recipes.Delete(ctx, id)
}

func (s *RecipeService) publishEvents(ctx context.Context, recipe *catalog.Recipe) {
	if s.publisher == nil {
		return
	}
	events := recipe.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish recipe events",
			zap.String("recipe_id", recipe.ID),
			zap.Error(err),
		)
	}
	recipe.ClearDomainEvents()
}
