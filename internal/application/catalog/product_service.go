package catalog

import (
	"context"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations. Writes that
// change a cost or drain stock publish the aggregate's events after saving;
// the costing cascade and the alerting hang off those events.
type ProductService struct {
	products  catalog.ProductRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, publisher shared.EventPublisher, logger *zap.Logger) *ProductService {
	return &ProductService{
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.Unit)
	if err != nil {
		return nil, err
	}

	if req.Cost != nil {
		if err := product.UpdateCost(*req.Cost); err != nil {
			return nil, err
		}
	}
	if req.MinQuantity != nil {
		if err := product.SetMinQuantity(*req.MinQuantity); err != nil {
			return nil, err
		}
	}

	// The initial cost cannot affect any recipe yet, so the creation
	// events stay local.
	product.ClearDomainEvents()

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name),
	)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Get returns a single product
func (s *ProductService) Get(ctx context.Context, id string) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns a paginated product listing
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Update applies name and threshold changes
func (s *ProductService) Update(ctx context.Context, id string, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := product.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.MinQuantity != nil {
		if err := product.SetMinQuantity(*req.MinQuantity); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// UpdateCost sets a new unit cost. The emitted cost-change event is what
// sweeps the new figure through every recipe using the product.
func (s *ProductService) UpdateCost(ctx context.Context, id string, req UpdateProductCostRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := product.UpdateCost(req.Cost); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// AdjustStock applies a manual signed correction to the on-hand quantity
func (s *ProductService) AdjustStock(ctx context.Context, id string, req AdjustStockRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.AdjustQuantity(req.Delta)

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	s.logger.Info("stock adjusted manually",
		zap.String("product_id", product.ID),
		zap.String("delta", req.Delta.String()),
		zap.String("quantity", product.Quantity.String()),
	)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

func (s *ProductService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.publisher == nil {
		return
	}
	events := product.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish product events",
			zap.String("product_id", product.ID),
			zap.Error(err),
		)
	}
	product.ClearDomainEvents()
}
