package catalog

import (
	"time"

	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCostChanged  = "ProductCostChanged"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
)

// ProductCostChangedEvent is published when a product's unit cost changes.
// ChangedAt is the write timestamp used by the costing cascade's
// freshness barrier when deciding whether dependent recipes are stale.
type ProductCostChangedEvent struct {
	shared.BaseDomainEvent
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	OldCost   decimal.Decimal `json:"old_cost"`
	NewCost   decimal.Decimal `json:"new_cost"`
	ChangedAt time.Time       `json:"changed_at"`
}

// NewProductCostChangedEvent creates a new ProductCostChangedEvent
func NewProductCostChangedEvent(product *Product, oldCost, newCost decimal.Decimal) *ProductCostChangedEvent {
	return &ProductCostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCostChanged, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		OldCost:         oldCost,
		NewCost:         newCost,
		ChangedAt:       product.UpdatedAt,
	}
}

// StockBelowThresholdEvent is published when on-hand stock drops under the
// product's minimum quantity threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(product *Product) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		CurrentQuantity: product.Quantity,
		MinimumQuantity: product.MinQuantity,
	}
}
