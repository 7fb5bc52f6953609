package catalog

import (
	"time"

	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a purchasable ingredient in the catalog.
// It is the aggregate root for product-related operations. Quantity is the
// on-hand stock figure maintained by the stock ledger; Cost is the unit cost
// that recipe costing cascades from.
type Product struct {
	shared.BaseAggregateRoot
	Name        string          `gorm:"type:varchar(200);not null"`
	Unit        string          `gorm:"type:varchar(20);not null"` // Base unit (e.g., "kg", "l", "pcs")
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Minimum stock threshold for alerts
	Cost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Cost per unit
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name, unit string) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateUnit(unit); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Unit:              unit,
		Quantity:          decimal.Zero,
		MinQuantity:       decimal.Zero,
		Cost:              decimal.Zero,
	}

	return product, nil
}

// Rename updates the product name
func (p *Product) Rename(name string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// UpdateCost sets a new unit cost. A ProductCostChanged event is emitted
// only when the cost actually changes; callers rely on this to avoid
// firing costing cascades for no-op writes.
func (p *Product) UpdateCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	if p.Cost.Equal(cost) {
		return nil
	}

	oldCost := p.Cost
	p.Cost = cost.Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductCostChangedEvent(p, oldCost, p.Cost))

	return nil
}

// AdjustQuantity applies a signed stock delta to the on-hand quantity.
// Negative resulting stock is allowed: sales can be recorded before the
// matching purchase is entered, and the figure self-corrects once it is.
func (p *Product) AdjustQuantity(delta decimal.Decimal) {
	if delta.IsZero() {
		return
	}

	p.Quantity = p.Quantity.Add(delta).Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	if p.IsBelowMinimum() {
		p.AddDomainEvent(NewStockBelowThresholdEvent(p))
	}
}

// SetMinQuantity sets the minimum stock threshold for alerts
func (p *Product) SetMinQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_MIN_QUANTITY", "Minimum quantity cannot be negative")
	}

	p.MinQuantity = quantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// IsBelowMinimum returns true if the on-hand quantity is below the threshold
func (p *Product) IsBelowMinimum() bool {
	return p.MinQuantity.GreaterThan(decimal.Zero) && p.Quantity.LessThan(p.MinQuantity)
}

// StockValue returns the total value of the on-hand stock
func (p *Product) StockValue() decimal.Decimal {
	return p.Quantity.Mul(p.Cost).Round(4)
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

// validateUnit validates the unit
func validateUnit(unit string) error {
	if unit == "" {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if len(unit) > 20 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}
	return nil
}
