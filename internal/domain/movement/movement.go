package movement

import (
	"time"

	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType represents the direction of a stock movement
type MovementType string

const (
	// MovementTypePurchase brings stock in (positive delta)
	MovementTypePurchase MovementType = "PURCHASE"
	// MovementTypeSale takes stock out (negative delta)
	MovementTypeSale MovementType = "SALE"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	return t == MovementTypePurchase || t == MovementTypeSale
}

// Sign returns +1 for purchases and -1 for sales
func (t MovementType) Sign() decimal.Decimal {
	if t == MovementTypeSale {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// LineCollection identifies what a movement line references
type LineCollection string

const (
	// CollectionProducts marks a line referencing a product directly
	CollectionProducts LineCollection = "products"
	// CollectionRecipes marks a line referencing a recipe, expanded through its BOM
	CollectionRecipes LineCollection = "recipes"
)

// IsValid returns true if the collection is valid
func (c LineCollection) IsValid() bool {
	return c == CollectionProducts || c == CollectionRecipes
}

// MovementLine is one line item of a movement: a product or recipe
// reference with a quantity and, for purchases, an optional unit cost that
// overrides the product's persisted cost
type MovementLine struct {
	shared.BaseEntity
	MovementID   string          `gorm:"type:varchar(36);not null;index"`
	Collection   LineCollection  `gorm:"type:varchar(20);not null"`
	CollectionID string          `gorm:"type:varchar(36);not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (MovementLine) TableName() string {
	return "movement_lines"
}

// DeltaEntry is one row of a movement's persisted stock delta
type DeltaEntry struct {
	shared.BaseEntity
	MovementID string          `gorm:"type:varchar(36);not null;index"`
	ProductID  string          `gorm:"type:varchar(36);not null;index"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Signed
}

// TableName returns the table name for GORM
func (DeltaEntry) TableName() string {
	return "movement_deltas"
}

// Movement records one purchase or sale. The per-product delta it caused is
// persisted alongside it once applied, together with AppliedAt; a non-nil
// AppliedAt means the delta must never be recomputed or reapplied, which is
// what makes redelivered create-triggers safe.
type Movement struct {
	shared.BaseAggregateRoot
	Type           MovementType   `gorm:"type:varchar(20);not null;index"`
	CounterpartyID string         `gorm:"type:varchar(36);index"` // Supplier or customer reference
	Lines          []MovementLine `gorm:"foreignKey:MovementID;references:ID"`
	Delta          []DeltaEntry   `gorm:"foreignKey:MovementID;references:ID"`
	AppliedAt      *time.Time
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "movements"
}

// NewMovement creates a new movement
func NewMovement(movementType MovementType, counterpartyID string) (*Movement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Movement type must be PURCHASE or SALE")
	}

	m := &Movement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              movementType,
		CounterpartyID:    counterpartyID,
		Lines:             make([]MovementLine, 0),
		Delta:             make([]DeltaEntry, 0),
	}
	m.AddDomainEvent(NewMovementCreatedEvent(m))

	return m, nil
}

// AddLine appends a line item. Quantities are validated softly: a
// non-positive quantity is stored but skipped with a warning by the delta
// engine, mirroring how hand-entered documents are tolerated.
func (m *Movement) AddLine(collection LineCollection, collectionID string, quantity, unitCost decimal.Decimal) error {
	if !collection.IsValid() {
		return shared.NewDomainError("INVALID_COLLECTION", "Line must reference products or recipes")
	}
	if collectionID == "" {
		return shared.NewDomainError("INVALID_COLLECTION_ID", "Line reference ID cannot be empty")
	}

	m.Lines = append(m.Lines, MovementLine{
		BaseEntity:   shared.NewBaseEntity(),
		MovementID:   m.ID,
		Collection:   collection,
		CollectionID: collectionID,
		Quantity:     quantity,
		UnitCost:     unitCost,
	})
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// IsApplied returns true once the movement's delta has been committed
func (m *Movement) IsApplied() bool {
	return m.AppliedAt != nil
}

// MarkApplied records the computed delta and the application timestamp.
// It refuses to run twice: the persisted AppliedAt is the authoritative
// idempotency guard for retried triggers.
func (m *Movement) MarkApplied(delta map[string]decimal.Decimal, appliedAt time.Time) error {
	if m.IsApplied() {
		return shared.ErrAlreadyApplied
	}

	m.Delta = make([]DeltaEntry, 0, len(delta))
	for productID, qty := range delta {
		m.Delta = append(m.Delta, DeltaEntry{
			BaseEntity: shared.NewBaseEntity(),
			MovementID: m.ID,
			ProductID:  productID,
			Quantity:   qty,
		})
	}
	m.AppliedAt = &appliedAt
	m.UpdatedAt = appliedAt
	m.IncrementVersion()

	return nil
}

// DeltaMap returns the persisted delta as a productID → signed quantity map
func (m *Movement) DeltaMap() map[string]decimal.Decimal {
	delta := make(map[string]decimal.Decimal, len(m.Delta))
	for _, entry := range m.Delta {
		delta[entry.ProductID] = delta[entry.ProductID].Add(entry.Quantity)
	}
	return delta
}

// CostOverrides returns productID → unit cost for purchase lines that
// reference products directly with a positive cost. Later duplicate lines
// win, matching last-write-wins application order.
func (m *Movement) CostOverrides() map[string]decimal.Decimal {
	if m.Type != MovementTypePurchase {
		return nil
	}

	overrides := make(map[string]decimal.Decimal)
	for _, line := range m.Lines {
		if line.Collection == CollectionProducts && line.UnitCost.GreaterThan(decimal.Zero) {
			overrides[line.CollectionID] = line.UnitCost
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	return overrides
}
