package persistence

import (
	"context"
	"errors"

	"github.com/bakehouse/backend/internal/domain/movement"
	"github.com/bakehouse/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// FindByID finds a movement by its ID with lines and delta rows loaded
func (r *GormMovementRepository) FindByID(ctx context.Context, id string) (*movement.Movement, error) {
	var m movement.Movement
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Delta").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindAll finds all movements matching the filter
func (r *GormMovementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]movement.Movement, error) {
	var movements []movement.Movement
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Delta").
		Model(&movement.Movement{})

	orderBy := ValidateSortField(filter.OrderBy, MovementSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// Save creates or updates a movement together with its lines and delta rows
func (r *GormMovementRepository) Save(ctx context.Context, m *movement.Movement) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(m).Error
}

// Delete deletes a movement. Its lines and delta rows stay behind as the
// audit record of what the movement once did.
func (r *GormMovementRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&movement.Movement{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts all movements
func (r *GormMovementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&movement.Movement{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormMovementRepository implements MovementRepository
var _ movement.MovementRepository = (*GormMovementRepository)(nil)
