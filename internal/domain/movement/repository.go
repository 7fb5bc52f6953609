package movement

import (
	"context"

	"github.com/bakehouse/backend/internal/domain/shared"
)

// MovementRepository defines persistence operations for movements
type MovementRepository interface {
	FindByID(ctx context.Context, id string) (*Movement, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Movement, error)
	Save(ctx context.Context, m *Movement) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
