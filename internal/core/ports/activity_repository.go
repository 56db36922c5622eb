package ports

import (
	"context"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

// ActivityRepository defines the persistence contract for the audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *domain.Activity) error
	List(ctx context.Context, userID string, filter domain.ActivityFilter) ([]domain.Activity, error)
	Stats(ctx context.Context, userID string) ([]domain.CategoryStat, error)
	Clear(ctx context.Context, userID string) error
}
