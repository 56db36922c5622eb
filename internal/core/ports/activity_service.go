package ports

import (
	"context"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

type ActivityService interface {
	List(ctx context.Context, userID string, filter domain.ActivityFilter) ([]domain.Activity, error)
	Stats(ctx context.Context, userID string) ([]domain.CategoryStat, error)
	Clear(ctx context.Context, userID string) error
}
