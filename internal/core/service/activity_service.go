package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type activityService struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
}

// NewActivityService returns the ActivityService implementation.
func NewActivityService(repo ports.ActivityRepository, log zerolog.Logger) ports.ActivityService {
	return &activityService{repo: repo, log: log}
}

func (s *activityService) List(ctx context.Context, userID string, filter domain.ActivityFilter) ([]domain.Activity, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultActivityLimit
	}
	if filter.Limit > maxActivityLimit {
		filter.Limit = maxActivityLimit
	}
	return s.repo.List(ctx, userID, filter)
}

func (s *activityService) Stats(ctx context.Context, userID string) ([]domain.CategoryStat, error) {
	return s.repo.Stats(ctx, userID)
}

func (s *activityService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("activity log cleared")
	return nil
}
