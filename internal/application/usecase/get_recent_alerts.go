package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

const maxRecentAlerts = 100

// GetRecentAlertsUseCase возвращает последние тревоги: сначала из кэша, затем из аудита
type GetRecentAlertsUseCase struct {
	cache      port.Cache
	repository port.AlertRepository
	logger     *logger.Logger
}

// NewGetRecentAlertsUseCase создает use case; cache и repository могут быть nil
func NewGetRecentAlertsUseCase(cache port.Cache, repository port.AlertRepository, logger *logger.Logger) *GetRecentAlertsUseCase {
	return &GetRecentAlertsUseCase{
		cache:      cache,
		repository: repository,
		logger:     logger,
	}
}

// Execute возвращает до limit последних тревог камеры; пустой cameraID - все камеры
func (uc *GetRecentAlertsUseCase) Execute(ctx context.Context, cameraID string, limit int) ([]*dto.AlertDTO, error) {
	if limit <= 0 || limit > maxRecentAlerts {
		limit = recentAlertsLimit
	}

	if uc.cache != nil {
		var cached []*dto.AlertDTO
		err := uc.cache.Get(ctx, RecentAlertsCacheKey(cameraID), &cached)
		switch {
		case err == nil:
			uc.logger.Debug("Recent alerts served from cache", "camera_id", cameraID, "count", len(cached))
			if len(cached) > limit {
				cached = cached[:limit]
			}
			// Кэш хранит не больше recentAlertsLimit записей: больший запрос идет в аудит
			if limit <= recentAlertsLimit || uc.repository == nil {
				return cached, nil
			}
		case errors.Is(err, port.ErrCacheMiss):
		default:
			uc.logger.Warn("Recent alerts cache read failed", "camera_id", cameraID, "error", err.Error())
		}
	}

	if uc.repository == nil {
		return []*dto.AlertDTO{}, nil
	}

	records, err := uc.repository.ListByCamera(ctx, cameraID, limit)
	if err != nil {
		uc.logger.Error("Failed to list alerts", err, "camera_id", cameraID)
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	result := make([]*dto.AlertDTO, 0, len(records))
	for _, record := range records {
		result = append(result, dto.FromAlertRecord(record))
	}
	return result, nil
}
