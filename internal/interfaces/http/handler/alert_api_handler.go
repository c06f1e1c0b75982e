package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/interfaces/http/middleware"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

// RecentAlertsReader - use case чтения последних тревог
type RecentAlertsReader interface {
	Execute(ctx context.Context, cameraID string, limit int) ([]*dto.AlertDTO, error)
}

// AlertAPIHandler обрабатывает API запросы по тревогам
type AlertAPIHandler struct {
	recentAlerts RecentAlertsReader
	logger       *logger.Logger
}

// NewAlertAPIHandler создает новый handler
func NewAlertAPIHandler(recentAlerts RecentAlertsReader, logger *logger.Logger) *AlertAPIHandler {
	return &AlertAPIHandler{
		recentAlerts: recentAlerts,
		logger:       logger,
	}
}

// GetRecentAlerts возвращает последние тревоги (?camera=<id>&limit=<n>)
func (h *AlertAPIHandler) GetRecentAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cameraID := strings.TrimSpace(r.URL.Query().Get("camera"))

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	alerts, err := h.recentAlerts.Execute(r.Context(), cameraID, limit)
	if err != nil {
		h.logger.Error("Failed to get recent alerts", err, "camera_id", cameraID)
		http.Error(w, "Failed to fetch alerts", http.StatusInternalServerError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"camera_id": cameraID,
		"count":     len(alerts),
		"alerts":    alerts,
	})
}
