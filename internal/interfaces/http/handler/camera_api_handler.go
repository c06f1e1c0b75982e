package handler

import (
	"net/http"
	"strings"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/usecase"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/interfaces/http/middleware"
)

// CameraAPIHandler отдает состояние мониторов камер
type CameraAPIHandler struct {
	registry *usecase.StatusRegistry
}

// NewCameraAPIHandler создает новый handler
func NewCameraAPIHandler(registry *usecase.StatusRegistry) *CameraAPIHandler {
	return &CameraAPIHandler{registry: registry}
}

// ListCameras возвращает статусы всех камер либо одной (?camera=<id>)
func (h *CameraAPIHandler) ListCameras(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if cameraID := strings.TrimSpace(r.URL.Query().Get("camera")); cameraID != "" {
		status, ok := h.registry.Get(cameraID)
		if !ok {
			http.Error(w, "Camera not found", http.StatusNotFound)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, status.ToDTO())
		return
	}

	statuses := h.registry.List()
	cameras := make([]dto.CameraStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		cameras = append(cameras, status.ToDTO())
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"cameras": cameras,
		"running": h.registry.RunningCount(),
	})
}
