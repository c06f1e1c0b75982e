package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/observability/metrics"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/interfaces/http/handler"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/interfaces/http/middleware"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/config"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

// Router настраивает маршруты приложения
type Router struct {
	mux              *http.ServeMux
	healthHandler    *handler.HealthHandler
	cameraAPIHandler *handler.CameraAPIHandler
	alertAPIHandler  *handler.AlertAPIHandler
	websocketHandler *handler.WebSocketHandler
	metrics          *metrics.Metrics
	gatherer         prometheus.Gatherer
	rateLimiter      *middleware.IPRateLimiter
	security         config.SecurityConfig
	logger           *logger.Logger
}

// NewRouter создает новый router. websocketHandler, metrics, gatherer и rateLimiter могут быть nil.
func NewRouter(
	healthHandler *handler.HealthHandler,
	cameraAPIHandler *handler.CameraAPIHandler,
	alertAPIHandler *handler.AlertAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	rateLimiter *middleware.IPRateLimiter,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		healthHandler:    healthHandler,
		cameraAPIHandler: cameraAPIHandler,
		alertAPIHandler:  alertAPIHandler,
		websocketHandler: websocketHandler,
		metrics:          metrics,
		gatherer:         gatherer,
		rateLimiter:      rateLimiter,
		security:         security,
		logger:           logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Пробы и скрейпинг без авторизации
	rt.mux.HandleFunc("/healthz", rt.healthHandler.Healthz)
	rt.mux.HandleFunc("/readyz", rt.healthHandler.Readyz)
	if rt.gatherer != nil {
		rt.mux.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	limit := func(next http.Handler) http.Handler { return next }
	if rt.rateLimiter != nil {
		var onDrop func()
		if rt.metrics != nil {
			onDrop = rt.metrics.RateLimitDropped.Inc
		}
		limit = middleware.RateLimit(rt.rateLimiter, onDrop)
	}

	api := func(h http.HandlerFunc) http.Handler {
		return limit(authMiddleware(middleware.Compression(h)))
	}

	// API endpoints
	rt.mux.Handle("/api/v1/cameras", api(rt.cameraAPIHandler.ListCameras))
	rt.mux.Handle("/api/v1/alerts/recent", api(rt.alertAPIHandler.GetRecentAlerts))

	// WebSocket: авторизацию проверяет сам handler (token в query)
	if rt.websocketHandler != nil {
		rt.mux.Handle("/ws", limit(http.HandlerFunc(rt.websocketHandler.HandleConnection)))
	}

	// Применяем middleware
	var handler http.Handler = rt.mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.Recovery(rt.logger)(handler)
	handler = middleware.WithRequestID(handler)

	return handler
}
