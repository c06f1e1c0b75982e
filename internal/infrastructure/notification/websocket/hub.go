package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

var (
	// ErrHubBusy возвращается Send, когда очередь рассылки заполнена
	ErrHubBusy = errors.New("websocket hub broadcast queue is full")
	// ErrHubStopped возвращается Send после остановки Run: доставлять некому
	ErrHubStopped = errors.New("websocket hub is stopped")
)

// Hub управляет WebSocket клиентами и рассылает им тревоги и телеметрию.
// Реализует port.Transport и usecase.TelemetryBroadcaster
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для broadcast телеметрии
	broadcast chan *dto.TelemetrySnapshotDTO

	// Канал для broadcast тревог
	broadcastAlert chan *dto.AlertDTO

	// Канал для регистрации клиентов
	register chan *Client

	// Канал для удаления клиентов
	unregister chan *Client

	// Закрывается при остановке Run
	done chan struct{}

	// Mutex для защиты clients map
	mu sync.RWMutex

	// Logger
	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan *dto.TelemetrySnapshotDTO, 16),
		broadcastAlert: make(chan *dto.AlertDTO, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		logger:         logger,
	}
}

// Run запускает hub (должен быть запущен в отдельной goroutine) и работает до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case snapshot := <-h.broadcast:
			h.fanOut(Message{Type: "telemetry", Data: snapshot}, "")

		case alert := <-h.broadcastAlert:
			delivered := h.fanOut(Message{Type: "alert", Data: alert}, alert.CameraID)
			h.logger.Debug("Alert broadcasted to clients",
				"camera_id", alert.CameraID,
				"category", alert.Category,
				"clients", delivered,
			)
		}
	}
}

// fanOut отправляет сообщение клиентам, подписанным на камеру (пустая - всем);
// медленные клиенты отключаются
func (h *Hub) fanOut(message Message, cameraID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for client := range h.clients {
		if !client.Wants(cameraID) {
			continue
		}
		select {
		case client.send <- message:
			delivered++
		default:
			// Канал клиента заполнен, закрываем соединение
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn("Client channel full, disconnected")
		}
	}
	return delivered
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register регистрирует нового клиента; после остановки hub клиент сразу закрывается
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Name реализует port.Transport
func (h *Hub) Name() string {
	return "WebSocket"
}

// Send ставит тревогу в очередь рассылки живым клиентам (реализация port.Transport)
func (h *Hub) Send(ctx context.Context, notification port.Notification) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcastAlert <- dto.FromNotification(notification):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrHubBusy
	}
}

// BroadcastTelemetry отправляет снимок телеметрии всем клиентам
func (h *Hub) BroadcastTelemetry(snapshot *dto.TelemetrySnapshotDTO) {
	select {
	case h.broadcast <- snapshot:
		// Snapshot отправлен в канал
	default:
		h.logger.Warn("Broadcast channel full, dropping telemetry snapshot")
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"` // "telemetry" или "alert"
	Data interface{} `json:"data"`
}
