package websocket

import (
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания для write операций
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал ping сообщений (должен быть меньше pongWait)
	pingPeriod = 54 * time.Second

	// Максимальный размер входящего сообщения: клиент только отвечает на ping
	maxMessageSize = 512

	sendBufferSize = 64
)

// Client - подписчик на живую ленту тревог
type Client struct {
	id string

	// Камера, тревоги которой нужны клиенту; пустая строка - все камеры
	cameraID string

	// WebSocket connection
	conn *websocket.Conn

	// Hub к которому принадлежит клиент
	hub *Hub

	// Канал для отправки сообщений
	send chan Message

	// Logger
	logger *logger.Logger
}

// NewClient создает нового WebSocket клиента
func NewClient(hub *Hub, conn *websocket.Conn, cameraID string, logger *logger.Logger) *Client {
	return &Client{
		id:       uuid.NewString(),
		cameraID: cameraID,
		conn:     conn,
		hub:      hub,
		send:     make(chan Message, sendBufferSize),
		logger:   logger,
	}
}

// ID возвращает идентификатор подключения
func (c *Client) ID() string {
	return c.id
}

// Wants сообщает, нужна ли клиенту тревога камеры; пустой cameraID - широковещательное сообщение
func (c *Client) Wants(cameraID string) bool {
	return cameraID == "" || c.cameraID == "" || c.cameraID == cameraID
}

// Serve регистрирует клиента и запускает насосы чтения и записи
func (c *Client) Serve() {
	c.hub.Register(c)
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump читает сообщения от клиента
// Запускается в отдельной goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("WebSocket close error", "client_id", c.id, "error", err.Error())
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("WebSocket set read deadline error", err, "client_id", c.id)
		return
	}
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", err, "client_id", c.id)
			}
			return
		}
	}
}

// WritePump отправляет сообщения клиенту
// Запускается в отдельной goroutine
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Hub закрыл канал
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn("WebSocket write error", "client_id", c.id, "error", err.Error())
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
