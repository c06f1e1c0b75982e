package port

import (
	"context"
	"time"
)

// Notification - готовое к отправке уведомление о тревоге
type Notification struct {
	EventID     string
	CameraID    string
	Category    string
	OccurredAt  time.Time
	Subject     string
	Body        string
	ShortText   string
	Reason      string
	SnapshotKey string
	SnapshotURL string
	Detections  int

	Attachment     []byte
	AttachmentName string
	ContentType    string
}

// Transport доставляет уведомление получателю (Port)
// Реализации: email, SMS, WebSocket, NATS
type Transport interface {
	// Name используется в журнале доставки: "Email", "SMS"
	Name() string

	// Send возвращает ошибку при неудаче; частичного успеха нет
	Send(ctx context.Context, notification Notification) error
}

// ReceiptTransport - транспорт, который возвращает идентификатор сообщения у провайдера
// (SID Twilio). Идентификатор попадает в журнал тревог.
type ReceiptTransport interface {
	Transport
	SendWithReceipt(ctx context.Context, notification Notification) (string, error)
}
