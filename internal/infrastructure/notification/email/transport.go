package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/wneessen/go-mail"
)

// Config - параметры SMTP
type Config struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Receiver string
	Timeout  time.Duration
}

// sender - часть mail.Client, которой пользуется транспорт
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Transport отправляет письмо о тревоге со снимком во вложении.
// Реализует интерфейс port.Transport
type Transport struct {
	cfg    Config
	client sender
}

// NewTransport создает SMTP клиент. Порт 465 - неявный TLS, остальные - STARTTLS.
func NewTransport(cfg Config) (*Transport, error) {
	if strings.TrimSpace(cfg.Sender) == "" || strings.TrimSpace(cfg.Receiver) == "" {
		return nil, errors.New("email sender and receiver are required")
	}
	if cfg.Password == "" {
		return nil, errors.New("email password is required")
	}
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Sender),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Transport{cfg: cfg, client: client}, nil
}

func (t *Transport) Name() string {
	return "Email"
}

// Send собирает и отправляет письмо
func (t *Transport) Send(ctx context.Context, n port.Notification) error {
	msg, err := t.buildMessage(n)
	if err != nil {
		return err
	}
	if err := t.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (t *Transport) buildMessage(n port.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(t.cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(t.cfg.Receiver); err != nil {
		return nil, fmt.Errorf("invalid receiver address: %w", err)
	}
	msg.Subject(n.Subject)
	msg.SetDate()

	body := n.Body
	if strings.HasPrefix(n.SnapshotURL, "http") {
		body += "\nSnapshot: " + n.SnapshotURL
	}
	msg.SetBodyString(mail.TypeTextPlain, body)

	if len(n.Attachment) > 0 {
		contentType := n.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		name := n.AttachmentName
		if name == "" {
			name = "snapshot.jpg"
		}
		if err := msg.AttachReader(name, bytes.NewReader(n.Attachment), mail.WithFileContentType(mail.ContentType(contentType))); err != nil {
			return nil, fmt.Errorf("failed to attach snapshot: %w", err)
		}
	}

	return msg, nil
}
