package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Config - учетные данные Twilio и номера
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// messageCreator - часть Twilio API, которой пользуется транспорт
type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// Transport отправляет короткое SMS о тревоге через Twilio.
// Реализует интерфейс port.Transport
type Transport struct {
	cfg Config
	api messageCreator
}

// NewTransport создает Twilio клиент
func NewTransport(cfg Config) (*Transport, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	if strings.TrimSpace(cfg.From) == "" || strings.TrimSpace(cfg.To) == "" {
		return nil, errors.New("twilio from and to numbers are required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Transport{cfg: cfg, api: client.Api}, nil
}

func (t *Transport) Name() string {
	return "SMS"
}

// Send отправляет ShortText уведомления
func (t *Transport) Send(ctx context.Context, n port.Notification) error {
	_, err := t.SendWithReceipt(ctx, n)
	return err
}

// SendWithReceipt отправляет SMS и возвращает SID сообщения. Клиент Twilio не принимает
// context, поэтому запрос выполняется в отдельной goroutine и бросается по отмене ctx.
func (t *Transport) SendWithReceipt(ctx context.Context, n port.Notification) (string, error) {
	body := strings.TrimSpace(n.ShortText)
	if body == "" {
		body = n.Subject
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(t.cfg.To)
	params.SetFrom(t.cfg.From)
	params.SetBody(body)

	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)

	go func() {
		resp, err := t.api.CreateMessage(params)
		if err != nil {
			done <- result{err: err}
			return
		}
		sid := ""
		if resp != nil && resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- result{sid: sid}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("sms not confirmed: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("failed to send sms: %w", r.err)
		}
		return r.sid, nil
	}
}
