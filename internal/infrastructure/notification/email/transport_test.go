package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	messages []*mail.Msg
	err      error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, messages...)
	return nil
}

func newTestTransport(s sender) *Transport {
	return &Transport{
		cfg:    Config{Sender: "monitor@example.com", Receiver: "guard@example.com"},
		client: s,
	}
}

func weaponNotification() port.Notification {
	return port.Notification{
		EventID:        "evt-1",
		CameraID:       "0",
		Category:       "weapon",
		Subject:        "Alert: Weapon Detected on Camera 0",
		Body:           "A weapon has been detected.\nCamera ID: 0",
		SnapshotURL:    "https://alerts.storage.yandexcloud.net/weapon/cam0_1.jpg",
		Attachment:     []byte{0xFF, 0xD8, 0xFF},
		AttachmentName: "cam0_1.jpg",
		ContentType:    "image/jpeg",
	}
}

func TestTransport_Send(t *testing.T) {
	fake := &fakeSender{}
	transport := newTestTransport(fake)

	if transport.Name() != "Email" {
		t.Fatalf("unexpected name %q", transport.Name())
	}
	if err := transport.Send(context.Background(), weaponNotification()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(fake.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.messages))
	}

	msg := fake.messages[0]
	if subject := msg.GetGenHeader(mail.HeaderSubject); len(subject) != 1 || subject[0] != "Alert: Weapon Detected on Camera 0" {
		t.Fatalf("unexpected subject %v", subject)
	}
	recipients, err := msg.GetRecipients()
	if err != nil || len(recipients) != 1 || recipients[0] != "guard@example.com" {
		t.Fatalf("unexpected recipients %v %v", recipients, err)
	}
	attachments := msg.GetAttachments()
	if len(attachments) != 1 || attachments[0].Name != "cam0_1.jpg" {
		t.Fatalf("expected snapshot attachment, got %d", len(attachments))
	}
}

func TestTransport_SendWithoutSnapshot(t *testing.T) {
	fake := &fakeSender{}
	n := weaponNotification()
	n.Attachment = nil

	if err := newTestTransport(fake).Send(context.Background(), n); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(fake.messages[0].GetAttachments()) != 0 {
		t.Fatal("expected no attachments")
	}
}

func TestTransport_SendError(t *testing.T) {
	transport := newTestTransport(&fakeSender{err: errors.New("535 authentication failed")})

	err := transport.Send(context.Background(), weaponNotification())
	if err == nil || !strings.Contains(err.Error(), "535") {
		t.Fatalf("expected wrapped smtp error, got %v", err)
	}
}

func TestTransport_InvalidReceiver(t *testing.T) {
	transport := &Transport{
		cfg:    Config{Sender: "monitor@example.com", Receiver: "not an address"},
		client: &fakeSender{},
	}
	if err := transport.Send(context.Background(), weaponNotification()); err == nil {
		t.Fatal("expected address error")
	}
}

func TestNewTransport_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing receiver", Config{Sender: "a@example.com", Password: "x"}, true},
		{"missing password", Config{Sender: "a@example.com", Receiver: "b@example.com"}, true},
		{"ssl defaults", Config{Sender: "a@example.com", Receiver: "b@example.com", Password: "x"}, false},
		{"starttls", Config{Sender: "a@example.com", Receiver: "b@example.com", Password: "x", Host: "smtp.example.com", Port: 587}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := NewTransport(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTransport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && transport.cfg.Host == "" {
				t.Fatal("host default not applied")
			}
		})
	}
}
